// Package accel is the process-local handle on the accelerator runtime.
package accel

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type DeviceKind int

const (
	Nvidia DeviceKind = iota
	Host
)

var deviceKindNames = map[DeviceKind]string{
	Nvidia: `nvidia`,
	Host:   `host`,
}

func (k DeviceKind) String() string {
	if name, ok := deviceKindNames[k]; ok {
		return name
	}
	return `unknown`
}

// Set implements flags.Value::Set
func (k *DeviceKind) Set(val string) error {
	for kind, name := range deviceKindNames {
		if strings.EqualFold(name, val) {
			*k = kind
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownDeviceKind, "%q", val)
}

func (k *DeviceKind) UnmarshalFlag(val string) error {
	return k.Set(val)
}

var (
	ErrNotInitialized    = errors.New("accelerator runtime not initialized")
	ErrUnavailable       = errors.New("accelerator runtime unavailable")
	ErrUnknownDeviceKind = errors.New("unknown device kind")
	ErrUnknownBackend    = errors.New("unknown accelerator backend")
	ErrInvalidDevice     = errors.New("invalid device index")
)

// Runtime is the accelerator runtime of the current process. DeviceCount
// must not be called before Init; the first count is kept for the life of
// the process.
type Runtime interface {
	Init(kind DeviceKind) error
	DeviceCount(kind DeviceKind) (int, error)
	SelectDevice(index int, kind DeviceKind) error
	Shutdown() error
}

// Backends lists the names accepted by Open.
var Backends = []string{`auto`, `devfs`, `nvml`, `fake`}

// Open returns the runtime named by backend. The auto backend uses the fake
// runtime when FakeDevicesEnvKey is set and /dev otherwise.
func Open(backend string) (Runtime, error) {
	switch backend {
	case `devfs`:
		return NewDevFS(), nil
	case `nvml`:
		return NewNVML(), nil
	case `fake`:
		return NewFakeFromEnv()
	case `auto`, ``:
		if _, ok := lookupEnv(FakeDevicesEnvKey); ok {
			return NewFakeFromEnv()
		}
		return NewDevFS(), nil
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "%q, want one of %s", backend, strings.Join(Backends, "|"))
}

// state is the part common to all runtimes: the init flag, the cached
// device count and the selected device.
type state struct {
	sync.Mutex
	initialized bool
	counted     bool
	count       int
	selected    int
	hasSelected bool
}

func (s *state) init(kind DeviceKind) error {
	if _, ok := deviceKindNames[kind]; !ok {
		return errors.Wrapf(ErrUnknownDeviceKind, "%d", int(kind))
	}
	s.initialized = true
	return nil
}

// deviceCount returns the cached count, calling count on first use.
func (s *state) deviceCount(kind DeviceKind, count func() (int, error)) (int, error) {
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	if kind == Host {
		return 0, nil
	}
	if !s.counted {
		n, err := count()
		if err != nil {
			return 0, err
		}
		s.count, s.counted = n, true
	}
	return s.count, nil
}

func (s *state) checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return errors.Wrapf(ErrInvalidDevice, "%d of %d devices", index, count)
	}
	return nil
}

func (s *state) selectDevice(index int) {
	s.selected, s.hasSelected = index, true
}

// Selected returns the device chosen by SelectDevice.
func (s *state) Selected() (int, bool) {
	s.Lock()
	defer s.Unlock()
	return s.selected, s.hasSelected
}

func (s *state) shutdown() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	s.initialized = false
	return nil
}
