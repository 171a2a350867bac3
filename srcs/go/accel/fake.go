package accel

import (
	"strconv"

	"github.com/pkg/errors"
)

// FakeDevicesEnvKey gives the number of devices of the fake runtime.
const FakeDevicesEnvKey = `ACCBIND_FAKE_DEVICES`

// Fake is a runtime with a fixed number of devices.
type Fake struct {
	state
	n int
}

func NewFake(n int) *Fake {
	return &Fake{n: n}
}

func NewFakeFromEnv() (*Fake, error) {
	val, ok := lookupEnv(FakeDevicesEnvKey)
	if !ok {
		return nil, errors.Errorf("%s not set", FakeDevicesEnvKey)
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return nil, errors.Errorf("invalid %s: %q", FakeDevicesEnvKey, val)
	}
	return NewFake(n), nil
}

func (f *Fake) Init(kind DeviceKind) error {
	f.Lock()
	defer f.Unlock()
	return f.init(kind)
}

func (f *Fake) DeviceCount(kind DeviceKind) (int, error) {
	f.Lock()
	defer f.Unlock()
	return f.deviceCount(kind, func() (int, error) { return f.n, nil })
}

func (f *Fake) SelectDevice(index int, kind DeviceKind) error {
	f.Lock()
	defer f.Unlock()
	n, err := f.deviceCount(kind, func() (int, error) { return f.n, nil })
	if err != nil {
		return err
	}
	if err := f.checkIndex(index, n); err != nil {
		return err
	}
	f.selectDevice(index)
	return nil
}

func (f *Fake) Shutdown() error {
	f.Lock()
	defer f.Unlock()
	return f.shutdown()
}
