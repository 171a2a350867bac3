package binding

import (
	"fmt"
	"sync"

	"github.com/lsds/accbind/srcs/go/accel"
	"github.com/pkg/errors"
)

var (
	ErrDeviceMappingMismatch = errors.New("unsuccessful mapping")
	ErrAlreadyBound          = errors.New("process already bound to a device")
	ErrInvalidTransition     = errors.New("invalid binder transition")
)

// MismatchError reports a node group that cannot be mapped one-to-one onto
// the devices of its node.
type MismatchError struct {
	GroupSize   int
	DeviceCount int
}

func (e *MismatchError) Error() string {
	if e.DeviceCount == 0 {
		return fmt.Sprintf("%v: no device for %d processes", ErrDeviceMappingMismatch, e.GroupSize)
	}
	return fmt.Sprintf("%v: %d processes on a node with %d devices", ErrDeviceMappingMismatch, e.GroupSize, e.DeviceCount)
}

func (e *MismatchError) Unwrap() error {
	return ErrDeviceMappingMismatch
}

type Decision struct {
	GlobalRank       int
	DeviceCount      int
	LocalDeviceIndex int
}

// Decide maps rank to a device. There is a decision only if the node group
// has one process per device and at least one device.
func Decide(groupSize, deviceCount, rank int) (*Decision, error) {
	if groupSize != deviceCount || deviceCount <= 0 {
		return nil, &MismatchError{GroupSize: groupSize, DeviceCount: deviceCount}
	}
	return &Decision{
		GlobalRank:       rank,
		DeviceCount:      deviceCount,
		LocalDeviceIndex: rank % deviceCount,
	}, nil
}

// ResolveDeviceCount must be called after acc.Init.
func ResolveDeviceCount(acc accel.Runtime, kind accel.DeviceKind) (int, error) {
	n, err := acc.DeviceCount(kind)
	if err != nil {
		return 0, errors.WithMessagef(err, "count %s devices", kind)
	}
	return n, nil
}

type State int

const (
	Unbound State = iota
	GroupSizeKnown
	Validated
	Rejected
	Bound
	Terminated
)

var stateNames = map[State]string{
	Unbound:        `unbound`,
	GroupSizeKnown: `group-size-known`,
	Validated:      `validated`,
	Rejected:       `rejected`,
	Bound:          `bound`,
	Terminated:     `terminated`,
}

func (s State) String() string {
	return stateNames[s]
}

// Binder tracks the binding of one process. Bound and Terminated are final.
type Binder struct {
	sync.Mutex
	state     State
	groupSize int
	decision  *Decision
	err       error
}

func NewBinder() *Binder {
	return &Binder{}
}

func (b *Binder) State() State {
	b.Lock()
	defer b.Unlock()
	return b.state
}

func (b *Binder) transitionError(to State) error {
	if b.state == Bound {
		return ErrAlreadyBound
	}
	return errors.Wrapf(ErrInvalidTransition, "%s -> %s", b.state, to)
}

func (b *Binder) SetGroupSize(n int) error {
	b.Lock()
	defer b.Unlock()
	if b.state != Unbound {
		return b.transitionError(GroupSizeKnown)
	}
	b.groupSize = n
	b.state = GroupSizeKnown
	return nil
}

// Validate checks the group size against deviceCount and moves to
// Validated or Rejected.
func (b *Binder) Validate(deviceCount, rank int) (*Decision, error) {
	b.Lock()
	defer b.Unlock()
	if b.state != GroupSizeKnown {
		return nil, b.transitionError(Validated)
	}
	d, err := Decide(b.groupSize, deviceCount, rank)
	if err != nil {
		b.state, b.err = Rejected, err
		return nil, err
	}
	b.state, b.decision = Validated, d
	return d, nil
}

// Bind selects the validated device.
func (b *Binder) Bind(acc accel.Runtime, kind accel.DeviceKind) error {
	b.Lock()
	defer b.Unlock()
	if b.state != Validated {
		return b.transitionError(Bound)
	}
	if err := acc.SelectDevice(b.decision.LocalDeviceIndex, kind); err != nil {
		return errors.WithMessagef(err, "select device %d", b.decision.LocalDeviceIndex)
	}
	b.state = Bound
	return nil
}

// Terminate ends a rejected binding and returns the reason.
func (b *Binder) Terminate() error {
	b.Lock()
	defer b.Unlock()
	if b.state != Rejected {
		return b.transitionError(Terminated)
	}
	b.state = Terminated
	return b.err
}

func (b *Binder) Decision() (*Decision, bool) {
	b.Lock()
	defer b.Unlock()
	return b.decision, b.state == Bound
}
