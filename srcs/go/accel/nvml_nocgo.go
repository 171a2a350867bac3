//go:build !cgo

package accel

// NVML needs cgo; without it every call fails with ErrUnavailable.
type NVML struct {
	state
}

func NewNVML() *NVML {
	return &NVML{}
}

func (d *NVML) Init(kind DeviceKind) error {
	return ErrUnavailable
}

func (d *NVML) DeviceCount(kind DeviceKind) (int, error) {
	d.Lock()
	defer d.Unlock()
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	return 0, ErrUnavailable
}

func (d *NVML) SelectDevice(index int, kind DeviceKind) error {
	return ErrUnavailable
}

func (d *NVML) Shutdown() error {
	return ErrNotInitialized
}
