//go:build cgo

package accel

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/pkg/errors"
)

// NVML asks the NVIDIA management library for the devices of the node.
type NVML struct {
	state
	lib    nvml.Interface
	loaded bool
}

func NewNVML() *NVML {
	return &NVML{lib: nvml.New()}
}

func nvmlError(ret nvml.Return, op string) error {
	return errors.Wrapf(ErrUnavailable, "%s: %s", op, nvml.ErrorString(ret))
}

func (d *NVML) Init(kind DeviceKind) error {
	d.Lock()
	defer d.Unlock()
	if kind == Nvidia {
		if ret := d.lib.Init(); ret != nvml.SUCCESS {
			return nvmlError(ret, "init")
		}
		d.loaded = true
	}
	return d.init(kind)
}

func (d *NVML) count() (int, error) {
	n, ret := d.lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return 0, nvmlError(ret, "device count")
	}
	return n, nil
}

func (d *NVML) DeviceCount(kind DeviceKind) (int, error) {
	d.Lock()
	defer d.Unlock()
	return d.deviceCount(kind, d.count)
}

// SelectDevice exports the UUID of the chosen device in
// CUDA_VISIBLE_DEVICES, NVML and CUDA may enumerate in different orders.
func (d *NVML) SelectDevice(index int, kind DeviceKind) error {
	d.Lock()
	defer d.Unlock()
	n, err := d.deviceCount(kind, d.count)
	if err != nil {
		return err
	}
	if err := d.checkIndex(index, n); err != nil {
		return err
	}
	dev, ret := d.lib.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nvmlError(ret, "device handle")
	}
	uuid, ret := dev.GetUUID()
	if ret != nvml.SUCCESS {
		return nvmlError(ret, "device uuid")
	}
	if err := setenv(CudaVisibleDevicesKey, uuid); err != nil {
		return errors.Wrap(err, "select device")
	}
	log.Debugf("device %d is %s", index, uuid)
	d.selectDevice(index)
	return nil
}

func (d *NVML) Shutdown() error {
	d.Lock()
	defer d.Unlock()
	if err := d.shutdown(); err != nil {
		return err
	}
	if !d.loaded {
		return nil
	}
	d.loaded = false
	if ret := d.lib.Shutdown(); ret != nvml.SUCCESS {
		return nvmlError(ret, "shutdown")
	}
	return nil
}
