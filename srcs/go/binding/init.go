package binding

import (
	"context"

	"github.com/lsds/accbind/srcs/go/accel"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/pkg/errors"
)

// Init binds the calling process to one device of kind. The accelerator
// runtime is initialized first and left initialized; the caller shuts it
// down. Init is collective over w.
func Init(ctx context.Context, w World, acc accel.Runtime, kind accel.DeviceKind) (*Decision, error) {
	if err := acc.Init(kind); err != nil {
		return nil, errors.WithMessagef(err, "init %s runtime", kind)
	}
	deviceCount, err := ResolveDeviceCount(acc, kind)
	if err != nil {
		return nil, err
	}
	t, err := ResolveTopology(ctx, w)
	if err != nil {
		return nil, err
	}
	b := NewBinder()
	if err := b.SetGroupSize(t.GroupSize); err != nil {
		return nil, err
	}
	log.Infof("%d %d", t.GroupSize, deviceCount)
	d, err := b.Validate(deviceCount, t.GlobalRank)
	if err != nil {
		return nil, b.Terminate()
	}
	if err := b.Bind(acc, kind); err != nil {
		return nil, err
	}
	log.Infof("process %d is assigned to %s device %d", t.GlobalRank, kind, d.LocalDeviceIndex)
	return d, nil
}
