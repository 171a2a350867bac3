package accel

import (
	"os"
	"strconv"
	"strings"

	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/pkg/errors"
)

// https://devblogs.nvidia.com/cuda-pro-tip-control-gpu-visibility-cuda_visible_devices/
const CudaVisibleDevicesKey = `CUDA_VISIBLE_DEVICES`

var (
	lookupEnv = os.LookupEnv
	setenv    = os.Setenv
)

// DevFS counts the /dev/nvidia<N> nodes visible to the process. When
// CUDA_VISIBLE_DEVICES names devices by UUID they are counted as listed,
// since nothing in /dev maps them to indices.
type DevFS struct {
	state
	DevDir  string
	visible []string
}

func NewDevFS() *DevFS {
	return &DevFS{DevDir: `/dev`}
}

func (d *DevFS) Init(kind DeviceKind) error {
	d.Lock()
	defer d.Unlock()
	return d.init(kind)
}

func (d *DevFS) DeviceCount(kind DeviceKind) (int, error) {
	d.Lock()
	defer d.Unlock()
	return d.deviceCount(kind, d.scan)
}

func (d *DevFS) scan() (int, error) {
	var ids []int
	for _, name := range utils.ListDeviceNodes(d.DevDir, `nvidia`) {
		id, _ := strconv.Atoi(strings.TrimPrefix(name, `nvidia`))
		ids = append(ids, id)
	}
	d.visible = nil
	if val, ok := lookupEnv(CudaVisibleDevicesKey); ok {
		entries, named, err := parseCudaVisibleDevices(val)
		if err != nil {
			return 0, errors.Wrapf(err, "%s=%q", CudaVisibleDevicesKey, val)
		}
		if named {
			log.Warnf("%s names %s by UUID, they are not checked against %s (--backend nvml resolves them)",
				CudaVisibleDevicesKey, utils.Pluralize(len(entries), "device", "devices"), d.DevDir)
			d.visible = entries
			return len(entries), nil
		}
		ids = intersect(atois(entries), ids)
	}
	for _, id := range ids {
		d.visible = append(d.visible, strconv.Itoa(id))
	}
	log.Debugf("%s in %s", utils.Pluralize(len(ids), "device", "devices"), d.DevDir)
	return len(ids), nil
}

// SelectDevice restricts CUDA_VISIBLE_DEVICES to the chosen device, for the
// process itself and anything it starts.
func (d *DevFS) SelectDevice(index int, kind DeviceKind) error {
	d.Lock()
	defer d.Unlock()
	n, err := d.deviceCount(kind, d.scan)
	if err != nil {
		return err
	}
	if err := d.checkIndex(index, n); err != nil {
		return err
	}
	if err := setenv(CudaVisibleDevicesKey, d.visible[index]); err != nil {
		return errors.Wrap(err, "select device")
	}
	d.selectDevice(index)
	return nil
}

func (d *DevFS) Shutdown() error {
	d.Lock()
	defer d.Unlock()
	return d.shutdown()
}

var errInvalidCudaVisibleDevices = errors.New("invalid " + CudaVisibleDevicesKey)

func isDeviceUUID(entry string) bool {
	return strings.HasPrefix(entry, `GPU-`) || strings.HasPrefix(entry, `MIG-`)
}

// parseCudaVisibleDevices returns the entries up to the first negative
// index, which hides all devices after it. Entries are either all indices
// or all UUIDs (GPU-..., MIG-...); named reports the latter.
func parseCudaVisibleDevices(val string) (entries []string, named bool, err error) {
	if len(val) == 0 {
		return nil, false, nil
	}
	set := make(map[string]struct{})
	for i, p := range strings.Split(val, ",") {
		p = strings.TrimSpace(p)
		isName := isDeviceUUID(p)
		if i == 0 {
			named = isName
		} else if isName != named {
			return nil, false, errors.Wrap(errInvalidCudaVisibleDevices, "indices mixed with UUIDs")
		}
		if !named {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, false, errors.Wrap(errInvalidCudaVisibleDevices, err.Error())
			}
			if n < 0 {
				break
			}
			p = strconv.Itoa(n)
		}
		if _, ok := set[p]; ok {
			return nil, false, errors.Wrapf(errInvalidCudaVisibleDevices, "duplicated %s", p)
		}
		set[p] = struct{}{}
		entries = append(entries, p)
	}
	return entries, named, nil
}

func atois(entries []string) []int {
	var ns []int
	for _, e := range entries {
		n, _ := strconv.Atoi(e)
		ns = append(ns, n)
	}
	return ns
}

// intersect keeps the elements of xs present in ys, in the order of xs.
func intersect(xs, ys []int) []int {
	set := make(map[int]struct{})
	for _, y := range ys {
		set[y] = struct{}{}
	}
	var zs []int
	for _, x := range xs {
		if _, ok := set[x]; ok {
			zs = append(zs, x)
		}
	}
	return zs
}
