package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errInvalidHostSpec = errors.New("invalid host spec")

// HostSpec describes a (possibly simulated) host of a local job.
// Devices < 0 leaves device discovery to the real accelerator runtime.
type HostSpec struct {
	Label   string `yaml:"label" json:"label"`
	Slots   int    `yaml:"slots" json:"slots"`
	Devices int    `yaml:"devices" json:"devices"`
}

func (h HostSpec) String() string {
	if h.Devices < 0 {
		return fmt.Sprintf("%s:%d", h.Label, h.Slots)
	}
	return fmt.Sprintf("%s:%d:%d", h.Label, h.Slots, h.Devices)
}

func (h HostSpec) Validate() error {
	if len(h.Label) == 0 || strings.ContainsAny(h.Label, " \t,") {
		return errors.Wrapf(errInvalidHostSpec, "label %q", h.Label)
	}
	if h.Slots <= 0 {
		return errors.Wrapf(errInvalidHostSpec, "%s: slots must be positive", h.Label)
	}
	return nil
}

// ParseHostSpec parses <label>[:<slots>[:<devices>]].
func ParseHostSpec(spec string) (*HostSpec, error) {
	parts := strings.Split(spec, ":")
	h := HostSpec{Label: parts[0], Slots: 1, Devices: -1}
	switch len(parts) {
	case 1:
	case 3:
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			return nil, errors.Wrapf(errInvalidHostSpec, "%q", spec)
		}
		h.Devices = n
		fallthrough
	case 2:
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(errInvalidHostSpec, "%q", spec)
		}
		h.Slots = n
	default:
		return nil, errors.Wrapf(errInvalidHostSpec, "%q", spec)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

type HostList []HostSpec

func (hl HostList) String() string {
	var ss []string
	for _, h := range hl {
		ss = append(ss, h.String())
	}
	return strings.Join(ss, ",")
}

// Set implements flags.Value::Set
func (hl *HostList) Set(val string) error {
	value, err := ParseHostList(val)
	if err != nil {
		return err
	}
	*hl = value
	return nil
}

// UnmarshalFlag implements go-flags' Unmarshaler.
func (hl *HostList) UnmarshalFlag(val string) error {
	return hl.Set(val)
}

func ParseHostList(hostlist string) (HostList, error) {
	var hl HostList
	for _, h := range strings.Split(hostlist, ",") {
		spec, err := ParseHostSpec(strings.TrimSpace(h))
		if err != nil {
			return nil, err
		}
		hl = append(hl, *spec)
	}
	return hl, nil
}

func (hl HostList) Cap() int {
	var cap int
	for _, h := range hl {
		cap += h.Slots
	}
	return cap
}

// Placement is the host a rank is started on.
type Placement struct {
	ProcessIdentity
	Host HostSpec
}

func (p Placement) Name() string {
	return fmt.Sprintf("%s.%d", p.Host.Label, p.Rank)
}

var errNoEnoughCapacity = errors.New("no enough capacity")

// Place fills hosts in order, like mpirun's --map-by slot.
func (hl HostList) Place(np int) ([]Placement, error) {
	if np <= 0 {
		return nil, errors.Errorf("invalid number of processes: %d", np)
	}
	if hl.Cap() < np {
		return nil, errors.Wrapf(errNoEnoughCapacity, "%d slots for %d processes", hl.Cap(), np)
	}
	var ps []Placement
	for _, host := range hl {
		for j := 0; j < host.Slots && len(ps) < np; j++ {
			ps = append(ps, Placement{
				ProcessIdentity: ProcessIdentity{Rank: len(ps), Size: np},
				Host:            host,
			})
		}
	}
	return ps, nil
}
