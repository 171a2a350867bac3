package job

import (
	"bytes"
	"os"

	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Spec is a job file:
//
//	np: 8
//	hosts:
//	  - {label: node001, slots: 4, devices: 4}
//	  - {label: node002, slots: 4, devices: 4}
//	prog: accbind-init
//	args: [--backend, auto]
//	logdir: logs
//	env:
//	  ACCBIND_CONFIG_LOG_LEVEL: DEBUG
type Spec struct {
	NP     int               `yaml:"np"`
	Hosts  []HostEntry       `yaml:"hosts"`
	Prog   string            `yaml:"prog"`
	Args   []string          `yaml:"args"`
	LogDir string            `yaml:"logdir"`
	Env    map[string]string `yaml:"env"`
}

// HostEntry leaves Devices nil for a real host.
type HostEntry struct {
	Label   string `yaml:"label"`
	Slots   int    `yaml:"slots"`
	Devices *int   `yaml:"devices"`
}

func LoadSpec(filename string) (*Spec, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	s, err := ParseSpec(bs)
	if err != nil {
		return nil, errors.WithMessage(err, filename)
	}
	return s, nil
}

func ParseSpec(bs []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	var s Spec
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "parse job spec")
	}
	if _, err := s.HostList(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s Spec) HostList() (plan.HostList, error) {
	var hl plan.HostList
	for _, e := range s.Hosts {
		h := plan.HostSpec{Label: e.Label, Slots: e.Slots, Devices: -1}
		if h.Slots == 0 {
			h.Slots = 1
		}
		if e.Devices != nil {
			if *e.Devices < 0 {
				return nil, errors.Errorf("%s: negative device count", e.Label)
			}
			h.Devices = *e.Devices
		}
		if err := h.Validate(); err != nil {
			return nil, err
		}
		hl = append(hl, h)
	}
	return hl, nil
}
