package hostfile

import (
	"os"
	"strconv"
	"strings"

	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

// ParseFile parses a hostfile in the spirit of mpirun -hostfile:
//
//	<label> [slots=<n>] [devices=<m>]
func ParseFile(filename string) (plan.HostList, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	hl, err := Parse(string(bs))
	if err != nil {
		return nil, errors.WithMessage(err, filename)
	}
	return hl, nil
}

func Parse(text string) (plan.HostList, error) {
	var hl plan.HostList
	for i, line := range strings.Split(text, "\n") {
		line := trimComment(line)
		line = strings.TrimSpace(line)
		if len(line) <= 0 {
			continue
		}
		h, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		hl = append(hl, *h)
	}
	if len(hl) == 0 {
		return nil, errInvalidHostfile
	}
	return hl, nil
}

var errInvalidHostfile = errors.New("invalid hostfile")

func parseLine(line string) (*plan.HostSpec, error) {
	parts := strings.Fields(line)
	h := plan.HostSpec{Label: parts[0], Slots: 1, Devices: -1}
	for _, kv := range parts[1:] {
		kvs := strings.Split(kv, "=")
		if len(kvs) != 2 {
			return nil, errInvalidHostfile
		}
		k, v := kvs[0], kvs[1]
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.Wrapf(errInvalidHostfile, "%s=%q", k, v)
		}
		switch k {
		case `slots`:
			h.Slots = n
		case `devices`:
			h.Devices = n
		default:
			return nil, errors.Wrapf(errInvalidHostfile, "unknown key %q", k)
		}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

func trimComment(line string) string {
	parts := strings.SplitN(line, "#", 2)
	return parts[0]
}
