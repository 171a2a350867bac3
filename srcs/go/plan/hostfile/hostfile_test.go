package hostfile

import (
	"testing"

	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	text := `
	# ...
	node001 slots=4 devices=4 # ...
	# ...
   	node002 slots=8
	`
	hl, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, plan.HostList{
		{Label: "node001", Slots: 4, Devices: 4},
		{Label: "node002", Slots: 8, Devices: -1},
	}, hl)
}

func Test_Parse_invalid(t *testing.T) {
	for _, text := range []string{
		"",
		"# only comments",
		"node001 slots",
		"node001 slots=four",
		"node001 gpus=4",
		"node001 slots=0",
	} {
		_, err := Parse(text)
		assert.Error(t, err, "%q", text)
	}
}
