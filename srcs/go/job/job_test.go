package job

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/lsds/accbind/srcs/go/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateProcs(t *testing.T) {
	lookupEnv = func(key string) (string, bool) {
		if key == `ACCBIND_CONFIG_LOG_LEVEL` {
			return "DEBUG", true
		}
		return "", false
	}
	defer func() { lookupEnv = os.LookupEnv }()

	hl, err := plan.ParseHostList("node001:2:2,node002:2")
	require.NoError(t, err)
	j := Job{
		ID:         "j1",
		Rendezvous: "http://127.0.0.1:9100",
		HostList:   hl,
		Prog:       "accbind-init",
		Args:       []string{"--backend", "fake"},
		Envs:       proc.Envs{`ACCBIND_RANK`: "ignored", `EXTRA`: "1"},
	}
	ps, err := j.CreateProcs(3)
	require.NoError(t, err)
	require.Len(t, ps, 3)

	want := proc.Proc{
		Name: "node001.1",
		Prog: "accbind-init",
		Args: []string{"--backend", "fake"},
		Envs: proc.Envs{
			`ACCBIND_RANK`:             "1",
			`ACCBIND_SIZE`:             "3",
			`ACCBIND_JOB_ID`:           "j1",
			`ACCBIND_RENDEZVOUS`:       "http://127.0.0.1:9100",
			`ACCBIND_PROCESSOR_NAME`:   "node001",
			`ACCBIND_FAKE_DEVICES`:     "2",
			`ACCBIND_CONFIG_LOG_LEVEL`: "DEBUG",
			`EXTRA`:                    "1",
		},
	}
	if diff := cmp.Diff(want, ps[1]); diff != "" {
		t.Errorf("NewProc() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "node002.2", ps[2].Name)
	_, ok := ps[2].Envs[`ACCBIND_FAKE_DEVICES`]
	assert.False(t, ok)

	_, err = j.CreateProcs(5)
	assert.Error(t, err)
}

func Test_NewProc_configEnvs(t *testing.T) {
	lookupEnv = func(key string) (string, bool) {
		switch key {
		case `ACCBIND_CONFIG_LOG_LEVEL`:
			return "DEBUG", true
		case `ACCBIND_CONFIG_POLL_INTERVAL`:
			return "1s", true
		}
		return "", false
	}
	defer func() { lookupEnv = os.LookupEnv }()

	j := Job{ID: "j1", Prog: "prog", Envs: proc.Envs{`ACCBIND_CONFIG_LOG_LEVEL`: "WARN"}}
	p := j.NewProc(plan.Placement{ProcessIdentity: plan.ProcessIdentity{Rank: 0, Size: 1}, Host: plan.HostSpec{Label: "gpu7", Slots: 1, Devices: -1}})
	assert.Equal(t, "WARN", p.Envs[`ACCBIND_CONFIG_LOG_LEVEL`], "job env wins over the launcher's")
	assert.Equal(t, "1s", p.Envs[`ACCBIND_CONFIG_POLL_INTERVAL`])
}

func Test_NewID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}

func Test_ParseSpec(t *testing.T) {
	s, err := ParseSpec([]byte(`
np: 8
hosts:
  - {label: node001, slots: 4, devices: 4}
  - label: node002
    slots: 4
  - label: login
prog: accbind-init
args: [--backend, auto]
logdir: logs
env:
  ACCBIND_CONFIG_LOG_LEVEL: DEBUG
`))
	require.NoError(t, err)
	assert.Equal(t, 8, s.NP)
	assert.Equal(t, []string{"--backend", "auto"}, s.Args)
	assert.Equal(t, "DEBUG", s.Env["ACCBIND_CONFIG_LOG_LEVEL"])
	hl, err := s.HostList()
	require.NoError(t, err)
	assert.Equal(t, plan.HostList{
		{Label: "node001", Slots: 4, Devices: 4},
		{Label: "node002", Slots: 4, Devices: -1},
		{Label: "login", Slots: 1, Devices: -1},
	}, hl)
}

func Test_ParseSpec_invalid(t *testing.T) {
	for _, text := range []string{
		"np: eight",
		"hosts: [{label: a, slots: 1, gpus: 2}]",
		"hosts: [{label: a, devices: -1}]",
		"hosts: [{label: '', slots: 1}]",
	} {
		_, err := ParseSpec([]byte(text))
		assert.Error(t, err, text)
	}
}
