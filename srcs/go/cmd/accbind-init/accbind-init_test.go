package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lsds/accbind/srcs/go/proc"
	"github.com/lsds/accbind/srcs/go/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAsInitEnvKey makes the test binary behave as accbind-init, so that the
// launcher can start it as a job.
const runAsInitEnvKey = `ACCBIND_TEST_RUN_AS_INIT`

func TestMain(m *testing.M) {
	if os.Getenv(runAsInitEnvKey) == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// launch runs accbind-init on the simulated hosts and returns the combined
// stdout of all processes.
func launch(t *testing.T, hosts string) (string, error) {
	t.Helper()
	self, err := os.Executable()
	require.NoError(t, err)
	dir := t.TempDir()
	var f runner.FlagSet
	require.NoError(t, f.Parse([]string{"-q", "--logdir", dir, "-H", hosts, self, "--backend", "fake"}))
	f.Envs = proc.Envs{runAsInitEnvKey: "1"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	runErr := runner.SimpleRun(ctx, &f)

	logs, err := filepath.Glob(filepath.Join(dir, "*.stdout.log"))
	require.NoError(t, err)
	var out strings.Builder
	for _, name := range logs {
		bs, err := os.ReadFile(name)
		require.NoError(t, err)
		out.Write(bs)
	}
	return out.String(), runErr
}

func Test_accbindInit_twoNodes(t *testing.T) {
	out, err := launch(t, "node001:2:2,node002:2:2")
	require.NoError(t, err, out)
	assert.Equal(t, 4, strings.Count(out, "is assigned to nvidia device"), out)
	assert.Contains(t, out, "process 3 is assigned to nvidia device 1")
	assert.NotContains(t, out, "unsuccessful mapping")
}

func Test_accbindInit_keyCollision(t *testing.T) {
	// both labels carry 1, so all 8 processes land in one group for 4 devices
	out, err := launch(t, "nodeA01:4:4,nodeB01:4:4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, out, " unsuccessful mapping ")
	assert.Contains(t, out, "[F]")
	assert.NotContains(t, out, "is assigned to")
}
