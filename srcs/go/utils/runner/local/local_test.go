package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lsds/accbind/srcs/go/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sh(name, script string) proc.Proc {
	return proc.Proc{Name: name, Prog: "/bin/sh", Args: []string{"-c", script}}
}

func Test_RunAll(t *testing.T) {
	dir := t.TempDir()
	ps := []proc.Proc{
		sh("a.0", `echo "rank $R"`),
		sh("a.1", `echo "rank $R" >&2`),
	}
	for i := range ps {
		ps[i].Envs = proc.Envs{`R`: ps[i].Name}
		ps[i].LogDir = dir
	}
	require.NoError(t, RunAll(context.Background(), ps, false))

	bs, err := os.ReadFile(filepath.Join(dir, "a.0.stdout.log"))
	require.NoError(t, err)
	assert.Equal(t, "rank a.0\n", string(bs))
	bs, err = os.ReadFile(filepath.Join(dir, "a.1.stderr.log"))
	require.NoError(t, err)
	assert.Equal(t, "rank a.1\n", string(bs))
}

func Test_RunAll_failure(t *testing.T) {
	ps := []proc.Proc{
		sh("ok", `exit 0`),
		sh("bad", `exit 1`),
		sh("slow", `exec sleep 30`),
	}
	t0 := time.Now()
	err := RunAll(context.Background(), ps, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#<bad>")
	assert.Contains(t, err.Error(), "#<slow>")
	assert.Less(t, time.Since(t0), 20*time.Second)
}

func Test_Run_lastOutput(t *testing.T) {
	p := sh("bad", `echo starting; echo "no device" >&2; echo done; exit 3`)
	err := Runner{Name: p.Name}.Run(p.Cmd(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `last output "no device"`)
	assert.Contains(t, err.Error(), "exit status 3")

	p = sh("quiet", `echo " unsuccessful mapping "; exit 1`)
	err = Runner{Name: p.Name}.Run(p.Cmd(context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `last output "unsuccessful mapping"`)
}
