package iostream

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lsds/accbind/srcs/go/utils/xterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tee(t *testing.T) {
	var a, b bytes.Buffer
	last := &LastLine{}
	require.NoError(t, Tee(strings.NewReader("x\ny\nno newline"), &a, &b, last))
	assert.Equal(t, "x\ny\nno newline\n", a.String())
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, "no newline\n", last.String())
}

func Test_Stream(t *testing.T) {
	var out, errs bytes.Buffer
	r := StdReaders{Stdout: strings.NewReader("1\n2\n"), Stderr: strings.NewReader("oops\n")}
	r.Stream(&StdWriters{Stdout: &out, Stderr: &errs}, &StdWriters{Stdout: &Null{}, Stderr: &Null{}}).Wait()
	assert.Equal(t, "1\n2\n", out.String())
	assert.Equal(t, "oops\n", errs.String())
}

func Test_XTermRedirector(t *testing.T) {
	var out, errs bytes.Buffer
	w := newXTermRedirector("node001.0", xterm.Green, &out, &errs)
	w.Stdout.Write([]byte("hello\n"))
	w.Stderr.Write([]byte("bad\n"))
	assert.Equal(t, "[node001.0::stdout] hello\n", out.String())
	assert.Equal(t, "[node001.0::stderr] bad\n", errs.String())
}

func Test_FileRedirector(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "logs", "node001.0")
	w := NewFileRedirector(prefix)
	_, err := w.Stdout.Write([]byte("hello\n"))
	require.NoError(t, err)
	w.Close()

	bs, err := os.ReadFile(prefix + ".stdout.log")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(bs))
	_, err = os.Stat(prefix + ".stderr.log")
	assert.True(t, os.IsNotExist(err))
}
