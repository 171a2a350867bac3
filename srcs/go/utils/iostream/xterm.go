package iostream

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lsds/accbind/srcs/go/utils/xterm"
)

// output lines of concurrent processes must not interleave
var termMu sync.Mutex

type XtermWriter struct {
	prefix string
	w      io.Writer
}

func (x XtermWriter) Write(bs []byte) (int, error) {
	termMu.Lock()
	defer termMu.Unlock()
	fmt.Fprintf(x.w, "[%s] %s", x.prefix, string(bs))
	return len(bs), nil
}

func NewXTermRedirector(name string, c xterm.Color) *StdWriters {
	return newXTermRedirector(name, c, os.Stdout, os.Stderr)
}

func newXTermRedirector(name string, c xterm.Color, stdout, stderr io.Writer) *StdWriters {
	if c == nil {
		c = xterm.NoColor
	}
	return &StdWriters{
		Stdout: &XtermWriter{
			prefix: xterm.For(stdout, c).S(name) + "::stdout",
			w:      stdout,
		},
		Stderr: &XtermWriter{
			prefix: xterm.For(stderr, c).S(name) + "::" + xterm.For(stderr, xterm.Warn).S("stderr"),
			w:      stderr,
		},
	}
}
