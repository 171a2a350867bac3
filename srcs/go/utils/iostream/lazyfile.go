package iostream

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// lazyFile creates its file on the first Write, so that silent processes
// leave no empty logs behind.
type lazyFile struct {
	sync.Mutex
	name string
	f    *os.File
	err  error
}

func NewLazyFile(filename string) io.WriteCloser {
	return &lazyFile{name: filename}
}

func (f *lazyFile) Write(bs []byte) (int, error) {
	f.Lock()
	defer f.Unlock()
	if f.f == nil && f.err == nil {
		f.err = f.create()
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.f.Write(bs)
}

func (f *lazyFile) Close() error {
	f.Lock()
	defer f.Unlock()
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *lazyFile) create() error {
	if err := os.MkdirAll(filepath.Dir(f.name), os.ModePerm); err != nil {
		return err
	}
	var err error
	f.f, err = os.Create(f.name)
	return err
}

func NewFileRedirector(name string) *StdWriters {
	return &StdWriters{
		Stdout: NewLazyFile(name + ".stdout.log"),
		Stderr: NewLazyFile(name + ".stderr.log"),
	}
}

// Close closes the writers that are closers.
func (w *StdWriters) Close() {
	for _, x := range []io.Writer{w.Stdout, w.Stderr} {
		if c, ok := x.(io.Closer); ok {
			c.Close()
		}
	}
}
