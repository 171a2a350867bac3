package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

type StallDetector struct {
	name    string
	w       io.Writer
	tk      *time.Ticker
	stopped chan struct{}
	done    chan struct{}
}

// InstallStallDetector reports on stderr every period while the guarded
// operation has not called Stop.
func InstallStallDetector(name string, period time.Duration) *StallDetector {
	return installStallDetector(name, period, os.Stderr)
}

func installStallDetector(name string, period time.Duration, w io.Writer) *StallDetector {
	s := &StallDetector{
		name:    name,
		w:       w,
		tk:      time.NewTicker(period),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.start()
	return s
}

func (s *StallDetector) start() {
	defer close(s.done)
	t0 := time.Now()
	var hasStalled bool
	for {
		select {
		case <-s.tk.C:
			hasStalled = true
			fmt.Fprintf(s.w, "%s stalled for %s\n", s.name, time.Since(t0))
		case <-s.stopped:
			if hasStalled {
				fmt.Fprintf(s.w, "%s recovered after %s\n", s.name, time.Since(t0))
			}
			return
		}
	}
}

func (s *StallDetector) Stop() {
	s.tk.Stop()
	close(s.stopped)
	<-s.done
}
