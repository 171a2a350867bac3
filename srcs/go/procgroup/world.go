// Package procgroup is the process-group handle of a job: who the current
// process is, which host it runs on, and how it reaches the others.
package procgroup

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lsds/accbind/srcs/go/collective"
	"github.com/lsds/accbind/srcs/go/collective/local"
	"github.com/lsds/accbind/srcs/go/collective/rendezvous"
	"github.com/lsds/accbind/srcs/go/config"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/lsds/accbind/srcs/go/procgroup/env"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/pkg/errors"
)

var ErrFinalized = errors.New("process group already finalized")

var hostname = os.Hostname

const stallReportPeriod = 10 * time.Second

type World struct {
	sync.Mutex
	self      plan.ProcessIdentity
	name      string
	coll      collective.Collective
	finalized bool
}

// New creates a World over an existing collective.
func New(self plan.ProcessIdentity, processorName string, coll collective.Collective) (*World, error) {
	if err := self.Validate(); err != nil {
		return nil, err
	}
	return &World{self: self, name: processorName, coll: coll}, nil
}

// Init joins the process group described by cfg. For a multi-process job it
// waits until the rendezvous server answers or ctx is done.
func Init(ctx context.Context, cfg *env.Config) (*World, error) {
	name := cfg.ProcessorName
	if len(name) == 0 {
		h, err := hostname()
		if err != nil {
			return nil, errors.Wrap(err, "processor name")
		}
		name = h
	}
	var coll collective.Collective
	if cfg.Single {
		coll = local.NewHub(cfg.Self.Size)
	} else {
		if err := waitRendezvous(ctx, cfg.Rendezvous); err != nil {
			return nil, err
		}
		coll = rendezvous.NewClient(cfg.Rendezvous, cfg.JobID)
	}
	w, err := New(cfg.Self, name, coll)
	if err != nil {
		return nil, err
	}
	log.Debugf("process %s initialized on %s (%s)", cfg.Self, name, sourceOf(cfg))
	return w, nil
}

func sourceOf(cfg *env.Config) string {
	if len(cfg.Source) == 0 {
		return "single process"
	}
	return "from " + cfg.Source
}

func waitRendezvous(ctx context.Context, url string) error {
	tk := time.NewTicker(200 * time.Millisecond)
	defer tk.Stop()
	for {
		if rendezvous.Healthy(ctx, url) {
			return nil
		}
		select {
		case <-tk.C:
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "rendezvous %s is not reachable", url)
		}
	}
}

func (w *World) Rank() int {
	return w.self.Rank
}

func (w *World) Size() int {
	return w.self.Size
}

func (w *World) Identity() plan.ProcessIdentity {
	return w.self
}

func (w *World) ProcessorName() string {
	return w.name
}

// Split is collective: every process of the world must call it, in the
// same order. The returned group must be freed by the caller.
func (w *World) Split(ctx context.Context, key plan.NodeKey) (*collective.Group, error) {
	if w.isFinalized() {
		return nil, ErrFinalized
	}
	if config.SplitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.SplitTimeout)
		defer cancel()
	}
	if config.EnableStallDetection {
		name := fmt.Sprintf("split of process %s", w.self)
		defer utils.InstallStallDetector(name, stallReportPeriod).Stop()
	}
	return w.coll.SplitByKey(ctx, w.self, key, plan.ParseHostLabel(w.name))
}

func (w *World) isFinalized() bool {
	w.Lock()
	defer w.Unlock()
	return w.finalized
}

func (w *World) Finalize() error {
	w.Lock()
	defer w.Unlock()
	if w.finalized {
		return ErrFinalized
	}
	w.finalized = true
	return nil
}
