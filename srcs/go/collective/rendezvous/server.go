package rendezvous

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lsds/accbind/srcs/go/collective"
	"github.com/lsds/accbind/srcs/go/config"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/monitor"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/pkg/errors"
)

const (
	DefaultTTL = time.Hour
	maxWait    = 30 * time.Second
)

type job struct {
	id      string
	size    int
	rounds  map[int]*collective.Round
	touched time.Time
}

// Server holds the split rounds of any number of jobs. Every process of a
// job joins round 0, 1, ... in order; a round completes once all of them
// have joined.
type Server struct {
	sync.Mutex
	jobs    map[string]*job
	ttl     time.Duration
	now     func() time.Time
	metrics *monitor.Metrics
	engine  *gin.Engine
}

func NewServer(ttl time.Duration) *Server {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Server{
		jobs:    make(map[string]*job),
		ttl:     ttl,
		now:     time.Now,
		metrics: monitor.NewMetrics(),
	}
	s.engine = s.newEngine()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Metrics() *monitor.Metrics {
	return s.metrics
}

// Serve runs the server on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.sweepLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Debugf("rendezvous listening on %s", l.Addr())
	if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "rendezvous server")
	}
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	tk := time.NewTicker(s.ttl / 4)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			if n := s.Sweep(); n > 0 {
				log.Infof("dropped %s idle for %s", utils.Pluralize(n, "job", "jobs"), s.ttl)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep forgets jobs idle for longer than the TTL.
func (s *Server) Sweep() int {
	s.Lock()
	defer s.Unlock()
	var n int
	now := s.now()
	for id, j := range s.jobs {
		if now.Sub(j.touched) > s.ttl {
			s.dropJob(id)
			n++
		}
	}
	return n
}

var (
	errUnknownRound = errors.New("unknown round")
	errUnknownJob   = errors.New("unknown job")
)

func (s *Server) join(jobID string, seq int, req JoinRequest) (*collective.Round, error) {
	s.Lock()
	defer s.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		j = &job{id: jobID, size: req.Size, rounds: make(map[int]*collective.Round)}
		s.jobs[jobID] = j
		s.metrics.Jobs.Set(float64(len(s.jobs)))
		log.Debugf("new job %s of %d processes", jobID, req.Size)
	}
	j.touched = s.now()
	if req.Size != j.size {
		return nil, errors.Wrapf(collective.ErrSizeMismatch, "job %s has %d processes, rank %d claims %d", jobID, j.size, req.Rank, req.Size)
	}
	r, ok := j.rounds[seq]
	if !ok {
		r = collective.NewRound(seq, j.size)
		j.rounds[seq] = r
		s.metrics.PendingRounds.Inc()
	}
	before := r.Joined()
	if err := r.Join(plan.Member{Rank: req.Rank, Key: req.Key, Label: req.Label}, req.Size); err != nil {
		return nil, err
	}
	if r.Joined() > before {
		s.metrics.MembersJoined.Inc()
		if r.Complete() {
			s.metrics.PendingRounds.Dec()
			s.metrics.SplitsCompleted.Inc()
			ml := r.Members()
			keys := ml.Keys()
			log.Debugf("job %s: round %d complete over %s %v: %s", jobID, seq, utils.Pluralize(len(keys), "node", "nodes"), keys, ml)
		}
	}
	return r, nil
}

func (s *Server) round(jobID string, seq int) (*collective.Round, error) {
	s.Lock()
	defer s.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.Wrapf(errUnknownJob, "%s", jobID)
	}
	r, ok := j.rounds[seq]
	if !ok {
		return nil, errors.Wrapf(errUnknownRound, "job %s, round %d", jobID, seq)
	}
	j.touched = s.now()
	return r, nil
}

func (s *Server) release(jobID string, seq, rank int) error {
	r, err := s.round(jobID, seq)
	if err != nil {
		return err
	}
	if !r.Release(rank) {
		return nil
	}
	s.Lock()
	defer s.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	delete(j.rounds, seq)
	// a job without rounds is over, its id may be reused with another size
	if len(j.rounds) == 0 {
		s.dropJob(jobID)
		log.Debugf("job %s: all rounds released", jobID)
	}
	return nil
}

func (s *Server) deleteJob(jobID string) bool {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return false
	}
	s.dropJob(jobID)
	return true
}

func (s *Server) dropJob(jobID string) {
	for _, r := range s.jobs[jobID].rounds {
		if !r.Complete() {
			s.metrics.PendingRounds.Dec()
		}
	}
	delete(s.jobs, jobID)
	s.metrics.Jobs.Set(float64(len(s.jobs)))
}

func parseWait(val string) time.Duration {
	d := config.PollInterval
	if len(val) > 0 {
		if v, err := time.ParseDuration(val); err == nil && v >= 0 {
			d = v
		}
	}
	if d > maxWait {
		d = maxWait
	}
	return d
}

func itoa(n int) string { return strconv.Itoa(n) }
