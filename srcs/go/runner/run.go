package runner

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/lsds/accbind/srcs/go/collective/rendezvous"
	"github.com/lsds/accbind/srcs/go/job"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/lsds/accbind/srcs/go/utils/runner/local"
	"github.com/pkg/errors"
)

// SimpleRun starts f.NP processes on the simulated hosts of f and waits for
// all of them. Unless f names a rendezvous server, one is served from the
// current process for the duration of the job.
func SimpleRun(ctx context.Context, f *FlagSet) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	j := job.Job{
		ID:         job.NewID(),
		Rendezvous: f.Rendezvous,
		HostList:   f.Hosts,
		Prog:       f.Prog,
		Args:       f.Args,
		LogDir:     f.LogDir,
		Envs:       f.Envs,
	}
	if f.DryRun {
		return dryRun(j, f.NP)
	}
	if len(j.Rendezvous) == 0 && f.NP > 1 {
		url, stop, err := serveRendezvous(ctx, f.Listen)
		if err != nil {
			return err
		}
		defer stop()
		j.Rendezvous = url
	}
	procs, err := j.CreateProcs(f.NP)
	if err != nil {
		return err
	}
	log.Infof("will parallel run %s of %s with %q", utils.Pluralize(len(procs), "instance", "instances"), j.Prog, j.Args)
	log.Debugf("%s", j.DebugString())
	d, err := utils.Measure(func() error { return local.RunAll(ctx, procs, !f.Quiet) })
	log.Infof("all %d processes finished, took %s", len(procs), d)
	if len(f.Rendezvous) > 0 {
		if err := rendezvous.NewClient(f.Rendezvous, j.ID).DeleteJob(context.Background()); err != nil {
			log.Debugf("job %s not deleted: %v", j.ID, err)
		}
	}
	return err
}

var stdout io.Writer = os.Stdout

// dryRun prints a shell command per process. Without --rendezvous, the
// address of the server accbind-run would start is unknown and left out.
func dryRun(j job.Job, np int) error {
	procs, err := j.CreateProcs(np)
	if err != nil {
		return err
	}
	for _, p := range procs {
		fmt.Fprintf(stdout, "# %s\n%s", p.Name, p.Script())
	}
	return nil
}

func serveRendezvous(ctx context.Context, addr string) (string, func(), error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrap(err, "embedded rendezvous")
	}
	ctx, cancel := context.WithCancel(ctx)
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := rendezvous.NewServer(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx, l); err != nil {
			log.Errorf("%v", err)
		}
	}()
	stop := func() {
		cancel()
		<-done
	}
	return "http://" + l.Addr().String(), stop, nil
}
