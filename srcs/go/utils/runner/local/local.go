package local

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/proc"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/lsds/accbind/srcs/go/utils/iostream"
	"github.com/lsds/accbind/srcs/go/utils/xterm"
	"github.com/pkg/errors"
)

type Runner struct {
	Name          string
	Color         xterm.Color
	LogDir        string
	LogFilePrefix string
	VerboseLog    bool
}

func (r Runner) defaultRedirectors() []*iostream.StdWriters {
	var redirectors []*iostream.StdWriters
	if r.VerboseLog {
		redirectors = append(redirectors, iostream.NewXTermRedirector(r.Name, r.Color))
	}
	if len(r.LogDir) > 0 && len(r.LogFilePrefix) > 0 {
		redirectors = append(redirectors, iostream.NewFileRedirector(filepath.Join(r.LogDir, r.LogFilePrefix)))
	}
	return redirectors
}

// Run runs cmd to completion; it must have been created with a context.
func (r Runner) Run(cmd *exec.Cmd) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	defer stderr.Close()
	redirectors := r.defaultRedirectors()
	for _, w := range redirectors {
		defer w.Close()
	}
	var lastOut, lastErr iostream.LastLine
	redirectors = append(redirectors, &iostream.StdWriters{Stdout: &lastOut, Stderr: &lastErr})
	results := iostream.StdReaders{Stdout: stdout, Stderr: stderr}
	ioDone := results.Stream(redirectors...)
	if err := cmd.Start(); err != nil {
		return err
	}
	ioDone.Wait() // call this before cmd.Wait!
	if err := cmd.Wait(); err != nil {
		for _, l := range []*iostream.LastLine{&lastErr, &lastOut} {
			if line := strings.TrimSpace(l.String()); len(line) > 0 {
				return errors.WithMessagef(err, "last output %q", line)
			}
		}
		return err
	}
	return nil
}

// RunAll runs ps in parallel. The first failure kills the others.
func RunAll(ctx context.Context, ps []proc.Proc, verboseLog bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	errs := make([]error, len(ps))
	for i, p := range ps {
		wg.Add(1)
		go func(i int, p proc.Proc) {
			defer wg.Done()
			r := &Runner{
				Name:          p.Name,
				Color:         xterm.BasicColors.Choose(i),
				VerboseLog:    verboseLog,
				LogFilePrefix: strings.Replace(p.Name, "/", "-", -1),
				LogDir:        p.LogDir,
			}
			if err := r.Run(p.Cmd(ctx)); err != nil {
				if ctx.Err() != nil {
					log.Debugf("#<%s> stopped: %v", p.Name, err)
					errs[i] = errors.Wrapf(ctx.Err(), "#<%s>", p.Name)
					return
				}
				log.Errorf("#<%s> exited with error: %v", p.Name, err)
				errs[i] = errors.Wrapf(err, "#<%s>", p.Name)
				cancel()
			} else {
				log.Debugf("#<%s> finished successfully", p.Name)
			}
		}(i, p)
	}
	wg.Wait()
	return utils.MergeErrors(errs, utils.Pluralize(len(ps), "process", "processes"))
}
