package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/lsds/accbind/srcs/go/accel"
	"github.com/lsds/accbind/srcs/go/binding"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/procgroup"
	"github.com/lsds/accbind/srcs/go/procgroup/env"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/lsds/accbind/srcs/go/utils/xterm"
	"github.com/pkg/errors"
)

type cliOptions struct {
	Kind    accel.DeviceKind `short:"k" long:"device-kind" default:"nvidia" description:"kind of device to bind to (nvidia|host)"`
	Backend string           `short:"b" long:"backend" default:"auto" choice:"auto" choice:"devfs" choice:"nvml" choice:"fake" description:"how to discover the devices of the node"`
	Timeout time.Duration    `long:"timeout" description:"give up waiting for the other processes after this duration"`
	Debug   bool             `short:"d" long:"debug" description:"enable debug output"`
	Time    bool             `long:"timestamp" description:"prefix log lines with the time since start"`
}

func main() {
	var opts cliOptions
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if opts.Time {
		log.SetFlags(log.ShowTimestamp)
	}
	if opts.Debug {
		log.SetLevel(log.Debug)
		utils.LogAccbindEnv()
		utils.LogCudaEnv()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	utils.Trap(func(sig os.Signal) {
		log.Warnf("%s received", sig)
		cancel()
	})

	cfg, err := env.ParseConfigFromEnv()
	if err != nil {
		log.Exitf("%v", err)
	}
	w, err := procgroup.Init(ctx, cfg)
	if err != nil {
		log.Exitf("%v", err)
	}
	log.Debugf("process %s of job %s on %q, identity from %s env", w.Identity(), cfg.JobID, w.ProcessorName(), cfg.Source)
	acc, err := accel.Open(opts.Backend)
	if err != nil {
		log.Exitf("%v", err)
	}
	if _, err := binding.Init(ctx, w, acc, opts.Kind); err != nil {
		fail(err)
	}
	if err := acc.Shutdown(); err != nil {
		log.Warnf("%v", err)
	}
	if err := w.Finalize(); err != nil {
		log.Exitf("%v", err)
	}
}

func fail(err error) {
	if errors.Is(err, binding.ErrDeviceMappingMismatch) {
		fmt.Println(xterm.For(os.Stdout, xterm.Failure).S(" unsuccessful mapping "))
	}
	log.Exitf("%v", err)
}
