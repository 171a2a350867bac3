package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/runner"
	"github.com/lsds/accbind/srcs/go/utils"
	"github.com/pkg/errors"
)

func main() {
	var f runner.FlagSet
	if err := f.Parse(os.Args[1:]); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			fmt.Println(fe.Message)
			os.Exit(0)
		}
		utils.ExitErr(err)
	}
	if f.Timestamp {
		log.SetFlags(log.ShowTimestamp)
	}
	if !f.Quiet {
		utils.LogArgs()
		utils.LogAccbindEnv()
	}
	t0 := time.Now()
	defer func(prog string) { log.Infof("%s took %s", prog, time.Since(t0)) }(utils.ProgName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.Trap(func(sig os.Signal) {
		log.Warnf("%s received, stopping all processes", sig)
		cancel()
	})
	if err := runner.SimpleRun(ctx, &f); err != nil {
		utils.ExitErr(err)
	}
}
