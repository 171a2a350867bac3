package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	flags "github.com/jessevdk/go-flags"
	"github.com/lsds/accbind/srcs/go/collective/rendezvous"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/utils"
)

type cliOptions struct {
	Listen string        `short:"l" long:"listen" default:":9100" description:"address to listen on"`
	TTL    time.Duration `long:"ttl" default:"1h" description:"forget jobs idle for this long"`
	Debug  bool          `short:"d" long:"debug" description:"enable debug output"`
	Time   bool          `long:"timestamp" description:"prefix log lines with the time since start"`
}

func main() {
	var opts cliOptions
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	gin.SetMode(gin.ReleaseMode)
	if opts.Time {
		log.SetFlags(log.ShowTimestamp)
	}
	if opts.Debug {
		log.SetLevel(log.Debug)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.Trap(func(sig os.Signal) {
		log.Infof("%s received, shutting down", sig)
		cancel()
	})
	l, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		utils.ExitErr(err)
	}
	log.Infof("rendezvous server on %s, jobs expire after %s", l.Addr(), opts.TTL)
	if err := rendezvous.NewServer(opts.TTL).Serve(ctx, l); err != nil {
		utils.ExitErr(err)
	}
}
