package runner

import (
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/lsds/accbind/srcs/go/job"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/lsds/accbind/srcs/go/plan/hostfile"
	"github.com/lsds/accbind/srcs/go/proc"
	"github.com/pkg/errors"
)

type FlagSet struct {
	NP         int           `short:"n" long:"np" description:"number of processes, defaults to the number of slots"`
	Hosts      plan.HostList `short:"H" long:"hosts" description:"comma separated list of <label>[:<slots>[:<devices>]]"`
	HostFile   string        `long:"hostfile" description:"path to hostfile, overrides -H"`
	JobFile    string        `long:"job" description:"path to a YAML job file"`
	Rendezvous string        `long:"rendezvous" description:"URL of a running rendezvous server, one is started if empty"`
	Listen     string        `long:"listen" default:"127.0.0.1:0" description:"listen address of the embedded rendezvous server"`
	LogDir     string        `long:"logdir" description:"write the output of each process to this directory"`
	Timeout    time.Duration `long:"timeout" description:"kill all processes after this duration"`
	Quiet      bool          `short:"q" long:"quiet" description:"don't show the output of processes"`
	DryRun     bool          `long:"dry-run" description:"print the command of each process instead of running it"`
	Timestamp  bool          `long:"timestamp" description:"prefix log lines with the time since start"`

	Prog string
	Args []string
	Envs proc.Envs
}

var errMissingProgramName = errors.New("missing program name")

// Parse reads flags up to the program name; the rest are program args.
func (f *FlagSet) Parse(args []string) error {
	p := flags.NewParser(f, flags.HelpFlag|flags.PassDoubleDash|flags.PassAfterNonOption)
	p.Usage = "[OPTIONS] prog [args...]"
	rest, err := p.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(f.JobFile) > 0 {
		if err := f.applyJobFile(); err != nil {
			return err
		}
	}
	if len(rest) > 0 {
		f.Prog, f.Args = rest[0], rest[1:]
	}
	if len(f.Prog) == 0 {
		return errMissingProgramName
	}
	return f.resolveHostList()
}

// applyJobFile fills what the command line left unset.
func (f *FlagSet) applyJobFile() error {
	s, err := job.LoadSpec(f.JobFile)
	if err != nil {
		return err
	}
	if f.NP == 0 {
		f.NP = s.NP
	}
	if len(f.Hosts) == 0 {
		if f.Hosts, err = s.HostList(); err != nil {
			return err
		}
	}
	if len(f.LogDir) == 0 {
		f.LogDir = s.LogDir
	}
	f.Prog, f.Args = s.Prog, s.Args
	f.Envs = s.Env
	return nil
}

var hostname = os.Hostname

func (f *FlagSet) resolveHostList() error {
	if len(f.HostFile) > 0 {
		hl, err := hostfile.ParseFile(f.HostFile)
		if err != nil {
			return err
		}
		f.Hosts = hl
	}
	if len(f.Hosts) == 0 {
		name, err := hostname()
		if err != nil {
			return err
		}
		slots := f.NP
		if slots <= 0 {
			slots = 1
		}
		f.Hosts = plan.HostList{{Label: name, Slots: slots, Devices: -1}}
	}
	if f.NP == 0 {
		f.NP = f.Hosts.Cap()
	}
	return nil
}
