package job

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/lsds/accbind/srcs/go/accel"
	"github.com/lsds/accbind/srcs/go/config"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/lsds/accbind/srcs/go/proc"
	"github.com/lsds/accbind/srcs/go/procgroup/env"
)

// Job is a program started np times on the hosts of HostList, all
// processes meeting at the same rendezvous server.
type Job struct {
	ID         string
	Rendezvous string
	HostList   plan.HostList
	Prog       string
	Args       []string
	LogDir     string
	Envs       proc.Envs
}

func NewID() string {
	return uuid.NewString()
}

// NewProc gives the process the identity of p and, when the host of p is
// simulated, its label and device count.
func (j Job) NewProc(p plan.Placement) proc.Proc {
	envs := proc.Envs{
		env.RankEnvKey:          strconv.Itoa(p.Rank),
		env.SizeEnvKey:          strconv.Itoa(p.Size),
		env.JobIDEnvKey:         j.ID,
		env.ProcessorNameEnvKey: p.Host.Label,
	}
	if len(j.Rendezvous) > 0 {
		envs[env.RendezvousEnvKey] = j.Rendezvous
	}
	if p.Host.Devices >= 0 {
		envs[accel.FakeDevicesEnvKey] = strconv.Itoa(p.Host.Devices)
	}
	allEnvs := proc.Merge(j.Envs, envs)
	for k, v := range getConfigEnvs() {
		allEnvs.AddIfMissing(k, v)
	}
	return proc.Proc{
		Name:   p.Name(),
		Prog:   j.Prog,
		Args:   j.Args,
		Envs:   allEnvs,
		LogDir: j.LogDir,
	}
}

func (j Job) CreateProcs(np int) ([]proc.Proc, error) {
	placements, err := j.HostList.Place(np)
	if err != nil {
		return nil, err
	}
	var ps []proc.Proc
	for _, p := range placements {
		ps = append(ps, j.NewProc(p))
	}
	return ps, nil
}

var lookupEnv = os.LookupEnv

func getConfigEnvs() proc.Envs {
	envs := make(proc.Envs)
	for _, k := range config.ConfigEnvKeys {
		if val, ok := lookupEnv(k); ok && len(val) > 0 {
			envs[k] = val
		}
	}
	return envs
}

func (j Job) DebugString() string {
	return fmt.Sprintf("job{id=%s, hosts=%s, prog=%s, args=%q}", j.ID, j.HostList, j.Prog, j.Args)
}
