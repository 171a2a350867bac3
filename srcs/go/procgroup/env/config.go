package env

import (
	"os"
	"strconv"

	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

var lookupEnv = os.LookupEnv

var ErrNoRendezvous = errors.New("no rendezvous server for a multi-process job")

type Config struct {
	Self          plan.ProcessIdentity
	Rendezvous    string
	JobID         string
	ProcessorName string

	// Source names the environment the identity was taken from.
	Source string
	Single bool
}

func ParseConfigFromEnv() (*Config, error) {
	src, self, err := getSelfFromEnv()
	if err != nil {
		return nil, err
	}
	if src == nil {
		cfg := SingleProcessEnv()
		cfg.ProcessorName = getenv(ProcessorNameEnvKey)
		return cfg, nil
	}
	cfg := &Config{
		Self:          *self,
		Rendezvous:    getenv(RendezvousEnvKey),
		JobID:         getJobIDFromEnv(),
		ProcessorName: getenv(ProcessorNameEnvKey),
		Source:        src.name,
		Single:        self.Size == 1,
	}
	if !cfg.Single && len(cfg.Rendezvous) == 0 {
		return nil, errors.Wrapf(ErrNoRendezvous, "%s of %d processes, set %s", src.name, self.Size, RendezvousEnvKey)
	}
	return cfg, nil
}

func SingleProcessEnv() *Config {
	return &Config{
		Self:   plan.ProcessIdentity{Rank: 0, Size: 1},
		JobID:  DefaultJobID,
		Single: true,
	}
}

func getSelfFromEnv() (*identitySource, *plan.ProcessIdentity, error) {
	for i := range identitySources {
		src := &identitySources[i]
		rankVal, ok := lookupEnv(src.rankKey)
		if !ok {
			continue
		}
		sizeVal, ok := lookupEnv(src.sizeKey)
		if !ok {
			return nil, nil, errors.Errorf("%s is set but %s is not", src.rankKey, src.sizeKey)
		}
		rank, err := strconv.Atoi(rankVal)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid %s", src.rankKey)
		}
		size, err := strconv.Atoi(sizeVal)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid %s", src.sizeKey)
		}
		self := plan.ProcessIdentity{Rank: rank, Size: size}
		if err := self.Validate(); err != nil {
			return nil, nil, errors.WithMessagef(err, "from %s", src.name)
		}
		return src, &self, nil
	}
	return nil, nil, nil
}

func getJobIDFromEnv() string {
	if id := getenv(JobIDEnvKey); len(id) > 0 {
		return id
	}
	for _, src := range jobIDSources {
		id := getenv(src.key)
		if len(id) == 0 {
			continue
		}
		if src.key == `SLURM_JOB_ID` {
			if step := getenv(`SLURM_STEP_ID`); len(step) > 0 {
				id += `.` + step
			}
		}
		return src.prefix + id
	}
	return DefaultJobID
}

func getenv(key string) string {
	val, _ := lookupEnv(key)
	return val
}
