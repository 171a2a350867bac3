package env

// Environment variables set by accbind-run; users may set them to join a
// job started otherwise.
const (
	RankEnvKey          = `ACCBIND_RANK`
	SizeEnvKey          = `ACCBIND_SIZE`
	RendezvousEnvKey    = `ACCBIND_RENDEZVOUS`
	JobIDEnvKey         = `ACCBIND_JOB_ID`
	ProcessorNameEnvKey = `ACCBIND_PROCESSOR_NAME`
)

type identitySource struct {
	name    string
	rankKey string
	sizeKey string
}

// identitySources are tried in order, the first one whose rank is set wins.
var identitySources = []identitySource{
	{name: `accbind`, rankKey: RankEnvKey, sizeKey: SizeEnvKey},
	{name: `openmpi`, rankKey: `OMPI_COMM_WORLD_RANK`, sizeKey: `OMPI_COMM_WORLD_SIZE`},
	{name: `pmi`, rankKey: `PMI_RANK`, sizeKey: `PMI_SIZE`},
	{name: `slurm`, rankKey: `SLURM_PROCID`, sizeKey: `SLURM_NTASKS`},
}

// jobIDSources name the launch in environments that do not set
// ACCBIND_JOB_ID, so that consecutive launches use different rounds.
var jobIDSources = []struct {
	prefix string
	key    string
}{
	{prefix: `openmpi-`, key: `OMPI_MCA_ess_base_jobid`},
	{prefix: `pmix-`, key: `PMIX_NAMESPACE`},
	{prefix: `slurm-`, key: `SLURM_JOB_ID`},
}

const DefaultJobID = `default`
