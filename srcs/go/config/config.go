package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	EnableMetricsEnvKey        = `ACCBIND_CONFIG_ENABLE_METRICS`
	EnableStallDetectionEnvKey = `ACCBIND_CONFIG_ENABLE_STALL_DETECTION`
	LogLevelEnvKey             = `ACCBIND_CONFIG_LOG_LEVEL`
	SplitTimeoutEnvKey         = `ACCBIND_CONFIG_SPLIT_TIMEOUT`
	PollIntervalEnvKey         = `ACCBIND_CONFIG_POLL_INTERVAL`
)

// ConfigEnvKeys are forwarded by the launcher to every process it starts.
var ConfigEnvKeys = []string{
	EnableMetricsEnvKey,
	EnableStallDetectionEnvKey,
	LogLevelEnvKey,
	SplitTimeoutEnvKey,
	PollIntervalEnvKey,
}

var (
	EnableMetrics        = true
	EnableStallDetection = false
	LogLevel             = `INFO`

	// SplitTimeout bounds a collective split. Zero waits forever.
	SplitTimeout time.Duration = 0
	PollInterval               = 5 * time.Second
)

var lookupEnv = os.LookupEnv

func init() {
	if err := load(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid accbind config: %v\n", err)
		os.Exit(1)
	}
}

func load() error {
	if val, ok := lookupEnv(EnableMetricsEnvKey); ok && len(val) > 0 {
		EnableMetrics = isTrue(val)
	}
	if val, ok := lookupEnv(EnableStallDetectionEnvKey); ok && len(val) > 0 {
		EnableStallDetection = isTrue(val)
	}
	if val, ok := lookupEnv(LogLevelEnvKey); ok && len(val) > 0 {
		level := strings.ToUpper(val)
		switch level {
		case `DEBUG`, `INFO`, `WARN`, `ERROR`:
			LogLevel = level
		default:
			return errors.Errorf("%s: unknown level %q", LogLevelEnvKey, val)
		}
	}
	if val, ok := lookupEnv(SplitTimeoutEnvKey); ok && len(val) > 0 {
		d, err := time.ParseDuration(val)
		if err != nil {
			return errors.Wrap(err, SplitTimeoutEnvKey)
		}
		SplitTimeout = d
	}
	if val, ok := lookupEnv(PollIntervalEnvKey); ok && len(val) > 0 {
		d, err := time.ParseDuration(val)
		if err != nil {
			return errors.Wrap(err, PollIntervalEnvKey)
		}
		if d <= 0 {
			return errors.Errorf("%s must be positive", PollIntervalEnvKey)
		}
		PollInterval = d
	}
	return nil
}

func isTrue(val string) bool {
	return val == "true" || val == "1"
}
