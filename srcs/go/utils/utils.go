package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

func ProgName() string {
	return path.Base(os.Args[0])
}

func LogArgs() {
	for i, a := range os.Args {
		fmt.Printf("[arg] [%d]=%s\n", i, a)
	}
}

func LogEnvWithPrefix(prefix string, logPrefix string) {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			fmt.Printf("[%s]: %s\n", logPrefix, kv)
		}
	}
}

func LogCudaEnv() {
	LogEnvWithPrefix(`CUDA_`, `cuda-env`)
}

func LogAccbindEnv() {
	LogEnvWithPrefix(`ACCBIND_`, `accbind-env`)
}

func Measure(f func() error) (time.Duration, error) {
	t0 := time.Now()
	err := f()
	d := time.Since(t0)
	return d, err
}

// ListDeviceNodes returns the names of /dev entries of the form <prefix><N>,
// ordered by N.
func ListDeviceNodes(devDir, prefix string) []string {
	files, err := filepath.Glob(filepath.Join(devDir, prefix+`*`))
	if err != nil {
		return nil
	}
	type node struct {
		name string
		id   int
	}
	var nodes []node
	for _, file := range files {
		name := filepath.Base(file)
		suffix := strings.TrimPrefix(name, prefix)
		id, err := strconv.Atoi(suffix)
		if err != nil || id < 0 || strconv.Itoa(id) != suffix {
			continue // nvidiactl, nvidia-uvm, ...
		}
		nodes = append(nodes, node{name: name, id: id})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	var names []string
	for _, n := range nodes {
		names = append(names, n.name)
	}
	return names
}

func pluralize(n int, singular, plural string) string {
	if n > 1 {
		return plural
	}
	return singular
}

func Pluralize(n int, singular, plural string) string {
	return fmt.Sprintf("%d %s", n, pluralize(n, singular, plural))
}
