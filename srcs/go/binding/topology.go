// Package binding assigns each process of a job one accelerator of the
// node it runs on. Processes are grouped by the node key found in their
// host label, and binding succeeds only where a node group has exactly one
// process per device.
package binding

import (
	"context"
	"fmt"

	"github.com/lsds/accbind/srcs/go/collective"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

// World is the part of the process group the resolver needs.
type World interface {
	Rank() int
	Size() int
	ProcessorName() string
	Split(ctx context.Context, key plan.NodeKey) (*collective.Group, error)
}

// Topology is what a process learns about its node group.
type Topology struct {
	GlobalRank int
	GlobalSize int
	Label      string
	Key        plan.NodeKey
	GroupSize  int
	LocalRank  int
}

func (t Topology) String() string {
	return fmt.Sprintf("process %d/%d on %s (key %d): local rank %d of %d", t.GlobalRank, t.GlobalSize, t.Label, t.Key, t.LocalRank, t.GroupSize)
}

// ResolveTopology is collective: it returns only once every process of w
// has called it, or ctx is done.
func ResolveTopology(ctx context.Context, w World) (*Topology, error) {
	label := plan.ParseHostLabel(w.ProcessorName())
	key := plan.ExtractNodeKey(label)
	g, err := w.Split(ctx, key)
	if err != nil {
		return nil, errors.WithMessagef(err, "split by node key %d of %q", key, label)
	}
	defer g.Free()
	t := &Topology{
		GlobalRank: w.Rank(),
		GlobalSize: w.Size(),
		Label:      label,
		Key:        key,
		GroupSize:  g.Size,
		LocalRank:  g.Rank,
	}
	log.Infof("Process %d (in world): split group has %d processes", t.GlobalRank, t.GroupSize)
	log.Debugf("%s, group %s", t, g.Members)
	return t, nil
}
