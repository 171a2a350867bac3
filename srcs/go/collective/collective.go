// Package collective defines the split-by-key collective that derives node
// groups from a global process group.
//
// A collective call blocks until every process of the group has made the
// same call. A process that never calls blocks all others; the context
// passed to a call is the only way out, and a cancelled call leaves the
// round unusable for the rest of the job.
package collective

import (
	"context"
	"sync"

	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

type Collective interface {
	// SplitByKey joins the next split round of self's group with key and
	// returns the group of processes that supplied the same key.
	SplitByKey(ctx context.Context, self plan.ProcessIdentity, key plan.NodeKey, label string) (*Group, error)
}

var (
	ErrCollectiveTimeout = errors.New("collective operation interrupted before all processes joined")
	ErrSizeMismatch      = errors.New("processes disagree on group size")
	ErrKeyMismatch       = errors.New("rank joined twice with different keys")
)

// Group is the caller's sub-group from a split. Free releases it.
type Group struct {
	plan.NodeGroup
	once sync.Once
	free func()
}

func NewGroup(g plan.NodeGroup, free func()) *Group {
	return &Group{NodeGroup: g, free: free}
}

func (g *Group) Free() {
	g.once.Do(func() {
		if g.free != nil {
			g.free()
		}
	})
}

// Interrupted wraps the reason a context ended a collective call.
func Interrupted(ctx context.Context, op string) error {
	return errors.Wrapf(ErrCollectiveTimeout, "%s: %v", op, ctx.Err())
}
