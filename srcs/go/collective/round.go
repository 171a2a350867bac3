package collective

import (
	"sync"

	"github.com/lsds/accbind/srcs/go/plan"
	"github.com/pkg/errors"
)

// Round collects the members of one split call of a group of Size
// processes.
type Round struct {
	sync.Mutex
	Seq  int
	Size int

	members plan.MemberList
	freed   map[int]struct{}
	done    chan struct{}
}

func NewRound(seq, size int) *Round {
	return &Round{
		Seq:   seq,
		Size:  size,
		freed: make(map[int]struct{}),
		done:  make(chan struct{}),
	}
}

// Join registers m. Joining again with the same key is a no-op so that
// retried requests are harmless.
func (r *Round) Join(m plan.Member, size int) error {
	r.Lock()
	defer r.Unlock()
	if size != r.Size {
		return errors.Wrapf(ErrSizeMismatch, "round %d: %d != %d", r.Seq, size, r.Size)
	}
	if err := (plan.ProcessIdentity{Rank: m.Rank, Size: size}).Validate(); err != nil {
		return err
	}
	if prev, ok := r.members.Lookup(m.Rank); ok {
		if prev.Key != m.Key {
			return errors.Wrapf(ErrKeyMismatch, "round %d, rank %d: %d != %d", r.Seq, m.Rank, prev.Key, m.Key)
		}
		return nil
	}
	r.members = append(r.members, m)
	if len(r.members) == r.Size {
		close(r.done)
	}
	return nil
}

func (r *Round) Done() <-chan struct{} {
	return r.done
}

func (r *Round) Complete() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Joined returns the number of processes that joined so far.
func (r *Round) Joined() int {
	r.Lock()
	defer r.Unlock()
	return len(r.members)
}

// GroupOf returns the group of rank; the round must be complete.
func (r *Round) GroupOf(rank int) (*plan.NodeGroup, error) {
	if !r.Complete() {
		return nil, errors.Errorf("round %d incomplete", r.Seq)
	}
	r.Lock()
	defer r.Unlock()
	if err := r.members.Validate(r.Size); err != nil {
		return nil, errors.WithMessagef(err, "round %d", r.Seq)
	}
	return r.members.GroupOf(rank)
}

// Release marks rank's group as freed and reports whether every process
// has released the round. Ranks that never joined are ignored.
func (r *Round) Release(rank int) bool {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.members.Lookup(rank); !ok {
		return false
	}
	r.freed[rank] = struct{}{}
	return len(r.freed) == r.Size
}

// Members returns the members joined so far, ordered by global rank.
func (r *Round) Members() plan.MemberList {
	r.Lock()
	defer r.Unlock()
	return r.members.Sorted()
}
