package local

import (
	"context"
	"sync"

	"github.com/lsds/accbind/srcs/go/collective"
	"github.com/lsds/accbind/srcs/go/plan"
)

// Hub runs collectives among goroutines of the same OS process, each
// playing one rank. A Hub of size 1 never blocks.
type Hub struct {
	sync.Mutex
	size   int
	rounds map[int]*collective.Round
	next   map[int]int
}

func NewHub(size int) *Hub {
	return &Hub{
		size:   size,
		rounds: make(map[int]*collective.Round),
		next:   make(map[int]int),
	}
}

func (h *Hub) join(self plan.ProcessIdentity, m plan.Member) (*collective.Round, error) {
	h.Lock()
	defer h.Unlock()
	seq := h.next[self.Rank]
	r, ok := h.rounds[seq]
	if !ok {
		r = collective.NewRound(seq, h.size)
		h.rounds[seq] = r
	}
	if err := r.Join(m, self.Size); err != nil {
		return nil, err
	}
	h.next[self.Rank]++
	return r, nil
}

func (h *Hub) SplitByKey(ctx context.Context, self plan.ProcessIdentity, key plan.NodeKey, label string) (*collective.Group, error) {
	r, err := h.join(self, plan.Member{Rank: self.Rank, Key: key, Label: label})
	if err != nil {
		return nil, err
	}
	select {
	case <-r.Done():
	case <-ctx.Done():
		return nil, collective.Interrupted(ctx, "local split")
	}
	g, err := r.GroupOf(self.Rank)
	if err != nil {
		return nil, err
	}
	return collective.NewGroup(*g, func() { h.release(r, self.Rank) }), nil
}

func (h *Hub) release(r *collective.Round, rank int) {
	if r.Release(rank) {
		h.Lock()
		delete(h.rounds, r.Seq)
		h.Unlock()
	}
}

// Pending is the number of rounds not yet released by every rank.
func (h *Hub) Pending() int {
	h.Lock()
	defer h.Unlock()
	return len(h.rounds)
}
