package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Member is what one process contributes to a split: its global rank, its
// node key and, for diagnostics, its host label.
type Member struct {
	Rank  int     `json:"rank"`
	Key   NodeKey `json:"key"`
	Label string  `json:"label,omitempty"`
}

func (m Member) String() string {
	if len(m.Label) > 0 {
		return fmt.Sprintf("%d@%s(%d)", m.Rank, m.Label, m.Key)
	}
	return fmt.Sprintf("%d(%d)", m.Rank, m.Key)
}

type MemberList []Member

func (ml MemberList) String() string {
	var parts []string
	for _, m := range ml {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, ",")
}

// Sorted returns a copy ordered by global rank.
func (ml MemberList) Sorted() MemberList {
	ql := make(MemberList, len(ml))
	copy(ql, ml)
	sort.SliceStable(ql, func(i, j int) bool { return ql[i].Rank < ql[j].Rank })
	return ql
}

// Split returns the members sharing key, ordered by global rank.
func (ml MemberList) Split(key NodeKey) MemberList {
	var ql MemberList
	for _, m := range ml.Sorted() {
		if m.Key == key {
			ql = append(ql, m)
		}
	}
	return ql
}

// Keys returns the distinct keys in ascending order.
func (ml MemberList) Keys() []NodeKey {
	set := make(map[NodeKey]struct{})
	var keys []NodeKey
	for _, m := range ml {
		if _, ok := set[m.Key]; !ok {
			set[m.Key] = struct{}{}
			keys = append(keys, m.Key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (ml MemberList) Partition() map[NodeKey]MemberList {
	groups := make(map[NodeKey]MemberList)
	for _, m := range ml.Sorted() {
		groups[m.Key] = append(groups[m.Key], m)
	}
	return groups
}

func (ml MemberList) Lookup(rank int) (Member, bool) {
	for _, m := range ml {
		if m.Rank == rank {
			return m, true
		}
	}
	return Member{}, false
}

// LocalRank is the ordinal of rank among the members sharing its key.
func (ml MemberList) LocalRank(rank int) (int, bool) {
	self, ok := ml.Lookup(rank)
	if !ok {
		return -1, false
	}
	for i, m := range ml.Split(self.Key) {
		if m.Rank == rank {
			return i, true
		}
	}
	return -1, false
}

var (
	ErrMissingRank   = errors.New("missing rank")
	ErrDuplicateRank = errors.New("duplicate rank")
	ErrRankOutOfSize = errors.New("rank out of range")
)

// Validate checks that ml holds exactly the ranks 0..size-1.
func (ml MemberList) Validate(size int) error {
	seen := make([]bool, size)
	for _, m := range ml {
		if m.Rank < 0 || m.Rank >= size {
			return errors.Wrapf(ErrRankOutOfSize, "rank %d, size %d", m.Rank, size)
		}
		if seen[m.Rank] {
			return errors.Wrapf(ErrDuplicateRank, "rank %d", m.Rank)
		}
		seen[m.Rank] = true
	}
	for r, ok := range seen {
		if !ok {
			return errors.Wrapf(ErrMissingRank, "rank %d", r)
		}
	}
	return nil
}

// NodeGroup is the group of one process after a split. Rank is the local
// ordinal of that process within Members.
type NodeGroup struct {
	Key     NodeKey    `json:"key"`
	Size    int        `json:"size"`
	Rank    int        `json:"rank"`
	Members MemberList `json:"members"`
}

func (g NodeGroup) String() string {
	return fmt.Sprintf("group{key=%d, rank=%d/%d, members=%s}", g.Key, g.Rank, g.Size, g.Members)
}

// GroupOf returns the group of the given global rank.
func (ml MemberList) GroupOf(rank int) (*NodeGroup, error) {
	self, ok := ml.Lookup(rank)
	if !ok {
		return nil, errors.Wrapf(ErrMissingRank, "rank %d", rank)
	}
	members := ml.Split(self.Key)
	localRank, _ := members.Rank(rank)
	return &NodeGroup{
		Key:     self.Key,
		Size:    len(members),
		Rank:    localRank,
		Members: members,
	}, nil
}

// Rank is the position of the given global rank in ml.
func (ml MemberList) Rank(rank int) (int, bool) {
	for i, m := range ml {
		if m.Rank == rank {
			return i, true
		}
	}
	return -1, false
}
