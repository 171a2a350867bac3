package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeMembers(labels ...string) MemberList {
	var ml MemberList
	for i, l := range labels {
		ml = append(ml, Member{Rank: i, Key: ExtractNodeKey(l), Label: l})
	}
	return ml
}

func Test_Split_sameKey(t *testing.T) {
	ml := fakeMembers("gpu1", "gpu1", "gpu1", "gpu1", "gpu1")
	assert.Len(t, ml.Split(1), len(ml))
	assert.Len(t, ml.Partition(), 1)
}

func Test_Partition_disjoint(t *testing.T) {
	ml := fakeMembers("node002", "node001", "node003", "node001", "node002", "node001")
	groups := ml.Partition()
	var total int
	seen := make(map[int]NodeKey)
	for key, g := range groups {
		total += len(g)
		for i, m := range g {
			if prev, ok := seen[m.Rank]; ok {
				t.Fatalf("rank %d in groups %d and %d", m.Rank, prev, key)
			}
			seen[m.Rank] = key
			assert.Equal(t, key, m.Key)
			if i > 0 {
				assert.Less(t, g[i-1].Rank, m.Rank, "ordered by rank")
			}
		}
	}
	assert.Equal(t, len(ml), total)
	assert.Equal(t, []NodeKey{1, 2, 3}, ml.Keys())
}

func Test_Split_ordersByRank(t *testing.T) {
	ml := MemberList{{Rank: 3, Key: 5}, {Rank: 0, Key: 5}, {Rank: 2, Key: 1}, {Rank: 1, Key: 5}}
	want := MemberList{{Rank: 0, Key: 5}, {Rank: 1, Key: 5}, {Rank: 3, Key: 5}}
	if diff := cmp.Diff(want, ml.Split(5)); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
	r, ok := ml.LocalRank(3)
	assert.True(t, ok)
	assert.Equal(t, 2, r)
	_, ok = ml.LocalRank(9)
	assert.False(t, ok)
}

func Test_GroupOf(t *testing.T) {
	ml := fakeMembers("node001", "node002", "node001", "node002")
	g, err := ml.GroupOf(2)
	require.NoError(t, err)
	assert.Equal(t, NodeKey(1), g.Key)
	assert.Equal(t, 2, g.Size)
	assert.Equal(t, 1, g.Rank)

	_, err = ml.GroupOf(7)
	assert.True(t, errors.Is(err, ErrMissingRank))
}

func Test_Validate(t *testing.T) {
	assert.NoError(t, fakeMembers("a", "b", "c").Validate(3))
	assert.True(t, errors.Is(fakeMembers("a", "b").Validate(3), ErrMissingRank))
	assert.True(t, errors.Is(fakeMembers("a", "b", "c").Validate(2), ErrRankOutOfSize))
	dup := MemberList{{Rank: 0}, {Rank: 0}}
	assert.True(t, errors.Is(dup.Validate(2), ErrDuplicateRank))
}

func Test_ProcessIdentity(t *testing.T) {
	assert.NoError(t, ProcessIdentity{Rank: 0, Size: 1}.Validate())
	assert.Error(t, ProcessIdentity{Rank: 1, Size: 1}.Validate())
	assert.Error(t, ProcessIdentity{Rank: 0, Size: 0}.Validate())
	assert.Equal(t, "3/8", ProcessIdentity{Rank: 3, Size: 8}.String())
}
