package binding

import (
	"testing"

	"github.com/lsds/accbind/srcs/go/accel"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Decide(t *testing.T) {
	tests := []struct {
		groupSize   int
		deviceCount int
		rank        int
		index       int
		ok          bool
	}{
		{4, 4, 5, 1, true},
		{4, 4, 0, 0, true},
		{1, 1, 0, 0, true},
		{2, 2, 7, 1, true},
		{8, 4, 3, 0, false},
		{3, 4, 1, 0, false},
		{0, 0, 0, 0, false},
		{1, 0, 0, 0, false},
	}
	for _, tt := range tests {
		d, err := Decide(tt.groupSize, tt.deviceCount, tt.rank)
		if !tt.ok {
			assert.Nil(t, d)
			var me *MismatchError
			if assert.True(t, errors.As(err, &me), "%v", tt) {
				assert.Equal(t, tt.groupSize, me.GroupSize)
				assert.Equal(t, tt.deviceCount, me.DeviceCount)
			}
			assert.True(t, errors.Is(err, ErrDeviceMappingMismatch))
			continue
		}
		require.NoError(t, err, "%v", tt)
		assert.Equal(t, tt.index, d.LocalDeviceIndex, "%v", tt)
		assert.Equal(t, tt.rank, d.GlobalRank)
	}
}

func Test_MismatchError(t *testing.T) {
	assert.Equal(t, "unsuccessful mapping: 8 processes on a node with 4 devices", (&MismatchError{8, 4}).Error())
	assert.Equal(t, "unsuccessful mapping: no device for 2 processes", (&MismatchError{2, 0}).Error())
}

func Test_Binder(t *testing.T) {
	acc := accel.NewFake(4)
	require.NoError(t, acc.Init(accel.Nvidia))

	b := NewBinder()
	assert.Equal(t, Unbound, b.State())
	assert.ErrorIs(t, b.Bind(acc, accel.Nvidia), ErrInvalidTransition)
	_, err := b.Validate(4, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, b.SetGroupSize(4))
	assert.Equal(t, GroupSizeKnown, b.State())
	assert.ErrorIs(t, b.SetGroupSize(4), ErrInvalidTransition)

	d, err := b.Validate(4, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, d.LocalDeviceIndex)
	assert.Equal(t, Validated, b.State())
	_, bound := b.Decision()
	assert.False(t, bound)

	require.NoError(t, b.Bind(acc, accel.Nvidia))
	assert.Equal(t, Bound, b.State())
	i, ok := acc.Selected()
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	assert.ErrorIs(t, b.Bind(acc, accel.Nvidia), ErrAlreadyBound)
	assert.ErrorIs(t, b.SetGroupSize(4), ErrAlreadyBound)
	assert.ErrorIs(t, b.Terminate(), ErrAlreadyBound)
	assert.Equal(t, Bound, b.State())
}

func Test_Binder_rejected(t *testing.T) {
	b := NewBinder()
	require.NoError(t, b.SetGroupSize(8))
	_, err := b.Validate(4, 0)
	assert.ErrorIs(t, err, ErrDeviceMappingMismatch)
	assert.Equal(t, Rejected, b.State())

	assert.ErrorIs(t, b.Bind(accel.NewFake(4), accel.Nvidia), ErrInvalidTransition)
	assert.ErrorIs(t, b.Terminate(), ErrDeviceMappingMismatch)
	assert.Equal(t, Terminated, b.State())
	assert.ErrorIs(t, b.Terminate(), ErrInvalidTransition)
	_, bound := b.Decision()
	assert.False(t, bound)
}

func Test_Binder_selectFails(t *testing.T) {
	acc := accel.NewFake(2)
	b := NewBinder()
	require.NoError(t, b.SetGroupSize(2))
	_, err := b.Validate(2, 1)
	require.NoError(t, err)
	// the runtime was never initialized
	assert.ErrorIs(t, b.Bind(acc, accel.Nvidia), accel.ErrNotInitialized)
	assert.Equal(t, Validated, b.State())
}

func Test_State_String(t *testing.T) {
	assert.Equal(t, "group-size-known", GroupSizeKnown.String())
	assert.Equal(t, "terminated", Terminated.String())
}
