package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

func TestUser_Register(t *testing.T) {
	u := NewUser(ids.NewUserId())
	require.NoError(t, u.Register("alice"))
	require.Equal(t, uint64(1), u.Version())
	require.Equal(t, "alice", u.Username())

	drained := u.Drain()
	require.Len(t, drained, 1)
	require.Equal(t, uint64(1), drained[0].Version)
	require.Empty(t, u.Drain())
}

func TestUser_Register_TwiceFails(t *testing.T) {
	u := NewUser(ids.NewUserId())
	require.NoError(t, u.Register("alice"))
	require.ErrorIs(t, u.Register("bob"), domainerr.ErrAggregateAlreadyExists)
}

func TestRehydrateUser_EmptyStreamFails(t *testing.T) {
	_, err := RehydrateUser(ids.NewUserId(), nil)
	require.ErrorIs(t, err, domainerr.ErrEmptyStream)
}

func TestRehydrateUser_ReplaysState(t *testing.T) {
	id := ids.NewUserId()
	u := NewUser(id)
	require.NoError(t, u.Register("alice"))
	stream := u.Drain()

	rehydrated, err := RehydrateUser(id, stream)
	require.NoError(t, err)
	require.Equal(t, "alice", rehydrated.Username())
	require.Equal(t, uint64(1), rehydrated.Version())
}
