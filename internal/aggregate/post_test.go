package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
	"github.com/timelinecore/microfeed/internal/core/events"
	"github.com/timelinecore/microfeed/internal/core/ids"
)

func TestPost_PublishAndRetract(t *testing.T) {
	authorId := ids.NewUserId()
	p := NewPost(ids.NewPostId())
	require.NoError(t, p.Publish(authorId, "hello world"))
	require.Equal(t, uint64(1), p.Version())
	require.False(t, p.Retracted())

	require.NoError(t, p.Retract())
	require.True(t, p.Retracted())
	require.Equal(t, uint64(2), p.Version())

	drained := p.Drain()
	require.Len(t, drained, 2)
}

func TestPost_RetractTwiceFails(t *testing.T) {
	p := NewPost(ids.NewPostId())
	require.NoError(t, p.Publish(ids.NewUserId(), "hi"))
	require.NoError(t, p.Retract())
	err := p.Retract()
	require.ErrorIs(t, err, domainerr.ErrAlreadyRetracted)
}

func TestRehydratePost_WrongFirstKindFails(t *testing.T) {
	stream := []events.DomainEvent{{
		Kind:          events.KindPostRetracted,
		Version:       1,
		PostRetracted: &events.PostRetractedBody{},
	}}
	_, err := RehydratePost(ids.NewPostId(), stream)
	require.ErrorIs(t, err, domainerr.ErrEmptyStream)
}
