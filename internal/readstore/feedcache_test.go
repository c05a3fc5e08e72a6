package readstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timelinecore/microfeed/internal/core/ids"
)

func TestFeedCache_PutGetInvalidate(t *testing.T) {
	c := NewFeedCache(2)
	viewer := ids.NewUserId()

	_, ok := c.Get(viewer)
	require.False(t, ok)

	c.Put(viewer, []Post{{PostId: "p1"}})
	got, ok := c.Get(viewer)
	require.True(t, ok)
	require.Equal(t, []Post{{PostId: "p1"}}, got)

	c.Invalidate(viewer)
	_, ok = c.Get(viewer)
	require.False(t, ok)
}

func TestFeedCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewFeedCache(2)
	a, b, d := ids.NewUserId(), ids.NewUserId(), ids.NewUserId()

	c.Put(a, []Post{{PostId: "pa"}})
	c.Put(b, []Post{{PostId: "pb"}})
	c.Get(a) // a is now most recently used
	c.Put(d, []Post{{PostId: "pd"}})

	_, ok := c.Get(b)
	require.False(t, ok, "b should have been evicted as least recently used")

	_, ok = c.Get(a)
	require.True(t, ok)
	_, ok = c.Get(d)
	require.True(t, ok)
}

func TestFeedCache_InvalidateAll(t *testing.T) {
	c := NewFeedCache(4)
	a := ids.NewUserId()
	c.Put(a, []Post{{PostId: "pa"}})
	c.InvalidateAll()

	_, ok := c.Get(a)
	require.False(t, ok)
}
