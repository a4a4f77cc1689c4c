package usecases

import (
	"fmt"
	"testing"
	"time"

	"query-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestHistoryUseCase_AddAndList(t *testing.T) {
	f := newFixture(t, false)
	f.history.now = fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	p := guest("d1")

	first, saved, err := f.history.AddScanned(p, "https://example.com")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, first.IsURL)
	assert.Equal(t, entities.HistoryScanned, first.Type)

	second, _, err := f.history.AddCreated(p, "plain text")
	require.NoError(t, err)
	assert.False(t, second.IsURL)

	items, err := f.history.List(p)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID, "newest first")
	assert.Equal(t, first.ID, items[1].ID)

	events := f.notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, p.OwnerKey(), events[0].Owner)
	assert.Equal(t, ActionAdded, events[0].Action)
	assert.Equal(t, first.ID, events[0].ItemID)
}

func TestHistoryUseCase_RejectsEmptyContent(t *testing.T) {
	f := newFixture(t, false)
	_, _, err := f.history.AddScanned(guest("d1"), "   ")
	assert.Equal(t, CodeFieldRequired, CodeOf(err))
}

func TestHistoryUseCase_PrunesToLimit(t *testing.T) {
	f := newFixture(t, false)
	f.history.Limit = 5
	f.history.now = fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	p := guest("d1")

	for i := 0; i < 8; i++ {
		_, _, err := f.history.AddCreated(p, fmt.Sprintf("item %d", i))
		require.NoError(t, err)
	}

	items, err := f.history.List(p)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "item 7", items[0].Content)
	assert.Equal(t, "item 3", items[4].Content)
}

func TestHistoryUseCase_SaveHistoryDisabled(t *testing.T) {
	f := newFixture(t, false)
	p := guest("d1")
	require.NoError(t, f.config.Set(p, entities.ConfigSaveHistoryEnabled, "false"))

	item, saved, err := f.history.AddScanned(p, "www.example.com")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.True(t, item.IsURL)

	items, err := f.history.List(p)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, f.notifier.Events())
}

func TestHistoryUseCase_CacheInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t, false)
	p := guest("d1")

	_, _, err := f.history.AddScanned(p, "one")
	require.NoError(t, err)
	_, err = f.history.List(p)
	require.NoError(t, err)
	_, cached := f.cache.Get(p.OwnerKey())
	require.True(t, cached)

	_, _, err = f.history.AddScanned(p, "two")
	require.NoError(t, err)
	_, cached = f.cache.Get(p.OwnerKey())
	assert.False(t, cached)

	items, err := f.history.List(p)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestHistoryUseCase_FavoriteRenameDelete(t *testing.T) {
	f := newFixture(t, false)
	p := guest("d1")

	item, _, err := f.history.AddScanned(p, "hello")
	require.NoError(t, err)

	toggled, err := f.history.ToggleFavorite(p, item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsFavorite)

	favs, err := f.history.Favorites(p)
	require.NoError(t, err)
	require.Len(t, favs, 1)

	renamed, err := f.history.Rename(p, item.ID, "  Greeting  ")
	require.NoError(t, err)
	require.NotNil(t, renamed.CustomName)
	assert.Equal(t, "Greeting", *renamed.CustomName)

	cleared, err := f.history.Rename(p, item.ID, " ")
	require.NoError(t, err)
	assert.Nil(t, cleared.CustomName)

	got, err := f.history.Get(p, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomName)
	assert.True(t, got.IsFavorite)

	require.NoError(t, f.history.Delete(p, item.ID))
	assert.Equal(t, CodeHistoryItemNotFound, CodeOf(f.history.Delete(p, item.ID)))
	_, err = f.history.Get(p, item.ID)
	assert.Equal(t, CodeHistoryItemNotFound, CodeOf(err))
}

func TestHistoryUseCase_OwnersAndModesAreIsolated(t *testing.T) {
	f := newFixture(t, true)
	a, b, cloud := guest("a"), guest("b"), cloudUser("a")

	item, _, err := f.history.AddScanned(a, "mine")
	require.NoError(t, err)
	_, _, err = f.history.AddScanned(cloud, "cloud")
	require.NoError(t, err)

	_, err = f.history.Get(b, item.ID)
	assert.Equal(t, CodeHistoryItemNotFound, CodeOf(err))
	assert.Equal(t, CodeHistoryItemNotFound, CodeOf(f.history.Delete(b, item.ID)))

	local, err := f.history.List(a)
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, "mine", local[0].Content)

	remote, err := f.remote.History.ListByOwner(cloud.Subject)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "cloud", remote[0].Content)
}

func TestHistoryUseCase_Clear(t *testing.T) {
	f := newFixture(t, false)
	p := guest("d1")
	for _, c := range []string{"a", "b", "c"} {
		_, _, err := f.history.AddScanned(p, c)
		require.NoError(t, err)
	}
	require.NoError(t, f.history.Clear(p))

	items, err := f.history.List(p)
	require.NoError(t, err)
	assert.Empty(t, items)

	events := f.notifier.Events()
	assert.Equal(t, ActionCleared, events[len(events)-1].Action)
}
