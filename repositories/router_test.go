package repositories

import (
	"testing"

	"query-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_ForRoutesByMode(t *testing.T) {
	local := NewStore(newTestDB(t))
	remote := NewStore(newTestDB(t))
	router := NewRouter(local, remote)

	got, err := router.For(entities.ModeGuest)
	require.NoError(t, err)
	assert.Same(t, local, got)

	got, err = router.For(entities.ModeAuthenticated)
	require.NoError(t, err)
	assert.Same(t, remote, got)

	_, err = router.For(entities.AppMode("offline"))
	assert.ErrorIs(t, err, ErrModeUnavailable)
}

func TestRouter_WithoutRemote(t *testing.T) {
	router := NewRouter(NewStore(newTestDB(t)), nil)

	assert.True(t, router.Available(entities.ModeGuest))
	assert.False(t, router.Available(entities.ModeAuthenticated))

	_, err := router.For(entities.ModeAuthenticated)
	assert.ErrorIs(t, err, ErrModeUnavailable)

	var modes []entities.AppMode
	require.NoError(t, router.Each(func(mode entities.AppMode, _ *Store) error {
		modes = append(modes, mode)
		return nil
	}))
	assert.Equal(t, []entities.AppMode{entities.ModeGuest}, modes)
}

func TestRouter_StoresAreIsolated(t *testing.T) {
	local := NewStore(newTestDB(t))
	remote := NewStore(newTestDB(t))
	router := NewRouter(local, remote)

	guestStore, err := router.For(entities.ModeGuest)
	require.NoError(t, err)
	require.NoError(t, guestStore.History.Create(&entities.QrHistoryItem{OwnerID: "u1", Content: "local only", Type: entities.HistoryScanned}))

	cloudStore, err := router.For(entities.ModeAuthenticated)
	require.NoError(t, err)
	items, err := cloudStore.History.ListByOwner("u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}
