package repositories

import (
	"errors"
	"fmt"

	"query-server/db"
	"query-server/entities"
)

// ErrModeUnavailable is returned when the store for a mode is not configured.
var ErrModeUnavailable = errors.New("storage mode unavailable")

// Store bundles the repositories backed by one database.
type Store struct {
	Users   UserRepository
	History HistoryRepository
	Config  ConfigRepository
}

// NewStore wires gorm repositories over database.
func NewStore(database db.Database) *Store {
	return &Store{
		Users:   NewUserGormRepository(database),
		History: NewHistoryGormRepository(database),
		Config:  NewConfigGormRepository(database),
	}
}

// Router picks the store for a request by operating mode: guest data lives in
// the local store, authenticated data in the remote one. The two never mix.
type Router struct {
	local  *Store
	remote *Store
}

// NewRouter builds a Router. remote may be nil, in which case authenticated
// mode is unavailable.
func NewRouter(local, remote *Store) *Router {
	return &Router{local: local, remote: remote}
}

// For returns the store serving mode.
func (r *Router) For(mode entities.AppMode) (*Store, error) {
	switch mode {
	case entities.ModeGuest:
		if r.local == nil {
			return nil, fmt.Errorf("%w: %s", ErrModeUnavailable, mode)
		}
		return r.local, nil
	case entities.ModeAuthenticated:
		if r.remote == nil {
			return nil, fmt.Errorf("%w: %s", ErrModeUnavailable, mode)
		}
		return r.remote, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrModeUnavailable, mode)
	}
}

// Available reports whether mode can be served.
func (r *Router) Available(mode entities.AppMode) bool {
	_, err := r.For(mode)
	return err == nil
}

// Each calls fn for every configured store.
func (r *Router) Each(fn func(mode entities.AppMode, store *Store) error) error {
	if r.local != nil {
		if err := fn(entities.ModeGuest, r.local); err != nil {
			return err
		}
	}
	if r.remote != nil {
		if err := fn(entities.ModeAuthenticated, r.remote); err != nil {
			return err
		}
	}
	return nil
}
