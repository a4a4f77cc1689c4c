package repositories

import (
	"errors"

	"query-server/entities"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	Create(user *entities.User) error
	GetByID(id string) (*entities.User, error)
	GetByUsername(username string) (*entities.User, error)
	GetByEmail(email string) (*entities.User, error)
	Update(user *entities.User) error
	Delete(id string) error
}

type HistoryRepository interface {
	Create(item *entities.QrHistoryItem) error
	GetByID(ownerID, id string) (*entities.QrHistoryItem, error)
	ListByOwner(ownerID string) ([]entities.QrHistoryItem, error)
	ListFavorites(ownerID string) ([]entities.QrHistoryItem, error)
	Update(item *entities.QrHistoryItem) error
	Delete(ownerID, id string) error
	DeleteAllByOwner(ownerID string) error
	// PruneOwner keeps the newest keep items and deletes the rest, returning
	// how many were removed.
	PruneOwner(ownerID string, keep int) (int64, error)
	ListOwners() ([]string, error)
	PurgeDeleted() (int64, error)
}

type ConfigRepository interface {
	Get(ownerID, key string) (*entities.AppConfig, error)
	ListByOwner(ownerID string) ([]entities.AppConfig, error)
	Set(ownerID, key, value string) error
	DeleteAllByOwner(ownerID string) error
}
