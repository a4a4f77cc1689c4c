package usecases

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"query-server/auth"
	"query-server/cache"
	"query-server/entities"
	"query-server/repositories"
)

// History change actions pushed to live clients.
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionCleared = "cleared"
)

// HistoryNotifier is told about every change to an owner's history.
type HistoryNotifier interface {
	HistoryChanged(owner, action, itemID string)
}

type HistoryUseCase struct {
	Router   *repositories.Router
	Config   *ConfigUseCase
	Cache    *cache.HistoryCache
	Notifier HistoryNotifier
	Limit    int

	now    func() time.Time
	logger *slog.Logger
}

func NewHistoryUseCase(router *repositories.Router, config *ConfigUseCase, historyCache *cache.HistoryCache, notifier HistoryNotifier, limit int) *HistoryUseCase {
	return &HistoryUseCase{
		Router:   router,
		Config:   config,
		Cache:    historyCache,
		Notifier: notifier,
		Limit:    limit,
		now:      time.Now,
		logger:   slog.Default().With("source", "history"),
	}
}

// AddScanned records content read from a QR code.
func (uc *HistoryUseCase) AddScanned(p auth.Principal, content string) (*entities.QrHistoryItem, bool, error) {
	return uc.add(p, content, entities.HistoryScanned)
}

// AddCreated records content the owner turned into a QR code.
func (uc *HistoryUseCase) AddCreated(p auth.Principal, content string) (*entities.QrHistoryItem, bool, error) {
	return uc.add(p, content, entities.HistoryCreated)
}

// add stores a new item and trims the owner's history to the limit. saved is
// false when the owner turned history off; the item is still returned.
func (uc *HistoryUseCase) add(p auth.Principal, content string, kind entities.HistoryType) (item *entities.QrHistoryItem, saved bool, err error) {
	if strings.TrimSpace(content) == "" {
		return nil, false, fail(CodeFieldRequired)
	}

	item = &entities.QrHistoryItem{
		OwnerID:   p.Subject,
		Content:   content,
		Type:      kind,
		Timestamp: uc.now().UTC(),
		IsURL:     entities.IsURL(content),
	}

	enabled, err := uc.Config.SaveHistoryEnabled(p)
	if err != nil {
		return nil, false, err
	}
	if !enabled {
		return item, false, nil
	}

	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return nil, false, internal(err)
	}
	if err := store.History.Create(item); err != nil {
		return nil, false, internal(err)
	}
	if uc.Limit > 0 {
		pruned, err := store.History.PruneOwner(p.Subject, uc.Limit)
		if err != nil {
			uc.logger.Error("pruning history", "owner", p.OwnerKey(), "error", err)
		} else if pruned > 0 {
			uc.logger.Debug("history pruned", "owner", p.OwnerKey(), "removed", pruned)
		}
	}

	uc.changed(p, ActionAdded, item.ID)
	return item, true, nil
}

// List returns the owner's history, newest first.
func (uc *HistoryUseCase) List(p auth.Principal) ([]entities.QrHistoryItem, error) {
	key := p.OwnerKey()
	if uc.Cache != nil {
		if items, ok := uc.Cache.Get(key); ok {
			return items, nil
		}
	}

	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return nil, internal(err)
	}
	items, err := store.History.ListByOwner(p.Subject)
	if err != nil {
		return nil, internal(err)
	}
	if uc.Cache != nil {
		uc.Cache.Set(key, items)
	}
	return items, nil
}

// Favorites returns the owner's favorite items, newest first.
func (uc *HistoryUseCase) Favorites(p auth.Principal) ([]entities.QrHistoryItem, error) {
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return nil, internal(err)
	}
	items, err := store.History.ListFavorites(p.Subject)
	return items, internal(err)
}

func (uc *HistoryUseCase) Get(p auth.Principal, id string) (*entities.QrHistoryItem, error) {
	if id == "" {
		return nil, fail(CodeFieldRequired)
	}
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return nil, internal(err)
	}
	item, err := store.History.GetByID(p.Subject, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(CodeHistoryItemNotFound)
	}
	if err != nil {
		return nil, internal(err)
	}
	return item, nil
}

func (uc *HistoryUseCase) Delete(p auth.Principal, id string) error {
	if id == "" {
		return fail(CodeFieldRequired)
	}
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return internal(err)
	}
	err = store.History.Delete(p.Subject, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(CodeHistoryItemNotFound)
	}
	if err != nil {
		return internal(err)
	}
	uc.changed(p, ActionDeleted, id)
	return nil
}

// Clear removes the owner's whole history.
func (uc *HistoryUseCase) Clear(p auth.Principal) error {
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return internal(err)
	}
	if err := store.History.DeleteAllByOwner(p.Subject); err != nil {
		return internal(err)
	}
	uc.changed(p, ActionCleared, "")
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated item.
func (uc *HistoryUseCase) ToggleFavorite(p auth.Principal, id string) (*entities.QrHistoryItem, error) {
	item, err := uc.Get(p, id)
	if err != nil {
		return nil, err
	}
	item.IsFavorite = !item.IsFavorite
	return item, uc.save(p, item)
}

// Rename sets the custom name shown instead of the content. A blank name
// removes it.
func (uc *HistoryUseCase) Rename(p auth.Principal, id, name string) (*entities.QrHistoryItem, error) {
	item, err := uc.Get(p, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		item.CustomName = nil
	} else {
		item.CustomName = &name
	}
	return item, uc.save(p, item)
}

func (uc *HistoryUseCase) save(p auth.Principal, item *entities.QrHistoryItem) error {
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return internal(err)
	}
	if err := store.History.Update(item); err != nil {
		return internal(err)
	}
	uc.changed(p, ActionUpdated, item.ID)
	return nil
}

func (uc *HistoryUseCase) changed(p auth.Principal, action, itemID string) {
	if uc.Cache != nil {
		uc.Cache.Invalidate(p.OwnerKey())
	}
	if uc.Notifier != nil {
		uc.Notifier.HistoryChanged(p.OwnerKey(), action, itemID)
	}
}
