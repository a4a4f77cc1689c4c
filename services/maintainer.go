package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"query-server/auth"
	"query-server/cache"
	"query-server/entities"
	"query-server/repositories"
)

// ActionPruned is the history_changed action sent to owners trimmed by a pass.
const ActionPruned = "pruned"

// ChangeNotifier receives a note for every owner whose history a pass touched.
type ChangeNotifier interface {
	HistoryChanged(owner, action, itemID string)
}

// MaintenanceReport summarizes one maintenance pass.
type MaintenanceReport struct {
	Owners   int       `json:"owners"`
	Pruned   int64     `json:"pruned"`
	Purged   int64     `json:"purged"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`
}

// Maintainer periodically trims every owner's history to the limit and
// hard-deletes soft-deleted rows in each configured store.
type Maintainer struct {
	router   *repositories.Router
	cache    *cache.HistoryCache
	notifier ChangeNotifier
	limit    int
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	last *MaintenanceReport
}

// NewMaintainer builds a maintainer. historyCache and notifier may be nil.
func NewMaintainer(router *repositories.Router, historyCache *cache.HistoryCache, notifier ChangeNotifier, limit int, interval time.Duration) *Maintainer {
	return &Maintainer{
		router:   router,
		cache:    historyCache,
		notifier: notifier,
		limit:    limit,
		interval: interval,
		logger:   slog.Default().With("source", "maintainer"),
	}
}

// Start runs RunOnce on every tick until ctx is done.
func (m *Maintainer) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("maintenance disabled")
		return
	}
	ticker := time.NewTicker(m.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunOnce(); err != nil {
					m.logger.Error("maintenance pass failed", "error", err)
				}
			}
		}
	}()
}

// RunOnce performs a single maintenance pass over every store.
func (m *Maintainer) RunOnce() (*MaintenanceReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := &MaintenanceReport{Started: time.Now().UTC()}
	err := m.router.Each(func(mode entities.AppMode, store *repositories.Store) error {
		owners, err := store.History.ListOwners()
		if err != nil {
			return err
		}
		report.Owners += len(owners)
		for _, owner := range owners {
			n, err := store.History.PruneOwner(owner, m.limit)
			if err != nil {
				m.logger.Error("pruning owner", "mode", mode, "owner", owner, "error", err)
				continue
			}
			report.Pruned += n
			if n > 0 {
				m.changed(auth.Principal{Subject: owner, Mode: mode}.OwnerKey())
			}
		}
		purged, err := store.History.PurgeDeleted()
		if err != nil {
			return err
		}
		report.Purged += purged
		return nil
	})
	report.Duration = time.Since(report.Started).String()
	if err != nil {
		return report, err
	}

	m.last = report
	m.logger.Info("maintenance pass done", "owners", report.Owners, "pruned", report.Pruned, "purged", report.Purged)
	return report, nil
}

func (m *Maintainer) changed(owner string) {
	if m.cache != nil {
		m.cache.Invalidate(owner)
	}
	if m.notifier != nil {
		m.notifier.HistoryChanged(owner, ActionPruned, "")
	}
}

// LastReport returns the most recent successful pass, if any.
func (m *Maintainer) LastReport() *MaintenanceReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
