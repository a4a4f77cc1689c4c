package usecases

import (
	"sync"
	"testing"
	"time"

	"query-server/auth"
	"query-server/cache"
	"query-server/db"
	"query-server/entities"
	"query-server/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSecret = []byte("usecase-test-secret-0123456789ab")

type recordedEvent struct {
	Owner  string
	Action string
	ItemID string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) HistoryChanged(owner, action, itemID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{owner, action, itemID})
}

func (n *recordingNotifier) Events() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

type fixture struct {
	router   *repositories.Router
	local    *repositories.Store
	remote   *repositories.Store
	authUC   *AuthUseCase
	config   *ConfigUseCase
	history  *HistoryUseCase
	cache    *cache.HistoryCache
	notifier *recordingNotifier
}

func openStore(t *testing.T) *repositories.Store {
	t.Helper()
	database, err := db.OpenSQLite(":memory:", &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	return repositories.NewStore(database)
}

func newFixture(t *testing.T, withRemote bool) *fixture {
	t.Helper()
	f := &fixture{local: openStore(t), notifier: &recordingNotifier{}}
	if withRemote {
		f.remote = openStore(t)
	}
	f.router = repositories.NewRouter(f.local, f.remote)
	f.cache = cache.NewHistoryCache(time.Minute)
	f.config = NewConfigUseCase(f.router, "es")
	f.history = NewHistoryUseCase(f.router, f.config, f.cache, f.notifier, 50)
	f.authUC = NewAuthUseCase(f.router, auth.NewIssuer(testSecret), time.Hour, f.history)
	return f
}

func guest(device string) auth.Principal {
	return auth.GuestPrincipal(device)
}

func cloudUser(id string) auth.Principal {
	return auth.Principal{Subject: id, Mode: entities.ModeAuthenticated, Username: id}
}
