package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"query-server/confs"
	"query-server/db"
	"query-server/repositories"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *confs.Config {
	return &confs.Config{
		Port:                "0",
		JWTSecret:           "server-test-secret-0123456789abc",
		TokenTTL:            time.Hour,
		HistoryLimit:        50,
		DefaultLanguage:     "es",
		CacheTTL:            time.Minute,
		MaintenanceInterval: time.Hour,
	}
}

func openStore(t *testing.T) *repositories.Store {
	t.Helper()
	database, err := db.OpenSQLite(":memory:", &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	return repositories.NewStore(database)
}

func newTestServer(t *testing.T, withRemote bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var remote *repositories.Store
	if withRemote {
		remote = openStore(t)
	}
	return NewServer(testConfig(), repositories.NewRouter(openStore(t), remote))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Count int             `json:"count"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func do(t *testing.T, s *Server, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func guestToken(t *testing.T, s *Server, device string) string {
	t.Helper()
	w, env := do(t, s, http.MethodPost, "/api/v1/auth/guest", "", gin.H{"device_id": device})
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	w, _ := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(t, false)
	w, env := do(t, s, http.MethodGet, "/api/v1/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", env.Code)

	w, env = do(t, s, http.MethodGet, "/api/v1/history", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", env.Code)
}

func TestGuestGenerateAndList(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	w, env := do(t, s, http.MethodPost, "/api/v1/qr/generate", token, gin.H{"text": "https://example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var generated struct {
		DataURL string `json:"data_url"`
		Saved   bool   `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &generated))
	assert.True(t, generated.Saved)
	assert.True(t, strings.HasPrefix(generated.DataURL, "data:image/png;base64,"))

	w, env = do(t, s, http.MethodGet, "/api/v1/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Count)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com", items[0]["content"])
	assert.Equal(t, true, items[0]["is_url"])
	assert.Equal(t, "Justo ahora", items[0]["relative_time"])
	assert.Equal(t, "Creado", items[0]["type_label"])

	// ?lang= wins over the default
	_, env = do(t, s, http.MethodGet, "/api/v1/history?lang=en", token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Equal(t, "Just now", items[0]["relative_time"])
	assert.Equal(t, "Created", items[0]["type_label"])

	// another device sees nothing
	other := guestToken(t, s, "device-2")
	_, env = do(t, s, http.MethodGet, "/api/v1/history", other, nil)
	assert.Equal(t, 0, env.Count)
}

func TestHistoryItemOperations(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	_, env := do(t, s, http.MethodPost, "/api/v1/qr/generate", token, gin.H{"text": "menu"})
	var generated struct {
		Item struct {
			ID string `json:"id"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &generated))
	id := generated.Item.ID
	require.NotEmpty(t, id)

	w, _ := do(t, s, http.MethodPost, "/api/v1/history/"+id+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = do(t, s, http.MethodGet, "/api/v1/history/favorites", token, nil)
	assert.Equal(t, 1, env.Count)

	w, env = do(t, s, http.MethodPut, "/api/v1/history/"+id+"/name", token, gin.H{"name": " Lunch "})
	require.Equal(t, http.StatusOK, w.Code)
	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "Lunch", item["custom_name"])
	assert.Equal(t, "Lunch", item["display_name"])

	w, _ = do(t, s, http.MethodDelete, "/api/v1/history/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, s, http.MethodGet, "/api/v1/history/"+id, token, nil, "Accept-Language", "en-US,en;q=0.9")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "historyItemNotFound", env.Code)
	assert.Equal(t, "History item not found", env.Error)

	w, _ = do(t, s, http.MethodDelete, "/api/v1/history", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScanUpload(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	w, _ := do(t, s, http.MethodPost, "/api/v1/qr/render?format=png", "", gin.H{"text": "WIFI:S:home;T:WPA;P:secret;;"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	png := w.Body.Bytes()

	// rendering records nothing
	_, env := do(t, s, http.MethodGet, "/api/v1/history", token, nil)
	assert.Equal(t, 0, env.Count)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "code.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qr/scan", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WIFI:S:home;T:WPA;P:secret;;")

	_, env = do(t, s, http.MethodGet, "/api/v1/history", token, nil)
	assert.Equal(t, 1, env.Count)
}

func TestAccountsAndModes(t *testing.T) {
	s := newTestServer(t, false)

	w, env := do(t, s, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"mode": "authenticated", "username": "ana", "email": "ana@example.com", "password": "secret1",
	}, "Accept-Language", "en")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "modeUnavailable", env.Code)
	assert.Equal(t, "Cloud accounts are not available right now", env.Error)

	require.NoError(t, s.authUC.SeedDemoUser())
	w, env = do(t, s, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"mode": "guest", "identifier": "demo", "password": "demo123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, env = do(t, s, http.MethodGet, "/api/v1/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"demo"`)

	w, env = do(t, s, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"mode": "guest", "identifier": "demo", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "loginError", env.Code)
}

func TestCloudAccount(t *testing.T) {
	s := newTestServer(t, true)

	w, env := do(t, s, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"mode": "authenticated", "username": "ana", "email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, env = do(t, s, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"mode": "authenticated", "username": "ana", "email": "other@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "usernameTaken", env.Code)

	w, _ = do(t, s, http.MethodDelete, "/api/v1/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestConfigEndpoints(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	_, env := do(t, s, http.MethodGet, "/api/v1/config", token, nil)
	assert.Contains(t, string(env.Data), `"language":"es"`)

	w, env := do(t, s, http.MethodPut, "/api/v1/config/theme", token, gin.H{"value": "neon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalidValue", env.Code)

	w, _ = do(t, s, http.MethodPut, "/api/v1/config/language", token, gin.H{"value": "en"})
	require.Equal(t, http.StatusOK, w.Code)

	// the saved language now drives messages
	_, env = do(t, s, http.MethodGet, "/api/v1/history/missing", token, nil)
	assert.Equal(t, "History item not found", env.Error)

	w, _ = do(t, s, http.MethodPost, "/api/v1/config/onboarding/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = do(t, s, http.MethodGet, "/api/v1/config/has_seen_onboarding", token, nil)
	assert.Contains(t, string(env.Data), `"value":"true"`)

	w, _ = do(t, s, http.MethodDelete, "/api/v1/config", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = do(t, s, http.MethodGet, "/api/v1/config/language", token, nil)
	assert.Contains(t, string(env.Data), `"value":"es"`)
}

func TestI18nEndpoints(t *testing.T) {
	s := newTestServer(t, false)

	w, env := do(t, s, http.MethodGet, "/api/v1/i18n/languages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Count)

	_, env = do(t, s, http.MethodGet, "/api/v1/i18n/en", "", nil)
	assert.Contains(t, string(env.Data), `"welcome":"Welcome to QueRy"`)

	w, _ = do(t, s, http.MethodGet, "/api/v1/i18n/fr", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaintenanceAndCacheStats(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	w, _ := do(t, s, http.MethodGet, "/api/v1/cache/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_owners"`)

	// anonymous guests may not touch shared state
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/cache/clear"},
		{http.MethodPost, "/api/v1/maintenance/run"},
		{http.MethodGet, "/api/v1/maintenance/last"},
		{http.MethodGet, "/api/v1/ws/connections"},
	} {
		w, env := do(t, s, route.method, route.path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, route.path)
		assert.Equal(t, "forbidden", env.Code, route.path)
	}

	require.NoError(t, s.authUC.SeedDemoUser())
	w, env := do(t, s, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"mode": "guest", "identifier": "demo", "password": "demo123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, _ = do(t, s, http.MethodPost, "/api/v1/maintenance/run", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"report"`)

	w, _ = do(t, s, http.MethodGet, "/api/v1/ws/connections", session.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, s, http.MethodPost, "/api/v1/cache/clear", session.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAccountClearsCachedHistory(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	w, _ := do(t, s, http.MethodPost, "/api/v1/qr/generate", token, gin.H{"text": "to be forgotten"})
	require.Equal(t, http.StatusCreated, w.Code)
	_, env := do(t, s, http.MethodGet, "/api/v1/history", token, nil)
	require.Equal(t, 1, env.Count)

	w, _ = do(t, s, http.MethodDelete, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// same device, fresh session
	token = guestToken(t, s, "device-1")
	w, env = do(t, s, http.MethodGet, "/api/v1/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Count)
}

func TestWebsocketFeed(t *testing.T) {
	s := newTestServer(t, false)
	token := guestToken(t, s, "device-1")

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg["type"])

	w, _ := do(t, s, http.MethodPost, "/api/v1/qr/generate", token, gin.H{"text": "live"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "history_changed", msg["type"])
	assert.Equal(t, "added", msg["action"])
	assert.NotEmpty(t, msg["item_id"])
}
