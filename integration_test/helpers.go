package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"remindd/internal/database"
	"remindd/internal/migrations"
	"remindd/internal/service"
	"remindd/pkg/chat"
	"remindd/pkg/chat/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS reminders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scope_id TEXT NOT NULL,
    author_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    origin_ref TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    due_at DATETIME NOT NULL,
    status TEXT NOT NULL DEFAULT 'WAITING'
        CHECK (status IN ('WAITING', 'DELIVERED', 'FAILED')),
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reminders_status_due ON reminders(status, due_at);

CREATE TABLE IF NOT EXISTS members (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scope_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    user_id_hash TEXT NOT NULL,
    display_name TEXT,
    reachable BOOLEAN DEFAULT TRUE,
    cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (scope_id, user_id_hash)
);
`

// fakeGateway is an in-process stand-in for the chat gateway API. It records
// delivered DMs and posted prompts so tests can assert on outgoing traffic.
type fakeGateway struct {
	mu      sync.Mutex
	members map[string]*types.Member
	blocked map[string]bool
	sends   []string
	prompts []string
	server  *httptest.Server
}

func newFakeGateway() *fakeGateway {
	g := &fakeGateway{
		members: make(map[string]*types.Member),
		blocked: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scopes/", g.handleGetMember)
	mux.HandleFunc("POST /api/directMessages", g.handleSendDirect)
	mux.HandleFunc("POST /api/prompts", g.handlePostPrompt)
	mux.HandleFunc("DELETE /api/scopes/", g.handleDeletePrompt)

	g.server = httptest.NewServer(mux)
	return g
}

func (g *fakeGateway) Close() { g.server.Close() }

func (g *fakeGateway) addMember(m *types.Member) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[m.ScopeID+"/"+m.UserID] = m
}

func (g *fakeGateway) blockUser(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocked[userID] = true
}

func (g *fakeGateway) sentMessages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.sends...)
}

func (g *fakeGateway) handleGetMember(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/scopes/"), "/members/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	member, ok := g.members[parts[0]+"/"+parts[1]]
	g.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(member)
}

func (g *fakeGateway) handleSendDirect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID  string `json:"userId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	blocked := g.blocked[payload.UserID]
	if !blocked {
		g.sends = append(g.sends, payload.Content)
	}
	g.mu.Unlock()

	if blocked {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(types.SendResponse{Error: "cannot DM this user"})
		return
	}
	json.NewEncoder(w).Encode(types.SendResponse{MessageID: "msg-1", Status: "sent"})
}

func (g *fakeGateway) handlePostPrompt(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ScopeID string `json:"scopeId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.prompts = append(g.prompts, payload.Content)
	id := fmt.Sprintf("prompt-%d", len(g.prompts))
	g.mu.Unlock()

	json.NewEncoder(w).Encode(types.SendResponse{MessageID: id, Status: "posted"})
}

func (g *fakeGateway) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// testEnv wires a real store and real services against the fake gateway.
type testEnv struct {
	db        *database.Database
	gateway   *fakeGateway
	directory *service.DirectoryService
	delivery  *service.DeliveryService
	flow      *service.ConfirmationFlow
	reminders *service.ReminderService
	cleanup   func()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "remindd-integration")
	require.NoError(t, err)

	migrationsPath := filepath.Join(tmpDir, "migrations")
	require.NoError(t, os.MkdirAll(migrationsPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(migrationsPath, "001_initial_schema.sql"), []byte(testSchema), 0644))

	originalMigrationsDir := migrations.MigrationsDir
	migrations.MigrationsDir = migrationsPath

	db, err := database.New(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)

	gateway := newFakeGateway()
	client := chat.NewClient(types.ClientConfig{
		BaseURL:    gateway.server.URL,
		Timeout:    5 * time.Second,
		RetryCount: 1,
	})

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	directory := service.NewDirectoryService(db, client, 24, logger)
	notifier := service.NewChatNotifier(client)
	presenter := service.NewChatPresenter(client)
	delivery := service.NewDeliveryService(db, directory, presenter, notifier, logger)
	flow := service.NewConfirmationFlow(db, presenter, 2, logger)
	reminders := service.NewReminderService(db, directory, notifier, flow, logger)

	return &testEnv{
		db:        db,
		gateway:   gateway,
		directory: directory,
		delivery:  delivery,
		flow:      flow,
		reminders: reminders,
		cleanup: func() {
			gateway.Close()
			_ = db.Close()
			migrations.MigrationsDir = originalMigrationsDir
			_ = os.RemoveAll(tmpDir)
		},
	}
}
