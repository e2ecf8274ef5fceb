package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB opens a private in-memory sqlite database with the schema applied.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	db     *gorm.DB
	store  Store
	tokens *TokenIssuer
	hub    *AlertHub
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := setupTestDB(t)
	store := NewStore(db)
	tokens := NewTokenIssuer(testSecret, time.Hour)
	metrics := NewMetrics()
	hub := NewAlertHub(nil, metrics, quietLogger())
	api := NewAPI(store, tokens, hub, quietLogger())

	router, err := NewRouter(api, RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        metrics,
	})
	require.NoError(t, err)

	return &testServer{db: db, store: store, tokens: tokens, hub: hub, router: router}
}

// createUser inserts a user directly and returns it with a signed token.
func (s *testServer) createUser(t *testing.T, name, email, role, location string) (*User, string) {
	t.Helper()

	hash, err := HashPassword("password")
	require.NoError(t, err)

	u := &User{Name: name, Email: email, PasswordHash: hash, Role: role, Location: location}
	require.NoError(t, s.db.Create(u).Error)

	token, err := s.tokens.GenerateToken(u.ID)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

// testContext mirrors testing.T.Context (Go 1.24+): the returned context is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
