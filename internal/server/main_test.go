package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"talenthub/internal/config"
	"talenthub/internal/database"
	"talenthub/internal/models"
	"talenthub/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

func TestMain(m *testing.M) {
	_ = os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// testServer is a fully wired API backed by in-memory SQLite and miniredis.
type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the config before the server is wired.
func newTestServerWith(t *testing.T, configure func(*config.Config)) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:    testJWTSecret,
		JWTExpiresIn: time.Hour,
		Env:          "test",
		UploadDir:    t.TempDir(),
	}
	if configure != nil {
		configure(cfg)
	}
	srv, err := NewServerWithDeps(cfg, db, nil, rdb)
	require.NoError(t, err)

	app := NewApp()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	srv.app = app
	t.Cleanup(func() {
		_ = rdb.Close()
		_ = sqlDB.Close()
	})

	return &testServer{srv: srv, app: app, db: db, mr: mr}
}

var phoneSeq atomic.Int64

type testUser struct {
	ID    uint
	Email string
	Token string
}

// register signs a user up through the API and optionally raises their role
// directly in the database.
func (ts *testServer) register(t *testing.T, name string, role models.Role) testUser {
	t.Helper()
	email := fmt.Sprintf("%s%d@example.com", name, phoneSeq.Add(1))
	status, body := ts.do(t, http.MethodPost, "/api/users/register", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"number":   fmt.Sprintf("+1555%07d", phoneSeq.Add(1)),
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var res service.LoginResult
	require.NoError(t, json.Unmarshal(body, &res))
	if role != models.RoleUser {
		require.NoError(t, ts.db.Model(&models.User{}).Where("id = ?", res.User.ID).Update("role", role).Error)
	}
	return testUser{ID: res.User.ID, Email: email, Token: res.Token}
}

// do sends a JSON request and returns the status and raw body.
func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(t, req, token)
}

func (ts *testServer) send(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func jsonRequest(method, path, raw string) *http.Request {
	var reader io.Reader
	if raw != "" {
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}
