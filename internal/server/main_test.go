package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chapel/internal/config"
	"chapel/internal/database"
	"chapel/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAnonKey = "test-anon-key"
	testSecret  = "test-secret-key-0123456789abcdef0123456789"
)

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithFlags(t, "self_signup=on,comments=on")
}

func newTestEnvWithFlags(t *testing.T, flags string) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:      testSecret,
		AnonKey:        testAnonKey,
		AllowedOrigins: "http://localhost:5173",
		FeatureFlags:   flags,
		Env:            "test",
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	srv.authService.WithBcryptCost(bcrypt.MinCost)

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr, rdb: rdb}
}

// do sends an API request carrying the anon key and returns the raw body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("apikey", testAnonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// signup registers a user and returns its token and ID.
func (e *testEnv) signup(t *testing.T, email, name string) (string, string) {
	t.Helper()
	resp, data := e.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email": email, "password": "pw123456", "full_name": name,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var session SessionResponse
	require.NoError(t, json.Unmarshal(data, &session))
	return session.AccessToken, session.User.ID
}

// admin signs up a user and promotes it directly in the database.
func (e *testEnv) admin(t *testing.T, email string) (string, string) {
	t.Helper()
	token, id := e.signup(t, email, "Pasteur")
	require.NoError(t, e.db.Model(&models.Profile{}).Where("id = ?", id).Update("role", models.RoleAdmin).Error)
	return token, id
}

func (e *testEnv) seedPost(t *testing.T, id string, published bool) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:         id,
		Title:      "Title " + id,
		Content:    "Content",
		Excerpt:    "Excerpt",
		Category:   models.CategoryTeaching,
		AuthorID:   "author",
		AuthorName: "Pasteur",
	}
	require.NoError(t, e.db.Create(p).Error)
	if published {
		require.NoError(t, e.db.Model(p).Update("published", true).Error)
		p.Published = true
	}
	return p
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func httptestGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
