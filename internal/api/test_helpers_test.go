package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ratewise/ratewise-core/internal/audit"
	"github.com/ratewise/ratewise-core/internal/auth"
	"github.com/ratewise/ratewise-core/internal/infrastructure/config"
	"github.com/ratewise/ratewise-core/internal/infrastructure/logging"
	"github.com/ratewise/ratewise-core/internal/store"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

// plaintextVerifier compares passwords to hashes by equality. Test-only
// stand-in for the real verifier wired in from outside.
type plaintextVerifier struct{}

func (plaintextVerifier) Verify(password, passwordHash string) (bool, error) {
	return password == passwordHash, nil
}

// testEnv is a fully wired API stack over a temp SQLite database.
type testEnv struct {
	server      *Server
	handler     http.Handler
	users       auth.UserRepository
	stores      store.Repository
	issuer      *auth.Issuer
	revocations *auth.MemoryRevocationStore
	db          *sql.DB
}

// newTestEnv builds the full pipeline the way main does, backed by a
// temp database with the production schema.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'normal_user',
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE stores (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			address      TEXT NOT NULL,
			owner_id     TEXT,
			avg_rating   REAL NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE SET NULL
		) STRICT;

		CREATE TABLE ratings (
			user_id    TEXT NOT NULL,
			store_id   TEXT NOT NULL,
			value      INTEGER NOT NULL CHECK (value BETWEEN 1 AND 5),
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (user_id, store_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (store_id) REFERENCES stores(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE audit_logs (
			id         TEXT PRIMARY KEY,
			action     TEXT NOT NULL,
			user_id    TEXT,
			source     TEXT NOT NULL DEFAULT 'api',
			details    TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	users := auth.NewUserRepository(db)
	stores := store.NewRepository(db)
	auditRepo := audit.NewSQLiteRepository(db)

	codec, err := auth.NewCodec(testSecret, "ratewise-core", "ratewise-api")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	revocations := auth.NewMemoryRevocationStore(codec)
	verifier := auth.NewVerifier(codec, revocations, users)
	issuer := auth.NewIssuer(codec, verifier, revocations, 15*time.Minute, 7*24*time.Hour)

	server, err := New(Deps{
		Config:      config.APIConfig{},
		Logger:      logging.Default(),
		Users:       users,
		Stores:      stores,
		Audit:       auditRepo,
		Verifier:    verifier,
		Issuer:      issuer,
		Revocations: revocations,
		Credentials: plaintextVerifier{},
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testEnv{
		server:      server,
		handler:     server.buildRouter(),
		users:       users,
		stores:      stores,
		issuer:      issuer,
		revocations: revocations,
		db:          db,
	}
}

// createUser persists an active account whose password equals its
// plaintext hash under the test credential verifier.
func (e *testEnv) createUser(t *testing.T, email, password string, role auth.Role) *auth.Account {
	t.Helper()

	account := &auth.Account{
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: password,
		Role:         role,
		IsActive:     true,
	}
	if err := e.users.Create(context.Background(), account); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return account
}

// tokenFor issues a pair for the account and returns the access token.
func (e *testEnv) tokenFor(t *testing.T, account *auth.Account) string {
	t.Helper()

	pair, err := e.issuer.IssuePair(account)
	if err != nil {
		t.Fatalf("issuing pair: %v", err)
	}
	return pair.AccessToken
}

// request performs an HTTP request against the test router.
func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a JSON response body into a map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

// errorCode extracts the error code from an error response body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	body := decodeBody(t, rec)
	code, _ := body["code"].(string)
	return code
}
