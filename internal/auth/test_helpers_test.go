package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

// testDB creates a temporary SQLite database with the users schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
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
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating users table: %v", err)
	}

	return db
}

// testCodec creates a codec with a fixed test secret.
func testCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec(testSecret, "ratewise-core", "ratewise-api")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return codec
}

// testAccount creates and persists an active account with the given role.
func testAccount(t *testing.T, repo UserRepository, email string, role Role) *Account {
	t.Helper()

	account := &Account{
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: "$argon2id$fake-hash",
		Role:         role,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("creating test account: %v", err)
	}
	return account
}

// issueToken encodes a token with the test codec for the given account
// and kind.
func issueToken(t *testing.T, codec *Codec, account *Account, kind TokenKind, ttl time.Duration) string {
	t.Helper()

	claims := Claims{
		Role:        account.Role,
		DisplayName: account.DisplayName,
		Email:       account.Email,
		Kind:        kind,
	}
	claims.Subject = account.ID

	token, err := codec.Encode(claims, ttl)
	if err != nil {
		t.Fatalf("encoding token: %v", err)
	}
	return token
}
