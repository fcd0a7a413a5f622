// Package credstore persists the OAuth2 bearer credential and in-flight PKCE
// verifiers. The authorization redirect is a full round trip through the
// browser, so verifiers cannot live in process memory; they are written here
// keyed by state and removed on first read.
package credstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// VerifierTTL bounds how long an unconsumed PKCE verifier survives. Anything
// older belongs to an abandoned login attempt.
const VerifierTTL = 15 * time.Minute

const schema = `
CREATE TABLE IF NOT EXISTS credential (
	slot       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS pkce_verifier (
	state      TEXT PRIMARY KEY,
	verifier   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

const credentialSlot = "bearer"

// Credential is the serialized upstream bearer credential.
type Credential struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthorizationValue renders the credential as an Authorization header value.
func (c Credential) AuthorizationValue() string {
	tt := c.TokenType
	if tt == "" {
		tt = "Bearer"
	}
	return tt + " " + c.AccessToken
}

// Store wraps a SQLite database holding one credential slot plus short-lived
// verifier slots.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store in dataDir. Pass ":memory:" for an
// in-memory store (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "quotedesk.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCredential writes the bearer credential into its slot, replacing any
// previous value.
func (s *Store) SaveCredential(cred Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO credential (slot, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
	`, credentialSlot, string(payload))
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// LoadCredential returns the stored credential, or nil when the slot is empty.
func (s *Store) LoadCredential() (*Credential, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM credential WHERE slot = ?", credentialSlot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(payload), &cred); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, nil
	}
	return &cred, nil
}

// ClearCredential empties the credential slot.
func (s *Store) ClearCredential() error {
	if _, err := s.db.Exec("DELETE FROM credential WHERE slot = ?", credentialSlot); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

// PutVerifier stores a PKCE verifier keyed by its state value and sweeps any
// expired slots from abandoned attempts.
func (s *Store) PutVerifier(state, verifier string) error {
	cutoff := time.Now().Add(-VerifierTTL).Unix()
	if _, err := s.db.Exec("DELETE FROM pkce_verifier WHERE created_at < ?", cutoff); err != nil {
		return fmt.Errorf("purging verifiers: %w", err)
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO pkce_verifier (state, verifier, created_at) VALUES (?, ?, ?)",
		state, verifier, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving verifier: %w", err)
	}
	return nil
}

// TakeVerifier returns the verifier for state and deletes it. A verifier is
// single-use: a second Take for the same state reports not-found.
func (s *Store) TakeVerifier(state string) (string, bool, error) {
	var verifier string
	var created int64
	err := s.db.QueryRow(
		"SELECT verifier, created_at FROM pkce_verifier WHERE state = ?", state,
	).Scan(&verifier, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading verifier: %w", err)
	}

	if _, err := s.db.Exec("DELETE FROM pkce_verifier WHERE state = ?", state); err != nil {
		return "", false, fmt.Errorf("deleting verifier: %w", err)
	}

	if time.Unix(created, 0).Before(time.Now().Add(-VerifierTTL)) {
		return "", false, nil
	}
	return verifier, true, nil
}

// ClearVerifiers removes every in-flight verifier (used by logout).
func (s *Store) ClearVerifiers() error {
	if _, err := s.db.Exec("DELETE FROM pkce_verifier"); err != nil {
		return fmt.Errorf("clearing verifiers: %w", err)
	}
	return nil
}
