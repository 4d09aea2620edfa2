/*
Package twin is a local stand-in for the commerce platform.

PURPOSE:
  Development and integration testing need a platform to talk to without
  network access or a paid store. The twin speaks the same /graphql
  contract the real platform does and persists customer metafields in
  SQLite, so the real platform client runs against it unchanged.

KEY TABLES:
  customers:   id, access token, email
  metafields:  one row per (customer, namespace, key), upserted on write

CONCURRENCY:
  A sync.RWMutex guards the database handle, mirroring the platform's
  last-write-wins behavior: the twin deliberately offers no conditional
  writes, so the race the loyalty service guards against in-process is
  reproducible here.

WAL MODE:
  SQLite is opened with WAL so readers don't block the writer.

SEE ALSO:
  - server.go: the /graphql endpoint
  - platform/client.go: the client exercised against this twin
*/
package twin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meridian/loyalty-engine/platform"
)

// Store persists twin state in SQLite. ":memory:" works for throwaway
// runs; the pool is capped at one connection so every caller sees the
// same in-memory database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and migrates) the twin database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		access_token TEXT UNIQUE NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metafields (
		customer_id TEXT NOT NULL,
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (customer_id, namespace, key),
		FOREIGN KEY (customer_id) REFERENCES customers(id)
	);

	CREATE INDEX IF NOT EXISTS idx_metafields_customer
		ON metafields(customer_id, namespace);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SeedCustomer registers a customer with an access token. Used by the
// twin's admin endpoint and by tests.
func (s *Store) SeedCustomer(ctx context.Context, id, token, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, access_token, email, created_at) VALUES (?, ?, ?, ?)`,
		id, token, email, time.Now().UTC().Format(time.RFC3339))
	return err
}

// CustomerIDByToken resolves an access token. Returns "" when unknown.
func (s *Store) CustomerIDByToken(ctx context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM customers WHERE access_token = ?`, token).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// CustomerExists reports whether a customer id is registered.
func (s *Store) CustomerExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM customers WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// GetMetafields returns the requested keys for one customer. Missing
// keys are simply absent from the result, as on the real platform.
func (s *Store) GetMetafields(ctx context.Context, customerID, namespace string, keys []string) ([]platform.Metafield, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(keys) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]
	args := []any{customerID, namespace}
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, type, value FROM metafields
		 WHERE customer_id = ? AND namespace = ? AND key IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []platform.Metafield
	for rows.Next() {
		var f platform.Metafield
		if err := rows.Scan(&f.Key, &f.Type, &f.Value); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

var knownTypes = map[string]bool{
	platform.TypeInteger:  true,
	platform.TypeDecimal:  true,
	platform.TypeText:     true,
	platform.TypeDateTime: true,
	platform.TypeJSON:     true,
}

// SetMetafields upserts the given fields for one customer. An unknown
// value type yields a user error, matching the platform's validation.
func (s *Store) SetMetafields(ctx context.Context, customerID string, inputs []platform.MetafieldInput) []platform.UserError {
	s.mu.Lock()
	defer s.mu.Unlock()

	var userErrors []platform.UserError
	now := time.Now().UTC().Format(time.RFC3339)

	for _, in := range inputs {
		if !knownTypes[in.Type] {
			userErrors = append(userErrors, platform.UserError{
				Field:   []string{"metafields", in.Key, "type"},
				Message: fmt.Sprintf("Type %q is not a valid metafield type", in.Type),
			})
			continue
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO metafields (customer_id, namespace, key, type, value, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(customer_id, namespace, key)
			 DO UPDATE SET type = excluded.type, value = excluded.value, updated_at = excluded.updated_at`,
			customerID, in.Namespace, in.Key, in.Type, in.Value, now)
		if err != nil {
			userErrors = append(userErrors, platform.UserError{
				Field:   []string{"metafields", in.Key},
				Message: err.Error(),
			})
		}
	}
	return userErrors
}
