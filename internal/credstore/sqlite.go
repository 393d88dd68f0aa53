package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/security"
	_ "modernc.org/sqlite"
)

const (
	keyAccess   = "access"
	keyRefresh  = "refresh"
	keyEmail    = "email"
	keyFullName = "full_name"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS credentials (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)
`

// SQLiteStore persists credentials in a local SQLite file so they survive
// restarts of the client. Token values are encrypted when an Encryptor is set.
type SQLiteStore struct {
	db        *sql.DB
	encryptor *security.Encryptor
}

// OpenSQLite opens (or creates) the credential database at path
func OpenSQLite(ctx context.Context, path string, encryptor *security.Encryptor) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credential store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare credential store: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to restrict credential file: %w", err)
	}

	return &SQLiteStore{db: db, encryptor: encryptor}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Credentials, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM credentials`)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to scan credential: %w", err)
		}
		plain, err := s.open(key, value)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to decrypt credential %q: %w", key, err)
		}
		values[key] = plain
	}
	if err := rows.Err(); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	return domain.Credentials{
		AccessToken:  values[keyAccess],
		RefreshToken: values[keyRefresh],
		Profile: domain.Profile{
			Email:       values[keyEmail],
			DisplayName: values[keyFullName],
		},
	}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, creds domain.Credentials) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to reset credentials: %w", err)
	}

	values := map[string]string{
		keyAccess:   creds.AccessToken,
		keyRefresh:  creds.RefreshToken,
		keyEmail:    creds.Profile.Email,
		keyFullName: creds.Profile.DisplayName,
	}
	for key, value := range values {
		if value == "" {
			continue
		}
		if err := s.put(ctx, tx, key, value); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTokens(ctx context.Context, accessToken, refreshToken string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.put(ctx, tx, keyAccess, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.put(ctx, tx, keyRefresh, refreshToken); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tokens: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *SQLiteStore) put(ctx context.Context, tx *sql.Tx, key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential %q: %w", key, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, sealed)
	if err != nil {
		return fmt.Errorf("failed to store credential %q: %w", key, err)
	}
	return nil
}

// seal binds each value to its row key so rows cannot be swapped
func (s *SQLiteStore) seal(key, value string) (string, error) {
	if s.encryptor == nil {
		return value, nil
	}
	return s.encryptor.SealString(key, value)
}

func (s *SQLiteStore) open(key, value string) (string, error) {
	if s.encryptor == nil {
		return value, nil
	}
	return s.encryptor.OpenString(key, value)
}
