package sqlite

import (
	"blogfront/core"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at dataSourceName.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	store, err := NewStoreFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStoreFromDB wraps an already opened database and ensures the schema.
func NewStoreFromDB(db *sql.DB) (*sqliteStore, error) {
	tableStmt := `
	CREATE TABLE IF NOT EXISTS local_storage (
		client_id TEXT NOT NULL,
		item_key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME,
		PRIMARY KEY (client_id, item_key)
	);`
	if _, err := db.Exec(tableStmt); err != nil {
		return nil, fmt.Errorf("failed to create local_storage table: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) GetItem(ctx context.Context, clientID, key string) (string, bool, error) {
	if err := checkKeys(clientID, key); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM local_storage WHERE client_id = ? AND item_key = ?", clientID, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key}).WithError(err).Error("Failed to read item")
		return "", false, err
	}
	return value, true, nil
}

func (s *sqliteStore) SetItem(ctx context.Context, clientID, key, value string) error {
	if err := checkKeys(clientID, key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_storage (client_id, item_key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, item_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		clientID, key, value, time.Now())
	if err != nil {
		logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key}).WithError(err).Error("Failed to store item")
		return err
	}
	return nil
}

func (s *sqliteStore) RemoveItem(ctx context.Context, clientID, key string) error {
	if err := checkKeys(clientID, key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM local_storage WHERE client_id = ? AND item_key = ?", clientID, key)
	return err
}

func checkKeys(clientID, key string) error {
	if err := core.CheckKey(clientID); err != nil {
		return err
	}
	return core.CheckKey(key)
}
