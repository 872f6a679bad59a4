package filesystem

import (
	"blogfront/core"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// fsStore keeps one directory per client and one file per item.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store rooted at basePath.
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

func (s *fsStore) itemPath(clientID, key string) (string, error) {
	if err := core.CheckKey(clientID); err != nil {
		return "", err
	}
	if err := core.CheckKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, clientID, key), nil
}

func (s *fsStore) GetItem(ctx context.Context, clientID, key string) (string, bool, error) {
	filePath, err := s.itemPath(clientID, key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key}).WithError(err).Error("Failed to read item")
		return "", false, err
	}
	return string(data), true, nil
}

func (s *fsStore) SetItem(ctx context.Context, clientID, key, value string) error {
	filePath, err := s.itemPath(clientID, key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key, "path": filePath})

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		log.WithError(err).Error("Failed to create client directory")
		return err
	}

	// Write to a temp file and rename so readers never see a partial value.
	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+key+"-*")
	if err != nil {
		log.WithError(err).Error("Failed to create temp file")
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		log.WithError(err).Error("Failed to write item")
		return err
	}

	log.Debug("Item stored")
	return nil
}

func (s *fsStore) RemoveItem(ctx context.Context, clientID, key string) error {
	filePath, err := s.itemPath(clientID, key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key}).WithError(err).Error("Failed to remove item")
		return err
	}
	return nil
}
