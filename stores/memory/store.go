package memory

import (
	"blogfront/core"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// memStore implements core.LocalStorage in process memory. Items are lost on
// restart, which logs every browser out.
type memStore struct {
	mu sync.RWMutex
	// items maps clientID to that client's key/value pairs.
	items map[string]map[string]string
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{items: make(map[string]map[string]string)}
}

func (s *memStore) GetItem(ctx context.Context, clientID, key string) (string, bool, error) {
	if err := checkKeys(clientID, key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.items[clientID][key]
	return val, ok, nil
}

func (s *memStore) SetItem(ctx context.Context, clientID, key, value string) error {
	if err := checkKeys(clientID, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clientItems, ok := s.items[clientID]
	if !ok {
		clientItems = make(map[string]string)
		s.items[clientID] = clientItems
	}
	clientItems[key] = value

	logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key}).Debug("Item stored")
	return nil
}

func (s *memStore) RemoveItem(ctx context.Context, clientID, key string) error {
	if err := checkKeys(clientID, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clientItems, ok := s.items[clientID]
	if !ok {
		return nil
	}
	delete(clientItems, key)
	if len(clientItems) == 0 {
		delete(s.items, clientID)
	}

	logrus.WithFields(logrus.Fields{"client_id": clientID, "key": key}).Debug("Item removed")
	return nil
}

func checkKeys(clientID, key string) error {
	if err := core.CheckKey(clientID); err != nil {
		return err
	}
	return core.CheckKey(key)
}
