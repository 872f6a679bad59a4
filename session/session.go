// Package session persists the token/role/user triple of each browser in
// local storage and answers the route-guard predicates.
package session

import (
	"blogfront/core"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Store reads and writes sessions through a core.LocalStorage.
type Store struct {
	storage core.LocalStorage
}

func NewStore(storage core.LocalStorage) *Store {
	return &Store{storage: storage}
}

// Load returns whatever session data is stored for clientID. Missing items
// leave the matching fields empty; a corrupt user item yields an empty
// profile rather than an error.
func (s *Store) Load(ctx context.Context, clientID string) (core.Session, error) {
	var sess core.Session

	token, _, err := s.storage.GetItem(ctx, clientID, core.KeyToken)
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to read token: %w", err)
	}
	role, _, err := s.storage.GetItem(ctx, clientID, core.KeyRole)
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to read role: %w", err)
	}
	rawUser, ok, err := s.storage.GetItem(ctx, clientID, core.KeyUser)
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to read user: %w", err)
	}

	sess.Token = token
	sess.Role = role
	if ok && rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &sess.User); err != nil {
			logrus.WithField("client_id", clientID).WithError(err).Warn("Ignoring corrupt user item")
			sess.User = core.User{}
		}
	}
	return sess, nil
}

// Save persists sess for clientID. An empty role is removed rather than
// stored.
func (s *Store) Save(ctx context.Context, clientID string, sess core.Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.storage.SetItem(ctx, clientID, core.KeyToken, sess.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if sess.Role == "" {
		err = s.storage.RemoveItem(ctx, clientID, core.KeyRole)
	} else {
		err = s.storage.SetItem(ctx, clientID, core.KeyRole, sess.Role)
	}
	if err != nil {
		return fmt.Errorf("failed to store role: %w", err)
	}
	if err := s.storage.SetItem(ctx, clientID, core.KeyUser, string(userJSON)); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// Clear removes every session item for clientID.
func (s *Store) Clear(ctx context.Context, clientID string) error {
	for _, key := range []string{core.KeyToken, core.KeyRole, core.KeyUser} {
		if err := s.storage.RemoveItem(ctx, clientID, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

// IsAuthenticated reports whether a token is present. The token itself is
// never validated.
func IsAuthenticated(sess core.Session) bool {
	return sess.Token != ""
}

// IsAdminAuthenticated additionally requires the role "admin", compared
// case-insensitively.
func IsAdminAuthenticated(sess core.Session) bool {
	if sess.Token == "" || sess.Role == "" {
		return false
	}
	return strings.EqualFold(sess.Role, "admin")
}
