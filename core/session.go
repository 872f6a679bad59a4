package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Local storage keys, one value each per browser client.
const (
	KeyToken = "token"
	KeyRole  = "role"
	KeyUser  = "user"
)

type (
	// User is the profile returned by the backend on login or registration.
	User struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	// Session is the token/role/user triple held for a logged-in browser.
	// A present token is all it takes to count as authenticated.
	Session struct {
		Token string `json:"token"`
		Role  string `json:"role"`
		User  User   `json:"user"`
	}

	// LocalStorage is a per-client string key/value store, the server-side
	// counterpart of a browser's localStorage.
	LocalStorage interface {
		// GetItem returns the stored value and whether the key was present.
		GetItem(ctx context.Context, clientID, key string) (string, bool, error)
		SetItem(ctx context.Context, clientID, key, value string) error
		// RemoveItem is a no-op for missing keys.
		RemoveItem(ctx context.Context, clientID, key string) error
	}
)

// UnmarshalJSON accepts both "_id" and "id" for the user identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.AltID
	}
	return nil
}

// ErrInvalidKey is returned by stores for client ids or keys that are empty
// or could escape their namespace.
var ErrInvalidKey = errors.New("invalid storage key")

// CheckKey validates a client id or item key before it is used as a path
// segment or object key.
func CheckKey(s string) error {
	if s == "" || s == "." || s == ".." || path.Base(s) != s || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return nil
}
