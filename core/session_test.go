package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestUserRoundTripKeepsUnderscoreID(t *testing.T) {
	raw, err := json.Marshal(User{ID: "u1", Name: "Ann", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" || u.Role != "admin" {
		t.Errorf("user = %+v", u)
	}
}

func TestUserAcceptsPlainID(t *testing.T) {
	var u User
	json.Unmarshal([]byte(`{"id":"u9"}`), &u)
	if u.ID != "u9" {
		t.Errorf("ID = %q", u.ID)
	}
}

func TestCheckKey(t *testing.T) {
	for _, ok := range []string{"token", "01HZX3", "user.json"} {
		if err := CheckKey(ok); err != nil {
			t.Errorf("CheckKey(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "../x"} {
		if err := CheckKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("CheckKey(%q) = %v, want ErrInvalidKey", bad, err)
		}
	}
}
