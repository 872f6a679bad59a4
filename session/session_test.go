package session

import (
	"blogfront/core"
	"blogfront/stores/memory"
	"context"
	"errors"
	"testing"
)

// failingStorage fails every call.
type failingStorage struct{}

func (failingStorage) GetItem(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("storage down")
}
func (failingStorage) SetItem(context.Context, string, string, string) error {
	return errors.New("storage down")
}
func (failingStorage) RemoveItem(context.Context, string, string) error {
	return errors.New("storage down")
}

func TestSaveAndLoad(t *testing.T) {
	store := NewStore(memory.NewStore())
	ctx := context.Background()

	want := core.Session{
		Token: "tok",
		Role:  "Admin",
		User:  core.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: "Admin"},
	}
	if err := store.Save(ctx, "client-1", want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Load(ctx, "client-1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSave_StoresUserAsJSON(t *testing.T) {
	storage := memory.NewStore()
	store := NewStore(storage)
	ctx := context.Background()

	store.Save(ctx, "client-1", core.Session{Token: "tok", User: core.User{ID: "u1", Name: "Ann"}})

	raw, ok, _ := storage.GetItem(ctx, "client-1", core.KeyUser)
	if !ok {
		t.Fatal("user item not stored")
	}
	if raw != `{"_id":"u1","name":"Ann","email":"","role":""}` {
		t.Errorf("user item = %s", raw)
	}
	if _, ok, _ := storage.GetItem(ctx, "client-1", core.KeyRole); ok {
		t.Error("empty role should not be stored")
	}
}

func TestLoad_Empty(t *testing.T) {
	store := NewStore(memory.NewStore())

	got, err := store.Load(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got != (core.Session{}) {
		t.Errorf("Load() = %+v, want zero session", got)
	}
}

func TestLoad_CorruptUser(t *testing.T) {
	storage := memory.NewStore()
	ctx := context.Background()
	storage.SetItem(ctx, "client-1", core.KeyToken, "tok")
	storage.SetItem(ctx, "client-1", core.KeyUser, "{not json")

	got, err := NewStore(storage).Load(ctx, "client-1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Token != "tok" || got.User != (core.User{}) {
		t.Errorf("Load() = %+v", got)
	}
}

func TestLoad_StorageError(t *testing.T) {
	if _, err := NewStore(failingStorage{}).Load(context.Background(), "client-1"); err == nil {
		t.Error("Load() expected error")
	}
}

func TestClear(t *testing.T) {
	store := NewStore(memory.NewStore())
	ctx := context.Background()

	store.Save(ctx, "client-1", core.Session{Token: "tok", Role: "admin", User: core.User{ID: "u1"}})
	if err := store.Clear(ctx, "client-1"); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	got, _ := store.Load(ctx, "client-1")
	if got != (core.Session{}) {
		t.Errorf("Load() after Clear() = %+v", got)
	}
}

func TestIsAuthenticated(t *testing.T) {
	if IsAuthenticated(core.Session{}) {
		t.Error("empty session should not be authenticated")
	}
	if !IsAuthenticated(core.Session{Token: "x"}) {
		t.Error("token presence should be enough")
	}
}

func TestIsAdminAuthenticated(t *testing.T) {
	tests := []struct {
		name string
		sess core.Session
		want bool
	}{
		{"no token", core.Session{Role: "admin"}, false},
		{"no role", core.Session{Token: "t"}, false},
		{"user role", core.Session{Token: "t", Role: "user"}, false},
		{"admin", core.Session{Token: "t", Role: "admin"}, true},
		{"ADMIN", core.Session{Token: "t", Role: "ADMIN"}, true},
		{"Admin", core.Session{Token: "t", Role: "Admin"}, true},
		{"admin with spaces", core.Session{Token: "t", Role: " admin "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdminAuthenticated(tt.sess); got != tt.want {
				t.Errorf("IsAdminAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}
