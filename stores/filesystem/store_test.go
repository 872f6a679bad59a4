package filesystem

import (
	"blogfront/core"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *fsStore {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	return store
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "path")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("NewStore() did not create nested directory structure")
	}
}

func TestSetAndGetItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := `{"_id":"u1","name":"Ann"}`
	if err := store.SetItem(ctx, "client-1", core.KeyUser, user); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}

	val, ok, err := store.GetItem(ctx, "client-1", core.KeyUser)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if !ok || val != user {
		t.Errorf("GetItem() = %q, %v; want %q, true", val, ok, user)
	}

	if _, err := os.Stat(filepath.Join(store.basePath, "client-1", core.KeyUser)); err != nil {
		t.Errorf("item file not written: %v", err)
	}
}

func TestGetItem_Missing(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.GetItem(context.Background(), "client-1", core.KeyToken)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if ok {
		t.Error("GetItem() reported a missing item as present")
	}
}

func TestSetItem_EmptyValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.SetItem(ctx, "client-1", core.KeyRole, "")

	val, ok, _ := store.GetItem(ctx, "client-1", core.KeyRole)
	if !ok || val != "" {
		t.Errorf("GetItem() = %q, %v; want empty, true", val, ok)
	}
}

func TestRemoveItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.SetItem(ctx, "client-1", core.KeyToken, "abc")
	if err := store.RemoveItem(ctx, "client-1", core.KeyToken); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if _, ok, _ := store.GetItem(ctx, "client-1", core.KeyToken); ok {
		t.Error("item still present after RemoveItem()")
	}
	if err := store.RemoveItem(ctx, "client-1", core.KeyToken); err != nil {
		t.Errorf("RemoveItem() of missing item failed: %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"..", "../etc", "a/b"} {
		if err := store.SetItem(ctx, id, core.KeyToken, "x"); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("SetItem(%q) error = %v, want ErrInvalidKey", id, err)
		}
		if _, _, err := store.GetItem(ctx, "client-1", id); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("GetItem(key %q) error = %v, want ErrInvalidKey", id, err)
		}
	}
}
