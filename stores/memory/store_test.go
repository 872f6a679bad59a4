package memory

import (
	"blogfront/core"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestNewStore(t *testing.T) {
	if NewStore() == nil {
		t.Fatal("NewStore() returned nil")
	}
}

func TestSetAndGetItem(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SetItem(ctx, "client-1", core.KeyToken, "abc"); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}

	val, ok, err := store.GetItem(ctx, "client-1", core.KeyToken)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if !ok || val != "abc" {
		t.Errorf("GetItem() = %q, %v; want %q, true", val, ok, "abc")
	}
}

func TestGetItem_Missing(t *testing.T) {
	store := NewStore()

	val, ok, err := store.GetItem(context.Background(), "client-1", core.KeyRole)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if ok || val != "" {
		t.Errorf("GetItem() = %q, %v; want empty, false", val, ok)
	}
}

func TestClientsAreIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.SetItem(ctx, "client-1", core.KeyToken, "one")
	store.SetItem(ctx, "client-2", core.KeyToken, "two")

	val, _, _ := store.GetItem(ctx, "client-1", core.KeyToken)
	if val != "one" {
		t.Errorf("client-1 token = %q, want %q", val, "one")
	}
}

func TestSetItem_Overwrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.SetItem(ctx, "client-1", core.KeyRole, "user")
	store.SetItem(ctx, "client-1", core.KeyRole, "admin")

	val, _, _ := store.GetItem(ctx, "client-1", core.KeyRole)
	if val != "admin" {
		t.Errorf("role = %q, want %q", val, "admin")
	}
}

func TestRemoveItem(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.SetItem(ctx, "client-1", core.KeyToken, "abc")
	if err := store.RemoveItem(ctx, "client-1", core.KeyToken); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}

	if _, ok, _ := store.GetItem(ctx, "client-1", core.KeyToken); ok {
		t.Error("item still present after RemoveItem()")
	}

	// Removing again, or for an unknown client, is not an error.
	if err := store.RemoveItem(ctx, "client-1", core.KeyToken); err != nil {
		t.Errorf("second RemoveItem() failed: %v", err)
	}
	if err := store.RemoveItem(ctx, "nobody", core.KeyToken); err != nil {
		t.Errorf("RemoveItem() for unknown client failed: %v", err)
	}
}

func TestInvalidKeys(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, id := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := store.SetItem(ctx, id, core.KeyToken, "x"); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("SetItem(%q) error = %v, want ErrInvalidKey", id, err)
		}
		if _, _, err := store.GetItem(ctx, "client-1", id); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("GetItem(key %q) error = %v, want ErrInvalidKey", id, err)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := fmt.Sprintf("client-%d", i%5)
			store.SetItem(ctx, client, core.KeyToken, fmt.Sprint(i))
			store.GetItem(ctx, client, core.KeyToken)
			store.RemoveItem(ctx, client, core.KeyRole)
		}(i)
	}
	wg.Wait()
}
