package sqlite

import (
	"blogfront/core"
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*sqliteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS local_storage").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewStoreFromDB(db)
	if err != nil {
		t.Fatalf("NewStoreFromDB() failed: %v", err)
	}
	return store, mock
}

func TestNewStoreFromDB_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS local_storage").WillReturnError(errors.New("disk full"))
	if _, err := NewStoreFromDB(db); err == nil {
		t.Fatal("NewStoreFromDB() expected error")
	}
}

func TestGetItem(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM local_storage WHERE client_id = ? AND item_key = ?")).
		WithArgs("client-1", core.KeyToken).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("abc"))

	val, ok, err := store.GetItem(context.Background(), "client-1", core.KeyToken)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if !ok || val != "abc" {
		t.Errorf("GetItem() = %q, %v; want %q, true", val, ok, "abc")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetItem_Missing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM local_storage").
		WithArgs("client-1", core.KeyRole).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, ok, err := store.GetItem(context.Background(), "client-1", core.KeyRole)
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if ok {
		t.Error("GetItem() reported a missing row as present")
	}
}

func TestGetItem_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM local_storage").WillReturnError(errors.New("locked"))

	if _, _, err := store.GetItem(context.Background(), "client-1", core.KeyRole); err == nil {
		t.Error("GetItem() expected error")
	}
}

func TestSetItem_Upserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO local_storage .* ON CONFLICT").
		WithArgs("client-1", core.KeyRole, "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SetItem(context.Background(), "client-1", core.KeyRole, "admin"); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRemoveItem(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM local_storage WHERE client_id = ? AND item_key = ?")).
		WithArgs("client-1", core.KeyUser).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.RemoveItem(context.Background(), "client-1", core.KeyUser); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInvalidKeysNeverReachTheDatabase(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	if err := store.SetItem(ctx, "../x", core.KeyToken, "v"); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("SetItem() error = %v, want ErrInvalidKey", err)
	}
	if _, _, err := store.GetItem(ctx, "client-1", ""); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("GetItem() error = %v, want ErrInvalidKey", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRoundTripOnDisk(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.SetItem(ctx, "client-1", core.KeyToken, "first"); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}
	if err := store.SetItem(ctx, "client-1", core.KeyToken, "second"); err != nil {
		t.Fatalf("SetItem() overwrite failed: %v", err)
	}

	val, ok, err := store.GetItem(ctx, "client-1", core.KeyToken)
	if err != nil || !ok || val != "second" {
		t.Errorf("GetItem() = %q, %v, %v; want %q", val, ok, err, "second")
	}

	if err := store.RemoveItem(ctx, "client-1", core.KeyToken); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if _, ok, _ := store.GetItem(ctx, "client-1", core.KeyToken); ok {
		t.Error("item still present after RemoveItem()")
	}
}
