package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/giygas/rxcomposer/interfaces"
)

func openStores(t *testing.T) map[string]interfaces.KVStore {
	t.Helper()
	sq, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]interfaces.KVStore{
		"sqlite": sq,
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, KeyCart); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := s.Set(ctx, KeyCart, []byte(`[1]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, KeyCart, []byte(`[1,2]`)); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}

			got, err := s.Get(ctx, KeyCart)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `[1,2]` {
				t.Errorf("expected [1,2], got %s", got)
			}

			if err := s.Delete(ctx, KeyCart); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, KeyCart); err != nil {
				t.Errorf("deleting a missing key should succeed, got %v", err)
			}
			if _, err := s.Get(ctx, KeyCart); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}

			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping: %v", err)
			}
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type row struct {
		ID string `json:"id"`
	}

	if err := Prepend(ctx, s, KeyPatients, row{ID: "a"}); err != nil {
		t.Fatalf("Prepend: %v", err)
	}
	if err := Prepend(ctx, s, KeyPatients, row{ID: "b"}); err != nil {
		t.Fatalf("Prepend: %v", err)
	}

	var rows []row
	if err := GetJSON(ctx, s, KeyPatients, &rows); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "b" || rows[1].ID != "a" {
		t.Errorf("expected newest first, got %+v", rows)
	}

	if err := s.Set(ctx, KeyBranding, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := GetJSON(ctx, s, KeyBranding, &v); err == nil {
		t.Error("expected decode error for corrupt record")
	}
}

func TestMemoryStoreFailing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.SetFailing(true)

	if err := s.Set(ctx, KeyCart, []byte("x")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Ping, got %v", err)
	}

	s.SetFailing(false)
	if err := s.Set(ctx, KeyCart, []byte("x")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if s.Writes() != 1 {
		t.Errorf("expected 1 write, got %d", s.Writes())
	}
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Set(context.Background(), KeyBranding, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(context.Background(), KeyBranding)
	if err != nil {
		t.Fatalf("record should survive reopen: %v", err)
	}
	if string(got) != `{}` {
		t.Errorf("unexpected value %s", got)
	}
}
