package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	if _, err := s.Get(ctx, "hasimage"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on empty store, got %v", err)
	}

	if err := s.Set(ctx, "hasvectorimage", "Y"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "hasvectorimage", "N"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Reload from disk to verify persistence
	reloaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	v, err := reloaded.Get(ctx, "hasvectorimage")
	if err != nil || v != "N" {
		t.Errorf("Expected persisted N, got %q (%v)", v, err)
	}

	if err := reloaded.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected preferences file to be removed, stat err = %v", err)
	}
	all, _ := reloaded.All(ctx)
	if len(all) != 0 {
		t.Errorf("Expected empty store after reset, got %v", all)
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("- just\n- a list\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path); err == nil {
		t.Error("Expected parse error for non-mapping YAML")
	}
}

func TestMemoryStoreAllIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	s.Set(ctx, "hasimage", "scanned")

	all, _ := s.All(ctx)
	all["hasimage"] = "tampered"

	v, _ := s.Get(ctx, "hasimage")
	if v != "scanned" {
		t.Errorf("Expected store to be unaffected by caller mutation, got %q", v)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	if p, err := Open(ctx, BackendMemory, "", ""); err != nil || p == nil {
		t.Errorf("Expected memory store, got %v, %v", p, err)
	}
	if _, err := Open(ctx, BackendPostgres, "", ""); err == nil {
		t.Error("Expected error for postgres backend without URL")
	}
	if _, err := Open(ctx, "redis", "", ""); err == nil {
		t.Error("Expected error for unknown backend")
	}
	p, err := Open(ctx, "", filepath.Join(t.TempDir(), "p.yaml"), "")
	if err != nil {
		t.Fatalf("Expected default file store, got %v", err)
	}
	if _, ok := p.(*FileStore); !ok {
		t.Errorf("Expected *FileStore for empty backend, got %T", p)
	}
}
