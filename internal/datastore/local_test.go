package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreListParsesPartitions(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "y=2024", "m=01", "d=01", "hh=06", "mm=50", "start=2024-01-01-06-50", "int=10", "pk=u09tv")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "part-0.parquet"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	objs, err := store.List(context.Background(), "parquet")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objs))
	}
	if objs[0].Partition["pk"] != "u09tv" {
		t.Errorf("pk = %q, want u09tv", objs[0].Partition["pk"])
	}
	if objs[0].Partition["start"] != "2024-01-01-06-50" {
		t.Errorf("start = %q", objs[0].Partition["start"])
	}
}

func TestLocalStoreListMissingRoot(t *testing.T) {
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	objs, err := store.List(context.Background(), "parquet")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 0 {
		t.Errorf("expected no objects, got %d", len(objs))
	}
}
