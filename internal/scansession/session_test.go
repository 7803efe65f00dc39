package scansession

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/livetocode/vehicle-fleet-poc/internal/config"
)

func buildTestConfig(t *testing.T, root string) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Collector.Output.Formats = []string{"parquet"}
	cfg.Collector.Output.Storage.Kind = "file"
	cfg.Collector.Output.Storage.Folder = root
	return cfg
}

func TestBuildEmptyCorpusFallsBackToDeclaredSchema(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "parquet"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := buildTestConfig(t, root)

	sess, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := sess.Get()
	if h.Format != "parquet" {
		t.Errorf("Format = %q, want parquet", h.Format)
	}
	if err := ResolveColumns(h); err != nil {
		t.Errorf("ResolveColumns: %v", err)
	}
}

func TestRebuildSwapsHandle(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "parquet"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := buildTestConfig(t, root)

	sess, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	before := sess.Get()

	if err := sess.Rebuild(context.Background(), cfg); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	after := sess.Get()
	if before == after {
		t.Error("expected Rebuild to install a new handle")
	}
}
