package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Finder.DefaultTimeoutMs != 30000 {
		t.Errorf("DefaultTimeoutMs = %d, want 30000", cfg.Finder.DefaultTimeoutMs)
	}
	if cfg.Finder.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.Finder.HTTPPort)
	}
	if len(cfg.Collector.Output.Formats) == 0 || cfg.Collector.Output.Formats[0] != "parquet" {
		t.Errorf("Formats = %v, want [parquet ...]", cfg.Collector.Output.Formats)
	}
	if cfg.Hub.Kind != "nats" {
		t.Errorf("Hub.Kind = %q, want nats", cfg.Hub.Kind)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := []byte(`
finder:
  defaultTimeoutMs: 5000
  httpPort: 9999
collector:
  output:
    formats: [parquet, csv]
    storage:
      kind: file
      folder: /var/data
hub:
  kind: nats
  nats:
    protocols: [nats://bus:4222]
`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Finder.DefaultTimeoutMs != 5000 {
		t.Errorf("DefaultTimeoutMs = %d, want 5000", cfg.Finder.DefaultTimeoutMs)
	}
	if cfg.Collector.Output.Storage.Folder != "/var/data" {
		t.Errorf("Folder = %q, want /var/data", cfg.Collector.Output.Storage.Folder)
	}
	if len(cfg.Hub.Nats.Protocols) != 1 || cfg.Hub.Nats.Protocols[0] != "nats://bus:4222" {
		t.Errorf("Protocols = %v", cfg.Hub.Nats.Protocols)
	}
}

func TestNamedEnvOverridesWin(t *testing.T) {
	t.Setenv("DATA_FOLDER", "/override/data")
	t.Setenv("NATS_SERVERS", "nats://a:4222, nats://b:4222")
	t.Setenv("NODE_HTTP_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collector.Output.Storage.Folder != "/override/data" {
		t.Errorf("Folder = %q, want /override/data", cfg.Collector.Output.Storage.Folder)
	}
	want := []string{"nats://a:4222", "nats://b:4222"}
	if len(cfg.Hub.Nats.Protocols) != 2 || cfg.Hub.Nats.Protocols[0] != want[0] || cfg.Hub.Nats.Protocols[1] != want[1] {
		t.Errorf("Protocols = %v, want %v", cfg.Hub.Nats.Protocols, want)
	}
	if cfg.Finder.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want 7070", cfg.Finder.HTTPPort)
	}
}

func TestInstanceIndex(t *testing.T) {
	t.Setenv("INSTANCE_INDEX", "4")
	if got := InstanceIndex(); got != 4 {
		t.Errorf("InstanceIndex = %d, want 4", got)
	}

	t.Setenv("INSTANCE_INDEX", "")
	t.Setenv("HOSTNAME", "finder-2")
	if got := InstanceIndex(); got != 2 {
		t.Errorf("InstanceIndex = %d, want 2", got)
	}

	t.Setenv("HOSTNAME", "finder")
	if got := InstanceIndex(); got != 0 {
		t.Errorf("InstanceIndex = %d, want 0", got)
	}
}
