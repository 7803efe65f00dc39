// Package config loads the shared generator/collector/finder/hub YAML
// document into a typed Config. Only finder.*, hub and collector.output.*
// are read by this process; the remaining sections are unmarshalled into
// opaque maps so the finder can load the same file the collector and
// generator processes use without erroring on unrecognised keys.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// StorageConfig is the `collector.output.storage` union. Only `file` and
// `azure-blob` are supported by the core; `s3` and `noop` are accepted in
// the document but fail at store-open time.
type StorageConfig struct {
	Kind             string `koanf:"kind"`
	Folder           string `koanf:"folder"`
	AccountName      string `koanf:"accountName"`
	ContainerName    string `koanf:"containerName"`
	ConnectionString string `koanf:"connectionString"`
}

// OutputConfig is `collector.output`.
type OutputConfig struct {
	Formats    []string      `koanf:"formats"`
	FlatLayout bool          `koanf:"flatLayout"`
	Storage    StorageConfig `koanf:"storage"`
}

// CollectorConfig is `collector`; only Output is read by the finder.
type CollectorConfig struct {
	Output OutputConfig `koanf:"output"`
}

// NatsHubConfig is the `hub.nats` shape; the only hub kind the core uses.
type NatsHubConfig struct {
	Protocols []string `koanf:"protocols"`
}

// HubConfig is the `hub` union. `azureServiceBus` and `rabbit` round-trip
// as opaque maps since the core only ever builds a NATS connection.
type HubConfig struct {
	Kind            string                 `koanf:"kind"`
	Nats            NatsHubConfig          `koanf:"nats"`
	AzureServiceBus map[string]interface{} `koanf:"azureServiceBus"`
	Rabbit          map[string]interface{} `koanf:"rabbit"`
}

// FinderConfig is `finder`, the only section this process fully consumes.
type FinderConfig struct {
	DefaultTimeoutMs int `koanf:"defaultTimeoutMs"`
	HTTPPort         int `koanf:"httpPort"`
}

// Config mirrors the full shared config document. Generator, Partitioning,
// Backpressure and ChaosEngineering are present so the struct models the
// document a collector/generator process would also load, but the finder
// never reads them.
type Config struct {
	Finder           FinderConfig           `koanf:"finder"`
	Collector        CollectorConfig        `koanf:"collector"`
	Hub              HubConfig              `koanf:"hub"`
	Generator        map[string]interface{} `koanf:"generator"`
	Partitioning     map[string]interface{} `koanf:"partitioning"`
	Backpressure     map[string]interface{} `koanf:"backpressure"`
	ChaosEngineering map[string]interface{} `koanf:"chaosEngineering"`
}

const (
	envDataFolder      = "DATA_FOLDER"
	envAzureConnString = "VEHICLES_AZURE_STORAGE_CONNECTION_STRING"
	envNatsServers     = "NATS_SERVERS"
	envHTTPPort        = "NODE_HTTP_PORT"
)

var defaults = map[string]interface{}{
	"finder.defaultTimeoutMs":         30000,
	"finder.httpPort":                 8080,
	"collector.output.formats":        []string{"parquet"},
	"collector.output.flatLayout":     false,
	"collector.output.storage.kind":   "file",
	"collector.output.storage.folder": "data",
	"hub.kind":                        "nats",
	"hub.nats.protocols":              []string{"nats://localhost:4222"},
}

// Load reads path (if non-empty and present) over the built-in defaults,
// then applies the recognised environment overrides.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, engineerr.Wrap(engineerr.InvalidConfig, "load config defaults", err)
	}

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, engineerr.Wrap(engineerr.InvalidConfig, "parse config file "+path, err)
			}
		}
	}

	// generic FINDER_* overrides layer on top of the file, ahead of the
	// handful of named overrides below which win over everything.
	_ = k.Load(env.Provider("FINDER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "FINDER_")), "_", ".")
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, engineerr.Wrap(engineerr.InvalidConfig, "unmarshal config", err)
	}

	applyNamedEnvOverrides(&cfg)
	return cfg, nil
}

func applyNamedEnvOverrides(cfg *Config) {
	if v := os.Getenv(envDataFolder); v != "" {
		cfg.Collector.Output.Storage.Folder = v
	}
	if v := os.Getenv(envAzureConnString); v != "" {
		cfg.Collector.Output.Storage.ConnectionString = v
	}
	if v := os.Getenv(envNatsServers); v != "" {
		cfg.Hub.Nats.Protocols = splitCSV(v)
	}
	if v := os.Getenv(envHTTPPort); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Finder.HTTPPort = n
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InstanceIndex computes the numeric instance index: explicit
// INSTANCE_INDEX override, else the trailing `-N` suffix of HOSTNAME, else 0.
func InstanceIndex() int {
	if v := os.Getenv("INSTANCE_INDEX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	host := os.Getenv("HOSTNAME")
	if idx := strings.LastIndex(host, "-"); idx >= 0 && idx < len(host)-1 {
		if n, err := strconv.Atoi(host[idx+1:]); err == nil {
			return n
		}
	}
	return 0
}

func (c Config) String() string {
	return fmt.Sprintf("finder{timeout=%dms port=%d} storage=%s hub=%s",
		c.Finder.DefaultTimeoutMs, c.Finder.HTTPPort, c.Collector.Output.Storage.Kind, c.Hub.Kind)
}
