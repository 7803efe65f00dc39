package datastore

import (
	"context"
	"path/filepath"

	"github.com/livetocode/vehicle-fleet-poc/internal/config"
	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// Open builds the Store named by cfg.Collector.Output: a flat
// layout is rejected outright (the executor requires partition-column
// tags), the format defaults to the first configured output format, and
// the local/azure-blob branches resolve their roots from cfg plus the
// recognised environment overrides (already folded into cfg by
// config.Load).
func Open(ctx context.Context, cfg config.Config) (string, Store, error) {
	if cfg.Collector.Output.FlatLayout {
		return "", nil, engineerr.New(engineerr.InvalidConfig, "open store: flat layout is not supported, partition tags are required")
	}

	format := "parquet"
	if len(cfg.Collector.Output.Formats) > 0 {
		format = cfg.Collector.Output.Formats[0]
	}
	if !recognisedFormats[format] {
		return "", nil, engineerr.New(engineerr.InvalidConfig, "open store: unrecognised format "+format)
	}

	storage := cfg.Collector.Output.Storage
	switch storage.Kind {
	case "", "file":
		store, err := NewLocalStore(filepath.Join(storage.Folder, format))
		if err != nil {
			return "", nil, err
		}
		return format, store, nil
	case "azure-blob":
		store, err := NewAzureBlobStore(ctx, storage.AccountName, storage.ContainerName, storage.ConnectionString)
		if err != nil {
			return "", nil, err
		}
		return format, store, nil
	default:
		return "", nil, engineerr.New(engineerr.InvalidConfig, "open store: unsupported storage kind "+storage.Kind)
	}
}
