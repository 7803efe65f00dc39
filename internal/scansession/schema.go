package scansession

import (
	"bytes"
	"context"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/livetocode/vehicle-fleet-poc/internal/datastore"
	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
	"github.com/livetocode/vehicle-fleet-poc/internal/eventmodel"
)

// inferSchema resolves the column names of the corpus from the first
// readable file. Only parquet is read for schema inference today; other
// recognised formats (arrow/csv/json) fall back to the declared event
// schema (see DESIGN.md).
func inferSchema(ctx context.Context, store datastore.Store, format, key string) ([]string, error) {
	if format != "parquet" {
		return eventmodel.Columns, nil
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.StorageError, "read schema sample "+key, err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, engineerr.Wrap(engineerr.SchemaMismatch, "infer parquet schema from "+key, err)
	}

	var names []string
	for _, f := range file.Schema().Fields() {
		names = append(names, f.Name())
	}
	return names, nil
}

// ResolveColumns checks that every name in eventmodel.Columns is present
// in the handle's inferred schema, failing SchemaMismatch otherwise.
func ResolveColumns(h *Handle) error {
	have := make(map[string]bool, len(h.Columns))
	for _, c := range h.Columns {
		have[c] = true
	}
	for _, want := range eventmodel.Columns {
		if !have[want] {
			return engineerr.New(engineerr.SchemaMismatch, "missing column "+want)
		}
	}
	return nil
}
