// Package scansession holds the cached, replaceable handle to the
// columnar corpus: a registered store, its inferred schema and its
// partition-column layout. Readers observe either the prior or the new
// handle on replacement, never a torn composite.
package scansession

import (
	"context"
	"sync/atomic"

	"github.com/livetocode/vehicle-fleet-poc/internal/config"
	"github.com/livetocode/vehicle-fleet-poc/internal/datastore"
	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
	"github.com/livetocode/vehicle-fleet-poc/internal/eventmodel"
)

// RootURL is the logical prefix name for the session's store. No
// registry exists: the store is reached only through Handle.Store.
const RootURL = "events:///"

// TableName is the logical table name of the corpus. No registry exists:
// the table is reached only through the Session's Get.
const TableName = "events"

// Handle is the immutable snapshot a query captures at the start of
// execution; in-flight queries keep using their captured handle across a
// concurrent Rebuild.
type Handle struct {
	Format           string
	Store            datastore.Store
	PartitionColumns []string
	Columns          []string
}

// Session is the shared, atomically-swappable handle. Multi-reader,
// single-writer: Get is safe from any number of goroutines concurrently
// with a Rebuild.
type Session struct {
	handle atomic.Pointer[Handle]
}

// Build constructs the initial handle for cfg: opens the store and infers
// the column schema from the first listed file. The store and table are
// not registered under RootURL or TableName.
func Build(ctx context.Context, cfg config.Config) (*Session, error) {
	s := &Session{}
	if err := s.Rebuild(ctx, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild re-derives a handle from cfg and atomically swaps it in. Used
// both for the initial Build and for reacting to a generation-stopped
// lifecycle event.
func (s *Session) Rebuild(ctx context.Context, cfg config.Config) error {
	format, store, err := datastore.Open(ctx, cfg)
	if err != nil {
		return err
	}

	objects, err := store.List(ctx, format)
	if err != nil {
		return err
	}

	columns := eventmodel.Columns
	if len(objects) > 0 {
		inferred, err := inferSchema(ctx, store, format, objects[0].Key)
		if err != nil {
			return err
		}
		columns = inferred
	}

	s.handle.Store(&Handle{
		Format:           format,
		Store:            store,
		PartitionColumns: eventmodel.PartitionColumns,
		Columns:          columns,
	})
	return nil
}

// Get returns the current handle.
func (s *Session) Get() *Handle {
	h := s.handle.Load()
	if h == nil {
		panic(engineerr.New(engineerr.Exception, "scansession: Get called before Build"))
	}
	return h
}
