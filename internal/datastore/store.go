// Package datastore constructs a read-only blob source — local directory
// or cloud blob container — from configuration. The scan session holds
// the store directly; it is not registered under a URL prefix.
package datastore

import (
	"context"
	"io"
	"strings"
)

// ObjectInfo is one listed object: its storage key and the partition
// tags decoded from its directory path.
type ObjectInfo struct {
	Key       string
	Partition map[string]string
	Size      int64
}

// Store abstracts "list files under a partitioned root" and "open a
// whole object for reading". It never mutates storage.
type Store interface {
	List(ctx context.Context, extension string) ([]ObjectInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

var recognisedFormats = map[string]bool{
	"arrow": true, "csv": true, "json": true, "parquet": true,
}

// parsePartitionPath decodes the `y=.../m=.../pk=.../file.ext` directory
// segments of key into a partition tag map; segments without `=` are
// ignored (the final path element is the filename, not a partition tag).
func parsePartitionPath(segments []string) map[string]string {
	tags := make(map[string]string, len(segments))
	for _, seg := range segments {
		eq := strings.IndexByte(seg, '=')
		if eq <= 0 {
			continue
		}
		tags[seg[:eq]] = seg[eq+1:]
	}
	return tags
}
