package datastore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// LocalStore reads a partitioned directory tree on the local filesystem.
// No third-party library improves on os/io.fs for a plain directory walk
// (see DESIGN.md).
type LocalStore struct {
	Root string
}

// NewLocalStore resolves folder to an absolute root, canonicalising it
// if it already exists.
func NewLocalStore(folder string) (*LocalStore, error) {
	abs := folder
	if !filepath.IsAbs(abs) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, engineerr.Wrap(engineerr.StorageError, "resolve cwd", err)
		}
		abs = filepath.Join(cwd, folder)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &LocalStore{Root: abs}, nil
}

func (s *LocalStore) List(ctx context.Context, extension string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	suffix := "." + extension
	walkErr := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() || !strings.HasSuffix(path, suffix) {
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ObjectInfo{
			Key:       rel,
			Partition: parsePartitionPath(strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")),
			Size:      info.Size(),
		})
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil, nil
		}
		return nil, engineerr.Wrap(engineerr.StorageError, "list local store", walkErr)
	}
	return out, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Root, key))
	if err != nil {
		return nil, engineerr.Wrap(engineerr.StorageError, "open local object "+key, err)
	}
	return f, nil
}
