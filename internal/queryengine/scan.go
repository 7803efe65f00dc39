package queryengine

import (
	"bytes"
	"context"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/livetocode/vehicle-fleet-poc/internal/datastore"
	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
	"github.com/livetocode/vehicle-fleet-poc/internal/eventmodel"
)

const rowBatchSize = 1024

// prunedFiles eliminates files whose pk/start partition tags fail the
// predicates before any bytes are read.
func prunedFiles(objects []datastore.ObjectInfo, fromStr, toStr string, cover map[string]struct{}) []datastore.ObjectInfo {
	var out []datastore.ObjectInfo
	for _, obj := range objects {
		start := obj.Partition["start"]
		if start < fromStr || start >= toStr {
			continue
		}
		pk := obj.Partition["pk"]
		if _, ok := cover[pk]; !ok {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// batchFunc is invoked once per decoded record batch; returning stop=true
// ends iteration across all remaining files.
type batchFunc func(rows []eventmodel.ParquetRow, batchBytes int64) (stop bool, err error)

// iterateBatches reads every pruned file as a sequence of fixed-size row
// batches: each column is decoded together, and elapsed-time/limit
// checks only ever happen at a batch or row boundary, never mid-decode.
func iterateBatches(ctx context.Context, store datastore.Store, format string, files []datastore.ObjectInfo, fn batchFunc) (filesScanned int, err error) {
	if format != "parquet" {
		return 0, engineerr.New(engineerr.SchemaMismatch, "scan: only parquet corpora are readable by this engine")
	}
	for _, obj := range files {
		select {
		case <-ctx.Done():
			return filesScanned, ctx.Err()
		default:
		}
		stop, err := scanOneFile(ctx, store, obj, fn)
		filesScanned++
		if err != nil {
			return filesScanned, err
		}
		if stop {
			return filesScanned, nil
		}
	}
	return filesScanned, nil
}

func scanOneFile(ctx context.Context, store datastore.Store, obj datastore.ObjectInfo, fn batchFunc) (bool, error) {
	rc, err := store.Open(ctx, obj.Key)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return false, engineerr.Wrap(engineerr.StorageError, "read object "+obj.Key, err)
	}

	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false, engineerr.Wrap(engineerr.StorageError, "open parquet object "+obj.Key, err)
	}

	reader := parquet.NewGenericReader[eventmodel.ParquetRow](bytes.NewReader(data))
	defer reader.Close()

	totalRows := pf.NumRows()
	fileBytes := int64(len(data))
	var rowsRead, bytesAttributed int64

	buf := make([]eventmodel.ParquetRow, rowBatchSize)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			rowsRead += int64(n)
			// apportion the file's bytes across batches by row count; the
			// final batch absorbs the rounding remainder so the per-file
			// total is exact.
			batchBytes := fileBytes * int64(n) / totalRows
			if rowsRead == totalRows {
				batchBytes = fileBytes - bytesAttributed
			}
			bytesAttributed += batchBytes

			stop, err := fn(buf[:n], batchBytes)
			if err != nil {
				return false, err
			}
			if stop {
				return true, nil
			}
		}
		if readErr == io.EOF {
			return false, nil
		}
		if readErr != nil {
			return false, engineerr.Wrap(engineerr.StorageError, "decode parquet rows in "+obj.Key, readErr)
		}
	}
}
