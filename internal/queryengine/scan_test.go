package queryengine

import (
	"testing"

	"github.com/livetocode/vehicle-fleet-poc/internal/datastore"
)

func TestPrunedFiles(t *testing.T) {
	objects := []datastore.ObjectInfo{
		{Key: "a", Partition: map[string]string{"start": "2024-01-01-06-40", "pk": "u09tv"}},
		{Key: "b", Partition: map[string]string{"start": "2024-01-01-06-50", "pk": "u09tv"}},
		{Key: "c", Partition: map[string]string{"start": "2024-01-01-06-50", "pk": "gbsuv"}},
		{Key: "d", Partition: map[string]string{"start": "2024-01-01-07-00", "pk": "u09tv"}},
	}
	cover := map[string]struct{}{"u09tv": {}}

	got := prunedFiles(objects, "2024-01-01-06-50", "2024-01-01-07-00", cover)
	if len(got) != 1 || got[0].Key != "b" {
		t.Errorf("prunedFiles = %+v, want only key b", got)
	}
}

func TestPrunedFilesEmptyCover(t *testing.T) {
	objects := []datastore.ObjectInfo{
		{Key: "a", Partition: map[string]string{"start": "2024-01-01-06-50", "pk": "u09tv"}},
	}
	if got := prunedFiles(objects, "2024-01-01-06-50", "2024-01-01-07-00", nil); len(got) != 0 {
		t.Errorf("prunedFiles = %+v, want empty", got)
	}
}
