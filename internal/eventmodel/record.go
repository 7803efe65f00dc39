// Package eventmodel declares the columnar event-record schema and its
// partition-key layout.
package eventmodel

// Columns lists the projected columns of an event record, in the order
// the query executor resolves them against the corpus schema.
var Columns = []string{
	"timestamp", "gpsLat", "gpsLon", "gpsAlt", "vehicleId", "vehicleType", "direction", "geoHash", "speed",
}

// PartitionColumns lists the eight partition-key tags encoded in the
// storage directory layout, used only for pruning and file layout.
var PartitionColumns = []string{"y", "m", "d", "hh", "mm", "start", "int", "pk"}

// Record is one decoded columnar row.
type Record struct {
	TimestampMs int64
	GPSLat      float64
	GPSLon      float64
	GPSAlt      float64
	VehicleID   string
	VehicleType string
	Direction   string
	GeoHash     string
	Speed       float64
}

// ParquetRow is the on-disk row shape decoded by parquet-go's generic
// reader; field tags match the column names in Columns.
type ParquetRow struct {
	Timestamp   int64   `parquet:"timestamp"`
	GPSLat      float64 `parquet:"gpsLat"`
	GPSLon      float64 `parquet:"gpsLon"`
	GPSAlt      float64 `parquet:"gpsAlt"`
	VehicleID   string  `parquet:"vehicleId"`
	VehicleType string  `parquet:"vehicleType"`
	Direction   string  `parquet:"direction"`
	GeoHash     string  `parquet:"geoHash"`
	Speed       float64 `parquet:"speed"`
}

// PartitionKey is the directory-encoded partition tuple for one row.
// Invariant: PK equals the row's geohash at the configured partition
// precision.
type PartitionKey struct {
	Y, M, D, HH, MM string
	Start           string
	Interval        string
	PK              string
}
