package protocol

import "testing"

func TestVehicleQueryResultProtoRoundTrip(t *testing.T) {
	want := VehicleQueryResult{
		Type:        TypeVehicleQueryResult,
		Timestamp:   1704092100000,
		GPSLat:      48.86,
		GPSLon:      2.35,
		GPSAlt:      35.5,
		VehicleID:   "V1",
		VehicleType: "Mini_van",
		Direction:   "N",
		GeoHash:     "u09tv",
		Speed:       42.1,
	}
	encoded := EncodeVehicleQueryResultProto(want)
	got, err := DecodeVehicleQueryResultProto(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got.Type = TypeVehicleQueryResult
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}
