package protocol

import (
	"encoding/json"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// EncodeJSON marshals v, wrapping any failure as a BusError (codec
// failures are bus-layer failures).
func EncodeJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.BusError, "encode json", err)
	}
	return b, nil
}

// DecodeJSON unmarshals data into v.
func DecodeJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return engineerr.Wrap(engineerr.BusError, "decode json", err)
	}
	return nil
}

// Field numbers of the implied VehicleQueryResult proto schema (no
// protoc codegen available in this environment, see DESIGN.md):
//
//	message VehicleQueryResult {
//	  int64  timestamp    = 1;
//	  double gps_lat      = 2;
//	  double gps_lon      = 3;
//	  double gps_alt      = 4;
//	  string vehicle_id   = 5;
//	  string vehicle_type = 6;
//	  string direction    = 7;
//	  string geo_hash     = 8;
//	  double speed        = 9;
//	}
const (
	fieldTimestamp   = protowire.Number(1)
	fieldGPSLat      = protowire.Number(2)
	fieldGPSLon      = protowire.Number(3)
	fieldGPSAlt      = protowire.Number(4)
	fieldVehicleID   = protowire.Number(5)
	fieldVehicleType = protowire.Number(6)
	fieldDirection   = protowire.Number(7)
	fieldGeoHash     = protowire.Number(8)
	fieldSpeed       = protowire.Number(9)
)

// EncodeVehicleQueryResultProto hand-encodes r against the schema above,
// since protoc codegen cannot run in this environment.
func EncodeVehicleQueryResultProto(r VehicleQueryResult) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Timestamp))
	b = protowire.AppendTag(b, fieldGPSLat, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.GPSLat))
	b = protowire.AppendTag(b, fieldGPSLon, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.GPSLon))
	b = protowire.AppendTag(b, fieldGPSAlt, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.GPSAlt))
	b = protowire.AppendTag(b, fieldVehicleID, protowire.BytesType)
	b = protowire.AppendString(b, r.VehicleID)
	b = protowire.AppendTag(b, fieldVehicleType, protowire.BytesType)
	b = protowire.AppendString(b, r.VehicleType)
	b = protowire.AppendTag(b, fieldDirection, protowire.BytesType)
	b = protowire.AppendString(b, r.Direction)
	b = protowire.AppendTag(b, fieldGeoHash, protowire.BytesType)
	b = protowire.AppendString(b, r.GeoHash)
	b = protowire.AppendTag(b, fieldSpeed, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.Speed))
	return b
}

// DecodeVehicleQueryResultProto is the inverse of EncodeVehicleQueryResultProto.
func DecodeVehicleQueryResultProto(data []byte) (VehicleQueryResult, error) {
	var r VehicleQueryResult
	r.Type = TypeVehicleQueryResult
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return r, engineerr.New(engineerr.BusError, "decode vehicle-query-result: bad tag")
		}
		data = data[n:]
		switch num {
		case fieldTimestamp:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return r, engineerr.New(engineerr.BusError, "decode timestamp")
			}
			r.Timestamp = int64(v)
			data = data[n:]
		case fieldGPSLat, fieldGPSLon, fieldGPSAlt, fieldSpeed:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return r, engineerr.New(engineerr.BusError, "decode double field")
			}
			f := math.Float64frombits(v)
			switch num {
			case fieldGPSLat:
				r.GPSLat = f
			case fieldGPSLon:
				r.GPSLon = f
			case fieldGPSAlt:
				r.GPSAlt = f
			case fieldSpeed:
				r.Speed = f
			}
			data = data[n:]
		case fieldVehicleID, fieldVehicleType, fieldDirection, fieldGeoHash:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return r, engineerr.New(engineerr.BusError, "decode string field")
			}
			switch num {
			case fieldVehicleID:
				r.VehicleID = v
			case fieldVehicleType:
				r.VehicleType = v
			case fieldDirection:
				r.Direction = v
			case fieldGeoHash:
				r.GeoHash = v
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return r, engineerr.New(engineerr.BusError, "decode unknown field")
			}
			data = data[n:]
		}
	}
	return r, nil
}
