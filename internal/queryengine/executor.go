// Package queryengine is the query executor. It translates a request
// into predicates, scans record batches, applies in-memory refinement,
// emits per-row result messages, and produces a response summary while
// enforcing limit and timeout.
package queryengine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/livetocode/vehicle-fleet-poc/internal/config"
	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
	"github.com/livetocode/vehicle-fleet-poc/internal/eventmodel"
	"github.com/livetocode/vehicle-fleet-poc/internal/geocover"
	"github.com/livetocode/vehicle-fleet-poc/internal/protocol"
	"github.com/livetocode/vehicle-fleet-poc/internal/scansession"
	"github.com/livetocode/vehicle-fleet-poc/internal/telemetry"
)

// Publisher is the slice of the bus client the executor needs for
// streaming row emission. *bus.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
	PublishWithHeader(subject, headerKey, headerValue string, data []byte) error
}

// Deps bundles the shared resources the executor reads: the bus client
// (for streaming row emission), the scan session and the config (for the
// default timeout). None of these are mutated by the executor.
type Deps struct {
	Bus      Publisher
	Session  *scansession.Session
	Config   config.Config
	UseProto bool
}

// Execute runs one vehicle-query request to completion, streaming result
// rows on req.ReplyTo and returning the terminal summary.
func Execute(ctx context.Context, deps Deps, req protocol.Request[protocol.VehicleQueryBody]) (protocol.VehicleQuerySummary, error) {
	body := req.Body

	window, err := normaliseWindow(body.FromDate, body.ToDate)
	if err != nil {
		return protocol.VehicleQuerySummary{}, err
	}

	effTimeoutMs := effectiveTimeoutMs(body.TimeoutMs, deps.Config.Finder.DefaultTimeoutMs)
	limit := effectiveLimit(body.Limit)

	geom, err := parseGeometry(body.Geometry)
	if err != nil {
		return protocol.VehicleQuerySummary{}, err
	}

	cover, err := geocover.Cover(geom, geocover.Precision)
	if err != nil {
		return protocol.VehicleQuerySummary{}, err
	}
	telemetry.ObserveCoverSize(body.ID, len(cover))

	handle := deps.Session.Get()
	if err := scansession.ResolveColumns(handle); err != nil {
		return protocol.VehicleQuerySummary{}, err
	}

	objects, err := handle.Store.List(ctx, handle.Format)
	if err != nil {
		return protocol.VehicleQuerySummary{}, err
	}
	files := prunedFiles(objects, window.fromStr, window.toStr, cover)

	if len(cover) == 0 || len(files) == 0 {
		return protocol.VehicleQuerySummary{}, nil
	}

	st := &scanState{
		deps:         deps,
		req:          req,
		geom:         geom,
		window:       window,
		limit:        limit,
		timeoutMs:    effTimeoutMs,
		vehicleTypes: toSet(body.VehicleTypes),
		distinct:     make(map[string]struct{}),
		started:      time.Now(),
	}

	filesScanned, err := iterateBatches(ctx, handle.Store, handle.Format, files, st.handleBatch)
	st.summary.ProcessedFilesCount = int64(filesScanned)
	if err != nil {
		return st.summary, err
	}

	st.finishDistinct()
	st.summary.ElapsedMs = time.Since(st.started).Milliseconds()
	return st.summary, nil
}

type scanState struct {
	deps         Deps
	req          protocol.Request[protocol.VehicleQueryBody]
	geom         orb.Geometry
	window       normalisedWindow
	limit        int
	timeoutMs    int64
	vehicleTypes map[string]struct{}
	distinct     map[string]struct{}
	started      time.Time
	summary      protocol.VehicleQuerySummary
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func (s *scanState) handleBatch(rows []eventmodel.ParquetRow, batchBytes int64) (bool, error) {
	s.summary.ProcessedBytes += batchBytes

	for _, row := range rows {
		s.summary.ProcessedRecordCount++

		if rowMatches(s, row) {
			s.summary.SelectedRecordCount++
			s.distinct[row.VehicleID] = struct{}{}
			telemetry.IncResultRow()
			s.emitRow(row)

			if int(s.summary.SelectedRecordCount) >= s.limit {
				s.summary.LimitReached = true
				s.finishDistinct()
				return true, nil
			}
		}
	}

	if time.Since(s.started).Milliseconds() >= s.timeoutMs {
		s.summary.TimeoutExpired = true
		s.finishDistinct()
		return true, nil
	}
	return false, nil
}

func (s *scanState) finishDistinct() {
	s.summary.DistinctVehicleCount = int64(len(s.distinct))
}

func rowMatches(s *scanState, row eventmodel.ParquetRow) bool {
	if math.IsNaN(row.GPSLat) || math.IsNaN(row.GPSLon) || math.IsNaN(row.GPSAlt) {
		return false
	}
	ts := time.UnixMilli(row.Timestamp).UTC()
	if ts.Before(s.window.fromInstant) || !ts.Before(s.window.toInstant) {
		return false
	}
	if s.vehicleTypes != nil {
		if _, ok := s.vehicleTypes[row.VehicleType]; !ok {
			return false
		}
	}
	return geocover.ContainsPoint(s.geom, row.GPSLon, row.GPSLat)
}

func rowToResult(row eventmodel.ParquetRow) protocol.VehicleQueryResult {
	return protocol.VehicleQueryResult{
		Type:        protocol.TypeVehicleQueryResult,
		Timestamp:   row.Timestamp,
		GPSLat:      row.GPSLat,
		GPSLon:      row.GPSLon,
		GPSAlt:      row.GPSAlt,
		VehicleID:   row.VehicleID,
		VehicleType: row.VehicleType,
		Direction:   row.Direction,
		GeoHash:     row.GeoHash,
		Speed:       row.Speed,
	}
}

func (s *scanState) emitRow(row eventmodel.ParquetRow) {
	result := rowToResult(row)
	if s.deps.UseProto {
		payload := protocol.EncodeVehicleQueryResultProto(result)
		if err := s.deps.Bus.PublishWithHeader(s.req.ReplyTo, protocol.ProtoTypeHeader, protocol.TypeVehicleQueryResult, payload); err != nil {
			telemetry.IncPublishError(s.req.ReplyTo)
		}
		return
	}
	payload, err := protocol.EncodeJSON(result)
	if err != nil {
		return
	}
	if err := s.deps.Bus.Publish(s.req.ReplyTo, payload); err != nil {
		telemetry.IncPublishError(s.req.ReplyTo)
	}
}

// ResponseErrorFor converts a pipeline error into the terminal
// response-error envelope: `code` is `exception` for anything the
// engine didn't classify as `expired`/`cancelled`, both reserved for
// future use.
func ResponseErrorFor(requestID string, err error) protocol.ResponseError {
	return protocol.ResponseError{
		Type:      protocol.TypeResponseError,
		ID:        uuid.NewString(),
		RequestID: requestID,
		Code:      engineerr.ResponseCode(engineerr.KindOf(err)),
		Error:     err.Error(),
	}
}
