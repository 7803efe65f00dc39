// Package dispatch owns the per-subject bus loops: it subscribes to the
// control, query and lifecycle subjects, decodes payloads into typed
// requests, invokes the query executor, publishes lifecycle events and
// the terminal response, and isolates per-message failures so one bad
// message never kills a subscription.
package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/livetocode/vehicle-fleet-poc/internal/bus"
	"github.com/livetocode/vehicle-fleet-poc/internal/config"
	"github.com/livetocode/vehicle-fleet-poc/internal/logging"
	"github.com/livetocode/vehicle-fleet-poc/internal/protocol"
	"github.com/livetocode/vehicle-fleet-poc/internal/queryengine"
	"github.com/livetocode/vehicle-fleet-poc/internal/scansession"
	"github.com/livetocode/vehicle-fleet-poc/internal/telemetry"
)

// Bus subjects the dispatcher subscribes to or publishes on.
const (
	SubjectControl           = "messaging.control"
	SubjectVehicleQuery      = "requests.vehicles.query"
	SubjectGenerationStopped = "events.vehicles.generation.stopped"
	SubjectQueryStarted      = "events.vehicles.query.started"
	SubjectQueryStopped      = "events.vehicles.query.stopped"
)

// Publisher is the outbound slice of the bus client the handlers use.
// *bus.Conn satisfies it; tests substitute an in-memory fake.
type Publisher interface {
	Publish(subject string, data []byte) error
	PublishWithHeader(subject, headerKey, headerValue string, data []byte) error
}

// Runner wires the three subject loops to their handlers. Handlers are
// safe to run concurrently for different messages; the only shared
// mutable state they touch is the atomically-swapped scan session.
type Runner struct {
	Bus      *bus.Conn
	Pub      Publisher
	Session  *scansession.Session
	Cfg      config.Config
	Log      *zerolog.Logger
	Identity protocol.ServiceIdentity
	UseProto bool

	subscribed atomic.Bool
}

// Start subscribes every subject. A subscribe failure is fatal; after
// Start returns nil the loops run until the bus connection closes.
func (r *Runner) Start(ctx context.Context) error {
	if _, err := r.Bus.Subscribe(SubjectControl, func(msg *nats.Msg) {
		r.guard(SubjectControl, func() { r.HandlePing(ctx, msg.Data) })
	}); err != nil {
		return err
	}
	if _, err := r.Bus.Subscribe(SubjectVehicleQuery, func(msg *nats.Msg) {
		r.guard(SubjectVehicleQuery, func() { r.HandleQuery(ctx, msg.Data) })
	}); err != nil {
		return err
	}
	if _, err := r.Bus.Subscribe(SubjectGenerationStopped, func(msg *nats.Msg) {
		r.guard(SubjectGenerationStopped, func() { r.HandleGenerationStopped(ctx, msg.Data) })
	}); err != nil {
		return err
	}
	r.subscribed.Store(true)
	return nil
}

// guard recovers handler panics so a failure is logged and the current
// message discarded while the subscription continues.
func (r *Runner) guard(subject string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Error().Str("subject", subject).Interface("panic", rec).Msg("handler panic recovered")
		}
	}()
	fn()
}

// Readiness reports whether the process can serve queries: subjects are
// subscribed and a scan session handle exists.
func (r *Runner) Readiness() (bool, string) {
	if !r.subscribed.Load() {
		return false, "bus subscriptions not established"
	}
	if r.Session == nil {
		return false, "scan session not built"
	}
	return true, ""
}

// HandlePing answers a messaging.control ping with this service's
// identity as a pong on the request's reply subject.
func (r *Runner) HandlePing(ctx context.Context, data []byte) {
	var req protocol.Request[protocol.PingBody]
	if err := protocol.DecodeJSON(data, &req); err != nil {
		r.dropUndecodable(SubjectControl, err)
		return
	}
	if req.ReplyTo == "" {
		r.Log.Warn().Str("subject", SubjectControl).Msg("ping without replyTo dropped")
		return
	}
	resp := protocol.ResponseSuccess[protocol.Pong]{
		Type:      protocol.TypeResponseSuccess,
		ID:        uuid.NewString(),
		RequestID: req.ID,
		Body:      protocol.Pong{Type: protocol.TypePong, Identity: r.Identity},
	}
	r.publishJSON(req.ReplyTo, resp)
}

// HandleQuery runs one vehicle query to completion in strict sequence:
// the started lifecycle event, zero or more result rows on replyTo, the
// terminal response on replyTo, then the stopped lifecycle event.
func (r *Runner) HandleQuery(ctx context.Context, data []byte) {
	var req protocol.Request[protocol.VehicleQueryBody]
	if err := protocol.DecodeJSON(data, &req); err != nil {
		r.dropUndecodable(SubjectVehicleQuery, err)
		return
	}
	if req.ReplyTo == "" {
		r.Log.Warn().Str("subject", SubjectVehicleQuery).Str("id", req.ID).Msg("query without replyTo dropped")
		return
	}

	ctx = logging.WithRequestID(ctx, uuid.NewString())
	ctx = logging.WithSubject(ctx, SubjectVehicleQuery)
	ctx = logging.WithQueryID(ctx, req.Body.ID)
	log := logging.FromContext(ctx, r.Log)

	r.publishStarted(req)

	started := time.Now()
	summary, err := queryengine.Execute(ctx, queryengine.Deps{
		Bus:      r.Pub,
		Session:  r.Session,
		Config:   r.Cfg,
		UseProto: r.UseProto,
	}, req)
	elapsed := time.Since(started)

	if err != nil {
		log.Warn().Err(err).Msg("query failed")
		r.publishError(req, err)
		telemetry.ObserveQuery("error", elapsed.Seconds(), summary.ProcessedBytes, false, false)
		return
	}

	log.Info().
		Int64("processed", summary.ProcessedRecordCount).
		Int64("selected", summary.SelectedRecordCount).
		Int64("elapsed_ms", summary.ElapsedMs).
		Bool("limit_reached", summary.LimitReached).
		Bool("timeout_expired", summary.TimeoutExpired).
		Msg("query done")
	r.publishSuccess(req, summary)
	telemetry.ObserveQuery("success", elapsed.Seconds(), summary.ProcessedBytes, summary.LimitReached, summary.TimeoutExpired)
}

// HandleGenerationStopped rebuilds the scan session so subsequent
// queries observe data written since the previous handle was built.
// In-flight queries keep their captured handle.
func (r *Runner) HandleGenerationStopped(ctx context.Context, data []byte) {
	var evt protocol.VehicleGenerationStopped
	if err := protocol.DecodeJSON(data, &evt); err != nil {
		r.dropUndecodable(SubjectGenerationStopped, err)
		return
	}
	if err := r.Session.Rebuild(ctx, r.Cfg); err != nil {
		r.Log.Error().Err(err).Msg("scan session rebuild failed, prior handle stays active")
		return
	}
	telemetry.IncSessionRebuild()
	r.Log.Info().Msg("scan session rebuilt")
}

func (r *Runner) dropUndecodable(subject string, err error) {
	telemetry.IncDecodeError(subject)
	r.Log.Warn().Err(err).Str("subject", subject).Msg("undecodable message dropped")
}

func (r *Runner) publishStarted(req protocol.Request[protocol.VehicleQueryBody]) {
	evt := protocol.VehicleQueryStarted{Type: protocol.TypeVehicleQueryStarted, Request: req}
	r.publishJSON(SubjectQueryStarted, evt)
}

func (r *Runner) publishSuccess(req protocol.Request[protocol.VehicleQueryBody], summary protocol.VehicleQuerySummary) {
	resp := protocol.ResponseSuccess[protocol.VehicleQuerySummary]{
		Type:      protocol.TypeResponseSuccess,
		ID:        uuid.NewString(),
		RequestID: req.ID,
		Body:      summary,
	}
	r.publishJSON(req.ReplyTo, resp)
	r.publishJSON(SubjectQueryStopped, protocol.VehicleQueryStopped{
		Type:      protocol.TypeVehicleQueryStopped,
		Request:   req,
		IsSuccess: true,
		Response:  &summary,
	})
}

func (r *Runner) publishError(req protocol.Request[protocol.VehicleQueryBody], cause error) {
	resp := queryengine.ResponseErrorFor(req.ID, cause)
	r.publishJSON(req.ReplyTo, resp)
	r.publishJSON(SubjectQueryStopped, protocol.VehicleQueryStopped{
		Type:      protocol.TypeVehicleQueryStopped,
		Request:   req,
		IsSuccess: false,
		Error:     cause.Error(),
	})
}

func (r *Runner) publishJSON(subject string, v interface{}) {
	payload, err := protocol.EncodeJSON(v)
	if err != nil {
		r.Log.Warn().Err(err).Str("subject", subject).Msg("encode failed")
		return
	}
	if err := r.Pub.Publish(subject, payload); err != nil {
		telemetry.IncPublishError(subject)
	}
}
