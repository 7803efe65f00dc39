// Package bus is a thin wrapper over the NATS client: a small Conn type
// with one goroutine per message. Messages reach the handler undecoded;
// decoding, and logging and dropping what fails to decode, is the
// handler's job, so a bad message does not kill the subscription.
package bus

import (
	"github.com/nats-io/nats.go"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
	"github.com/livetocode/vehicle-fleet-poc/internal/logging"
)

// Conn is a thread-safe handle shared by reference across all handlers;
// nats.Conn itself is already safe for concurrent publish/subscribe.
type Conn struct {
	nc *nats.Conn
}

// Connect dials the NATS server pool given by servers (nats.DefaultURL
// when servers is empty), leaving server selection to the NATS client.
func Connect(servers []string) (*Conn, error) {
	urls := servers
	if len(urls) == 0 {
		urls = []string{nats.DefaultURL}
	}
	nc, err := nats.Connect(joinURLs(urls))
	if err != nil {
		return nil, engineerr.Wrap(engineerr.BusError, "connect to nats", err)
	}
	return &Conn{nc: nc}, nil
}

func joinURLs(urls []string) string {
	out := urls[0]
	for _, u := range urls[1:] {
		out += "," + u
	}
	return out
}

// Close closes the underlying connection without draining it.
func (c *Conn) Close() {
	c.nc.Close()
}

// Handler processes one raw inbound message; it must be safe to run
// concurrently across messages.
type Handler func(msg *nats.Msg)

// Subscribe runs handler for every message on subject. A subscribe
// failure is fatal to the caller (pre-flight, not per-message); once
// subscribed, per-message handler panics/errors are the handler's own
// responsibility to recover and log.
func (c *Conn) Subscribe(subject string, handler Handler) (*nats.Subscription, error) {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		go handler(msg)
	})
	if err != nil {
		return nil, engineerr.Wrap(engineerr.BusError, "subscribe to "+subject, err)
	}
	return sub, nil
}

// Publish sends data on subject.
func (c *Conn) Publish(subject string, data []byte) error {
	if err := c.nc.Publish(subject, data); err != nil {
		logging.FromBackground().Warn().Err(err).Str("subject", subject).Msg("publish failed")
		return engineerr.Wrap(engineerr.BusError, "publish to "+subject, err)
	}
	return nil
}

// PublishWithHeader sends data on subject with a single header key/value
// set, used for the proto/type discriminator.
func (c *Conn) PublishWithHeader(subject, headerKey, headerValue string, data []byte) error {
	msg := nats.NewMsg(subject)
	msg.Header.Set(headerKey, headerValue)
	msg.Data = data
	if err := c.nc.PublishMsg(msg); err != nil {
		logging.FromBackground().Warn().Err(err).Str("subject", subject).Msg("publish failed")
		return engineerr.Wrap(engineerr.BusError, "publish to "+subject, err)
	}
	return nil
}
