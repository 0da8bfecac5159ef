// Package notify announces finished packs to other systems over NATS.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/packager"
)

const (
	// DefaultSubject is used when no subject is configured.
	DefaultSubject = "deckbuilder.pack"

	connectTimeout = 5 * time.Second
	flushTimeout   = 5 * time.Second
)

// Event is the payload published after a pack.
type Event struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Project    string    `json:"project"`
	Dest       string    `json:"dest"`
	Outcome    string    `json:"outcome"`
	Slides     int       `json:"slides"`
	Digest     string    `json:"digest,omitempty"`
	Archive    string    `json:"archive,omitempty"`
	Fetched    int       `json:"fetched"`
	Warnings   []string  `json:"warnings,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// EventFromReport summarizes a pack report. err is the pack error, if any.
func EventFromReport(rep *packager.Report, err error) Event {
	ev := Event{
		ID:   uuid.NewString(),
		Time: time.Now().UTC(),
	}
	if rep != nil {
		ev.Project = rep.Source
		ev.Dest = rep.Dest
		ev.Outcome = string(rep.Outcome)
		ev.Slides = rep.Slides
		ev.Digest = rep.Digest
		ev.Archive = rep.Archive
		ev.Fetched = len(rep.Fetched)
		ev.Warnings = rep.Warnings
		ev.DurationMS = rep.Duration.Milliseconds()
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Publisher delivers pack events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// NATS publishes events on a core NATS subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

// Connect dials url. An empty subject selects DefaultSubject.
func Connect(url, subject string, opts ...nats.Option) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts = append([]nats.Option{nats.Name("deckbuilder"), nats.Timeout(connectTimeout)}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "connect to NATS").
			WithContext("url", url).Build()
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATS{conn: conn, subject: subject}, nil
}

// Subject is the subject events go to.
func (n *NATS) Subject() string { return n.subject }

// Publish sends ev and waits for the server to acknowledge the flush.
func (n *NATS) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "encode pack event").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "publish pack event").Retryable().Build()
	}
	fctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := n.conn.FlushWithContext(fctx); err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "flush pack event").Retryable().Build()
	}
	slog.Debug("Published pack event", slog.String("id", ev.ID), slog.String("subject", n.subject))
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
