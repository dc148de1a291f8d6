// Package audit keeps the process-wide, append-only trail of access events.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/ids"
)

// sinkTimeout bounds a single sink write.
const sinkTimeout = 2 * time.Second

// Sink receives every recorded event. Sink errors never reach the caller of
// Record; they are logged.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Archive is durable storage a Recorder can be restored from.
type Archive interface {
	Sink
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Write(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Recorder owns the event log. The log is kept in insertion order and read
// back newest first. Safe for concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	log    []Event
	ids    *ids.Generator
	now    func() time.Time
	sinks  []Sink
	logger zerolog.Logger
	total  *prometheus.CounterVec
}

type Option func(*Recorder)

// WithClock sets the time source for event timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithSink(s Sink) Option {
	return func(r *Recorder) { r.sinks = append(r.sinks, s) }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithMetrics counts recorded events per type in portal_audit_events_total.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Recorder) {
		r.total = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_audit_events_total",
			Help: "Audit events recorded, by type.",
		}, []string{"type"})
		reg.MustRegister(r.total)
	}
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ids = ids.NewGenerator(r.now)
	return r
}

// Record appends a new event and returns it. It always succeeds.
func (r *Recorder) Record(t EventType, actor, message string) Event {
	r.mu.Lock()
	e := Event{
		ID:        r.ids.New(),
		Type:      t,
		Actor:     actor,
		Message:   message,
		Timestamp: r.now().UTC(),
	}
	r.log = append(r.log, e)
	r.mu.Unlock()

	if r.total != nil {
		r.total.WithLabelValues(string(t)).Inc()
	}
	r.publish(e)
	return e
}

func (r *Recorder) publish(e Event) {
	for _, s := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := s.Write(ctx, e); err != nil {
			r.logger.Error().Err(err).
				Str("event_id", e.ID).
				Str("event_type", string(e.Type)).
				Msg("audit sink write failed")
		}
		cancel()
	}
}

// Seed loads historical events, given newest first, behind everything already
// in the log. Events whose id is already logged are skipped. Sinks are not
// notified. Seed returns the number of events added.
func (r *Recorder) Seed(events []Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]struct{}, len(r.log))
	for _, e := range r.log {
		known[e.ID] = struct{}{}
	}
	older := make([]Event, 0, len(events)+len(r.log))
	for i := len(events) - 1; i >= 0; i-- {
		if _, ok := known[events[i].ID]; ok {
			continue
		}
		known[events[i].ID] = struct{}{}
		older = append(older, events[i])
	}
	added := len(older)
	r.log = append(older, r.log...)
	return added
}

// Restore seeds the log with up to limit of the newest events in a.
func (r *Recorder) Restore(ctx context.Context, a Archive, limit int) (int, error) {
	events, err := a.Recent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("restore audit trail: %w", err)
	}
	return r.Seed(events), nil
}

// Events returns a snapshot of the log, newest first.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, len(r.log))
	for i, e := range r.log {
		out[len(r.log)-1-i] = e
	}
	return out
}

// Filter returns the events of type t, newest first. An empty t matches all.
func (r *Recorder) Filter(t EventType) []Event {
	events := r.Events()
	if t == "" {
		return events
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.log)
}
