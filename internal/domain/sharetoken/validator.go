// Package sharetoken validates the time-limited tokens carried by shared
// result links and mints new ones.
package sharetoken

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Reason explains a denied token. Both reasons deny access; they only differ
// in the message shown to the caller.
type Reason string

const (
	ReasonInvalid Reason = "invalid"
	ReasonExpired Reason = "expired"
)

// Result is the verdict for one token.
type Result struct {
	Valid     bool       `json:"valid"`
	Reason    Reason     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Registry looks up the expiry of an issued token. ok is false when the
// token was never issued.
type Registry interface {
	Lookup(ctx context.Context, token string) (expiresAt time.Time, ok bool, err error)
}

// Registrar stores newly issued tokens.
type Registrar interface {
	Register(ctx context.Context, token string, expiresAt time.Time) error
}

type Validator struct {
	registry Registry
	now      func() time.Time
	logger   zerolog.Logger
	outcomes *prometheus.CounterVec
}

type Option func(*Validator)

func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithMetrics counts validations by outcome.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(v *Validator) {
		v.outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_token_validations_total",
			Help: "Share token validations by outcome.",
		}, []string{"outcome"})
		reg.MustRegister(v.outcomes)
	}
}

func NewValidator(registry Registry, opts ...Option) *Validator {
	v := &Validator{registry: registry, now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks token against the registry at the current instant. Tokens
// are compared byte for byte. A token is valid only strictly before its
// expiry. Registry failures deny access as invalid.
func (v *Validator) Validate(ctx context.Context, token string) Result {
	res := v.validate(ctx, token)
	if v.outcomes != nil {
		outcome := "valid"
		if !res.Valid {
			outcome = string(res.Reason)
		}
		v.outcomes.WithLabelValues(outcome).Inc()
	}
	return res
}

func (v *Validator) validate(ctx context.Context, token string) Result {
	if token == "" {
		return Result{Reason: ReasonInvalid}
	}
	exp, ok, err := v.registry.Lookup(ctx, token)
	if err != nil {
		v.logger.Error().Err(err).Msg("share token lookup failed")
		return Result{Reason: ReasonInvalid}
	}
	if !ok {
		return Result{Reason: ReasonInvalid}
	}
	if !v.now().Before(exp) {
		return Result{Reason: ReasonExpired}
	}
	return Result{Valid: true, ExpiresAt: &exp}
}
