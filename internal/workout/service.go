// Package workout implements the training core: set tracking, exercise and
// session metrics, the session lifecycle and weight progression. Every
// write runs as one transaction against a storage.Repository.
package workout

import (
	"context"
	"log/slog"
	"time"

	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/telemetry/metrics"
	"github.com/Worcesters/basicfit/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Store runs fn inside a transaction. *storage.DB implements it.
type Store interface {
	InTx(ctx context.Context, fn func(storage.Repository) error) error
}

// Service exposes the training operations.
type Service struct {
	store   Store
	log     *slog.Logger
	metrics *metrics.Manager
	now     func() time.Time

	threshold     float64
	autoIncrement bool
}

type Option func(*Service)

// WithClock replaces the time source used for session and tracker stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records domain counters on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithProgressionDefaults sets the policy given to newly created trackers.
func WithProgressionDefaults(threshold float64, autoIncrement bool) Option {
	return func(s *Service) {
		s.threshold = threshold
		s.autoIncrement = autoIncrement
	}
}

func New(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:         store,
		log:           log,
		metrics:       metrics.NewTestManager(),
		now:           time.Now,
		threshold:     models.DefaultSuccessThreshold,
		autoIncrement: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run executes fn in one transaction under a span and wraps any failure in
// an OpError. fn receives the span's context.
func (s *Service) run(ctx context.Context, op, resource string, id int64, fn func(context.Context, storage.Repository) error) (err error) {
	ctx, span := tracing.Start(ctx, "workout."+op)
	span.SetAttributes(attribute.String("resource", resource), attribute.Int64("id", id))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	err = s.store.InTx(ctx, func(r storage.Repository) error {
		return fn(ctx, r)
	})
	if err != nil {
		err = &OpError{Op: op, Resource: resource, ID: id, Err: translate(err)}
		if Reason(err) == ReasonInternal || Reason(err) == ReasonReferential {
			s.log.Error("workout operation failed", "op", op, "resource", resource, "id", id, "error", err)
		} else {
			s.log.Debug("workout operation rejected", "op", op, "resource", resource, "id", id, "error", err)
		}
	}
	return err
}

func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
