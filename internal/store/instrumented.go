package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"socialite/internal/core"
)

var (
	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialite_store_op_seconds",
		Help:    "Histogram of document store operation latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"op", "collection"})

	opErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialite_store_op_errors_total",
		Help: "The total number of failed document store operations",
	}, []string{"op", "collection"})
)

// Instrumented wraps a backend and records latency and error metrics per
// operation. Lifecycle calls are forwarded to the backend.
type Instrumented struct {
	Backend core.DocumentStore
}

func NewInstrumented(backend core.DocumentStore) *Instrumented {
	return &Instrumented{Backend: backend}
}

func (s *Instrumented) Init(ctx context.Context) error {
	if b, ok := s.Backend.(interface{ Init(context.Context) error }); ok {
		return b.Init(ctx)
	}
	return nil
}

func (s *Instrumented) HealthCheck(ctx context.Context) error {
	if b, ok := s.Backend.(interface{ HealthCheck(context.Context) error }); ok {
		return b.HealthCheck(ctx)
	}
	return nil
}

func (s *Instrumented) Shutdown(ctx context.Context) error {
	if b, ok := s.Backend.(interface{ Shutdown(context.Context) error }); ok {
		return b.Shutdown(ctx)
	}
	return nil
}

func (s *Instrumented) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	var id string
	err := s.timed("create", collection, func() error {
		var err error
		id, err = s.Backend.Create(ctx, collection, fields)
		return err
	})
	return id, err
}

func (s *Instrumented) Read(ctx context.Context, collection, id string) (core.Document, error) {
	var doc core.Document
	err := s.timed("read", collection, func() error {
		var err error
		doc, err = s.Backend.Read(ctx, collection, id)
		return err
	})
	return doc, err
}

func (s *Instrumented) Update(ctx context.Context, collection, id string, ops ...core.Op) error {
	return s.timed("update", collection, func() error {
		return s.Backend.Update(ctx, collection, id, ops...)
	})
}

func (s *Instrumented) Apply(ctx context.Context, collection, id string, ops ...core.Op) error {
	return s.timed("apply", collection, func() error {
		return s.Backend.Apply(ctx, collection, id, ops...)
	})
}

func (s *Instrumented) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.timed("merge", collection, func() error {
		return s.Backend.Merge(ctx, collection, id, fields)
	})
}

func (s *Instrumented) List(ctx context.Context, collection string) ([]core.Document, error) {
	var docs []core.Document
	err := s.timed("list", collection, func() error {
		var err error
		docs, err = s.Backend.List(ctx, collection)
		return err
	})
	return docs, err
}

func (s *Instrumented) QueryRange(ctx context.Context, collection, field, lower, upper string) ([]core.Document, error) {
	var docs []core.Document
	err := s.timed("queryRange", collection, func() error {
		var err error
		docs, err = s.Backend.QueryRange(ctx, collection, field, lower, upper)
		return err
	})
	return docs, err
}

func (s *Instrumented) Subscribe(ctx context.Context, collection, orderBy string, descending bool) (core.Subscription, error) {
	var sub core.Subscription
	err := s.timed("subscribe", collection, func() error {
		var err error
		sub, err = s.Backend.Subscribe(ctx, collection, orderBy, descending)
		return err
	})
	return sub, err
}

func (s *Instrumented) timed(op, collection string, f func() error) error {
	start := time.Now()
	err := f()
	opDuration.WithLabelValues(op, collection).Observe(time.Since(start).Seconds())
	if err != nil {
		opErrors.WithLabelValues(op, collection).Inc()
	}
	return err
}
