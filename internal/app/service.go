// Package service provides the roll-up facade that the HTTP API queries.
//
// Every operation loads the collections it needs from the configured source,
// fetching independent collections concurrently, then runs the pure domain
// calculations over that snapshot. Nothing is cached between calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/tier"
	"github.com/okian/crmpulse/pkg/logger"
	"github.com/okian/crmpulse/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultFetchTimeout = 5 * time.Second

// Query kinds, used as metric labels.
const (
	kindFunnel         = "funnel"
	kindConversion     = "conversion"
	kindReconciliation = "reconciliation"
	kindSummary        = "summary"
	kindSummaryKAM     = "summary_kam"
	kindSummaryLOB     = "summary_lob"
	kindSummaryTier    = "summary_tier"
	kindWeekly         = "weekly_activity"
	kindTiers          = "tiers"
)

// Query outcomes.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeUpstream = "upstream"
	outcomeError    = "error"
)

// Service answers dashboard queries over a Source.
type Service struct {
	source       repository.Source
	classifier   *tier.Classifier
	clock        func() time.Time
	fetchTimeout time.Duration
	logger       logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the snapshot source.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTier1Threshold sets the annual total above which an account is Tier 1.
func WithTier1Threshold(threshold decimal.Decimal) Option {
	return func(s *Service) {
		s.classifier = tier.NewClassifier(tier.WithThreshold(threshold))
	}
}

// WithClock sets the time source that decides which months are in the past.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFetchTimeout bounds the time spent loading one snapshot.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// New creates a Service with the given options.
func New(opts ...Option) *Service {
	s := &Service{
		classifier:   tier.NewClassifier(),
		clock:        time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Threshold returns the configured Tier 1 threshold.
func (s *Service) Threshold() decimal.Decimal { return s.classifier.Threshold() }

func (s *Service) now() time.Time { return s.clock().UTC() }

// request names the collections an operation loads. Nil filters and false
// flags skip the collection.
type request struct {
	deals    *repository.DealFilter
	events   *repository.EventFilter
	mandates *repository.MandateFilter
	targets  *repository.TargetFilter
	accounts bool
	kams     bool
}

// load fetches the requested collections concurrently. The first failure
// cancels the remaining fetches.
func (s *Service) load(ctx context.Context, req request) (repository.Snapshot, error) {
	var snap repository.Snapshot
	if s.source == nil {
		return snap, ErrNoSource
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if f := req.deals; f != nil {
		g.Go(func() (err error) {
			snap.Deals, err = fetch(gctx, repository.CollectionDeals, func(c context.Context) ([]model.Deal, error) {
				return s.source.ListDeals(c, *f)
			})
			return err
		})
	}
	if f := req.events; f != nil {
		g.Go(func() (err error) {
			snap.Events, err = fetch(gctx, repository.CollectionEvents, func(c context.Context) ([]model.StatusEvent, error) {
				return s.source.ListStatusEvents(c, *f)
			})
			return err
		})
	}
	if f := req.mandates; f != nil {
		g.Go(func() (err error) {
			snap.Mandates, err = fetch(gctx, repository.CollectionMandates, func(c context.Context) ([]model.Mandate, error) {
				return s.source.ListMandates(c, *f)
			})
			return err
		})
	}
	if f := req.targets; f != nil {
		g.Go(func() (err error) {
			snap.Targets, err = fetch(gctx, repository.CollectionTargets, func(c context.Context) ([]model.TargetRecord, error) {
				return s.source.ListTargets(c, *f)
			})
			return err
		})
	}
	if req.accounts {
		g.Go(func() (err error) {
			snap.Accounts, err = fetch(gctx, repository.CollectionAccounts, s.source.ListAccounts)
			return err
		})
	}
	if req.kams {
		g.Go(func() (err error) {
			snap.Kams, err = fetch(gctx, repository.CollectionKams, s.source.ListKams)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return repository.Snapshot{}, err
	}
	return snap, nil
}

func fetch[T any](ctx context.Context, collection string, list func(context.Context) ([]T, error)) ([]T, error) {
	start := time.Now()
	items, err := list(ctx)
	metrics.RecordFetchLatency(collection, millis(time.Since(start)))
	if err != nil {
		metrics.RecordUpstreamError(collection)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, collection, err)
	}
	metrics.UpdateSnapshotRecords(collection, len(items))
	return items, nil
}

// observe records the outcome and latency of a query. Call it deferred with
// the address of the named error result.
func (s *Service) observe(ctx context.Context, kind string, start time.Time, errp *error) {
	outcome := outcomeOK
	if err := *errp; err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuery):
			outcome = outcomeInvalid
		case errors.Is(err, ErrUpstream):
			outcome = outcomeUpstream
			s.logger.Error(ctx, "query failed", logger.String("kind", kind), logger.Error(err))
		default:
			outcome = outcomeError
			s.logger.Error(ctx, "query failed", logger.String("kind", kind), logger.Error(err))
		}
	}
	metrics.RecordQuery(kind, outcome)
	metrics.RecordQueryLatency(kind, millis(time.Since(start)))
}

// skipped logs and counts records excluded from a result.
func (s *Service) skipped(ctx context.Context, kind, reason string, ids []string) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		s.logger.Debug(ctx, "record skipped", logger.String("kind", kind), logger.String("reason", reason), logger.String("id", id))
	}
	s.logger.Info(ctx, "records skipped", logger.String("kind", kind), logger.String("reason", reason), logger.Int("count", len(ids)))
	switch reason {
	case reasonMalformed:
		metrics.RecordMalformed(kind, len(ids))
	case reasonUnresolved:
		metrics.RecordUnresolved(kind, len(ids))
	}
}

const (
	reasonMalformed  = "malformed"
	reasonUnresolved = "unresolved"
)

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
