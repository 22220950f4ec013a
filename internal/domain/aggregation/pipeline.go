package aggregation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"finsync/internal/domain/item"
	"finsync/internal/domain/reconcile"
)

var (
	syncTracer          = otel.Tracer("finsync/aggregation")
	syncMeter           = otel.Meter("finsync/aggregation")
	syncRecordsTotal, _ = syncMeter.Int64Counter("sync.records.total",
		metric.WithDescription("Records seen by sync, by entity and outcome"),
	)
)

type validator interface {
	Validate() error
}

// pipeline reconciles and persists one entity's normalized records for a
// single item.
type pipeline[N validator, K comparable, T any] struct {
	entity string
	keyOf  func(N) K
	exists func(context.Context, K) (bool, error)
	insert func(context.Context, []N) ([]T, error)
	// describe adds identifying fields to skip logs.
	describe func(*zerolog.Event, N) *zerolog.Event
}

func (p pipeline[N, K, T]) run(ctx context.Context, log zerolog.Logger, it *item.Item, records []N, res *Result[T]) error {
	res.Fetched += len(records)

	outcome, err := reconcile.Filter(ctx, records, p.keyOf, p.exists)
	if err != nil {
		return fmt.Errorf("failed to reconcile %s for item %s: %w", p.entity, it.ItemID, err)
	}
	res.Existing += outcome.Existing
	res.Duplicates += outcome.Duplicates

	valid := make([]N, 0, len(outcome.Fresh))
	for _, rec := range outcome.Fresh {
		if err := rec.Validate(); err != nil {
			res.Invalid++
			p.describe(log.Warn().Err(err).Str("item_id", it.ItemID), rec).Msgf("invalid %s skipped", p.entity)
			continue
		}
		valid = append(valid, rec)
	}

	p.count(ctx, "existing", outcome.Existing)
	p.count(ctx, "duplicate", outcome.Duplicates)
	p.count(ctx, "invalid", len(outcome.Fresh)-len(valid))

	if len(valid) == 0 {
		return nil
	}

	saved, err := p.insert(ctx, valid)
	if err != nil {
		return fmt.Errorf("failed to persist %s for item %s: %w", p.entity, it.ItemID, err)
	}
	p.count(ctx, "persisted", len(saved))

	res.Persisted += len(saved)
	inst := it.ExternalInstitutionID
	res.ByInstitution[inst] = append(res.ByInstitution[inst], saved...)

	log.Info().
		Str("item_id", it.ItemID).
		Str("institution_id", inst).
		Int("persisted", len(saved)).
		Int("existing", outcome.Existing).
		Msgf("%s saved", p.entity)
	return nil
}

func (p pipeline[N, K, T]) count(ctx context.Context, outcome string, n int) {
	if n == 0 {
		return
	}
	syncRecordsTotal.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("entity", p.entity),
		attribute.String("outcome", outcome),
	))
}
