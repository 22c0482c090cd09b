// Package charts builds ordered time-series from the ledger aggregation
// engine: a cumulative balance chart and independent per-bucket charts.
package charts

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneta/internal/timerange"
)

// Point is one chart point: a range and the value computed for it. The
// ordering of a chart is the ordering of its source ranges.
type Point[T any] struct {
	Range timerange.ClosedTimeRange `json:"range"`
	Value T                         `json:"value"`
}

// PointFunc computes one bucket's value. Implementations may suspend on
// persistence reads and must honor ctx cancellation.
type PointFunc[T any] func(ctx context.Context, rng timerange.ClosedTimeRange) (T, error)

// maxConcurrentBuckets bounds per-bucket fan-out so a chart request cannot
// spawn unbounded concurrency against the store.
const maxConcurrentBuckets = 8

// BalanceChart produces the cumulative balance series for the given buckets.
// Buckets are sorted ascending by end instant; each point's value is the
// balance of (previousEnd+1s, end] plus the previous point's value, so every
// call to calcBalance only covers transactions since the previous boundary.
// The first bucket's lower bound is the all-time epoch sentinel.
//
// The fold is strictly sequential. Cancellation is all-or-nothing: a
// cancelled call returns (nil, ctx.Err()), never a partial chart.
func BalanceChart(
	ctx context.Context,
	ranges []timerange.ClosedTimeRange,
	calcBalance PointFunc[decimal.Decimal],
) ([]Point[decimal.Decimal], error) {
	ordered := sortedByEnd(ranges)

	points := make([]Point[decimal.Decimal], 0, len(ordered))
	cumulative := decimal.Zero
	from := timerange.BeginningOfTime
	for _, r := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		delta, err := calcBalance(ctx, timerange.ClosedTimeRange{From: from, To: r.To})
		if err != nil {
			return nil, err
		}
		cumulative = cumulative.Add(delta)

		points = append(points, Point[decimal.Decimal]{
			Range: timerange.To(r.To),
			Value: cumulative,
		})
		from = r.To.Add(time.Second)
	}
	return points, nil
}

// PerBucketChart evaluates point independently for every bucket. Buckets are
// evaluated concurrently; evaluation order never affects the result and the
// output order always matches the input range order (ascending by end).
// Cancellation is all-or-nothing, as for BalanceChart.
func PerBucketChart[T any](
	ctx context.Context,
	ranges []timerange.ClosedTimeRange,
	point PointFunc[T],
) ([]Point[T], error) {
	ordered := sortedByEnd(ranges)

	points := make([]Point[T], len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBuckets)
	for i, r := range ordered {
		g.Go(func() error {
			value, err := point(gctx, r)
			if err != nil {
				return err
			}
			points[i] = Point[T]{Range: r, Value: value}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func sortedByEnd(ranges []timerange.ClosedTimeRange) []timerange.ClosedTimeRange {
	ordered := make([]timerange.ClosedTimeRange, len(ranges))
	copy(ordered, ranges)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].To.Before(ordered[j].To)
	})
	return ordered
}
