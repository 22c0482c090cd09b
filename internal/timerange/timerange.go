// Package timerange provides the closed time range used by all ledger
// aggregations and the partitioning of a period into ordered chart buckets.
package timerange

import (
	"time"

	apperrors "moneta/internal/errors"
)

// BeginningOfTime is the epoch sentinel used as the lower bound of all-time
// aggregations. No transaction may predate it.
var BeginningOfTime = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

// ClosedTimeRange is an inclusive [From, To] range of instants.
type ClosedTimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// New creates a validated closed range.
func New(from, to time.Time) (ClosedTimeRange, error) {
	r := ClosedTimeRange{From: from, To: to}
	if err := r.Validate(); err != nil {
		return ClosedTimeRange{}, err
	}
	return r, nil
}

// AllTime returns the range from the epoch sentinel up to now, used for
// lifetime aggregates.
func AllTime() ClosedTimeRange {
	return ClosedTimeRange{From: BeginningOfTime, To: time.Now().UTC()}
}

// To returns the range from the epoch sentinel up to the given instant.
func To(to time.Time) ClosedTimeRange {
	return ClosedTimeRange{From: BeginningOfTime, To: to}
}

// Validate rejects ranges whose start is after their end.
func (r ClosedTimeRange) Validate() error {
	if r.From.After(r.To) {
		return apperrors.ErrInvalidRange
	}
	return nil
}

// Contains reports whether t falls within the range, bounds included.
func (r ClosedTimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Interval is the bucket width used when partitioning a period.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func (iv Interval) next(t time.Time) (time.Time, error) {
	switch iv {
	case IntervalDay:
		return t.AddDate(0, 0, 1), nil
	case IntervalWeek:
		return t.AddDate(0, 0, 7), nil
	case IntervalMonth:
		return t.AddDate(0, 1, 0), nil
	case IntervalYear:
		return t.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown interval: "+string(iv))
	}
}

// Partition splits [from, to] into an ordered list of adjacent, non-overlapping
// closed sub-ranges of the given interval, ascending by end instant. The last
// bucket is clamped to the period's end.
func Partition(from, to time.Time, iv Interval) ([]ClosedTimeRange, error) {
	if err := (ClosedTimeRange{From: from, To: to}).Validate(); err != nil {
		return nil, err
	}

	var ranges []ClosedTimeRange
	cur := from
	for !cur.After(to) {
		next, err := iv.next(cur)
		if err != nil {
			return nil, err
		}
		end := next.Add(-time.Second)
		if end.After(to) {
			end = to
		}
		ranges = append(ranges, ClosedTimeRange{From: cur, To: end})
		cur = next
	}
	return ranges, nil
}
