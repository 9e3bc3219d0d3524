package matcher

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateDifferenceDays returns the absolute difference between two dates in
// whole days, rounding any partial day up. The second return value is false
// when either date is absent, in which case no day difference is defined.
func DateDifferenceDays(d1, d2 *time.Time) (int, bool) {
	if d1 == nil || d2 == nil {
		return 0, false
	}

	diff := d1.Sub(*d2)
	if diff < 0 {
		diff = -diff
	}

	return int(math.Ceil(diff.Hours() / 24)), true
}

// SameCalendarDay reports whether two timestamps fall on the same calendar day.
func SameCalendarDay(d1, d2 time.Time) bool {
	return d1.Format("2006-01-02") == d2.Format("2006-01-02")
}

// AmountWithinTolerance reports whether two amounts are close enough under an
// absolute-or-percentage rule: the absolute difference must be within absTol,
// or the difference relative to the average of the two amounts must be within
// pctTol. Either threshold alone is sufficient.
//
// Zero amounts fail outright; a zero on either side means the input was
// missing or unparseable upstream, not a genuine zero-value invoice.
func AmountWithinTolerance(a, b, absTol, pctTol decimal.Decimal) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}

	diff := a.Sub(b).Abs()
	if diff.LessThanOrEqual(absTol) {
		return true
	}

	avg := a.Add(b).Div(decimal.NewFromInt(2))
	if avg.IsZero() {
		return false
	}

	return diff.Div(avg).Abs().LessThanOrEqual(pctTol)
}
