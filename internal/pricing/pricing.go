// Package pricing computes call charges against the prepaid credit pool.
//
// Contract:
// - Pure calculation, no storage or provider calls.
// - Calls bill per started minute with a one-minute minimum.
package pricing

import "fmt"

const (
	// billingIncrementSeconds is the granularity calls bill at.
	billingIncrementSeconds = 60
	// minimumBillableSeconds enforces a minimum charge duration.
	minimumBillableSeconds = 60

	// DefaultPerMinuteRate is the fallback rate in credits per minute.
	DefaultPerMinuteRate int64 = 5
)

// Calculator resolves call costs for a fixed per-minute rate.
type Calculator struct {
	ratePerMinute int64
}

func NewCalculator(ratePerMinute int64) Calculator {
	if ratePerMinute <= 0 {
		ratePerMinute = DefaultPerMinuteRate
	}
	return Calculator{ratePerMinute: ratePerMinute}
}

// BilledMinutes rounds a measured duration up to started minutes,
// charging at least one minute.
func BilledMinutes(durationSeconds int) int {
	if durationSeconds < minimumBillableSeconds {
		durationSeconds = minimumBillableSeconds
	}
	mins := durationSeconds / billingIncrementSeconds
	if durationSeconds%billingIncrementSeconds != 0 {
		mins++
	}
	return mins
}

// CallCost returns the charge in credits for a call of the given measured
// duration, along with the billed minutes it was derived from.
func (c Calculator) CallCost(durationSeconds int) (costCredits int64, billedMinutes int) {
	billedMinutes = BilledMinutes(durationSeconds)
	return int64(billedMinutes) * c.ratePerMinute, billedMinutes
}

// DurationLabel renders the billed duration the way the dashboard shows it.
func DurationLabel(billedMinutes int) string {
	return fmt.Sprintf("%d min", billedMinutes)
}
