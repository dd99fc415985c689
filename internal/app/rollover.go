/**
 * @description
 * Interval rollover arithmetic for recurring payment schedules. Computing
 * the next due date is kept as a pure function so the sweep and the tests
 * share one definition of "one cycle later".
 */
package app

import (
	"fmt"
	"time"

	"github.com/solpay/recurring-service/internal/domain"
)

// NextPaymentDate returns the due date one cycle after current.
//
// Monthly rollover uses calendar-month arithmetic with Go's AddDate
// normalization: when the day of month does not exist in the target month
// the date rolls forward into the following month (Jan 31 + 1 month is
// Mar 2 in a leap year). The result must be strictly after the input;
// anything else is treated as a configuration error.
func NextPaymentDate(current time.Time, frequency domain.Frequency) (time.Time, error) {
	var next time.Time
	switch frequency {
	case domain.FrequencyDaily:
		next = current.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		next = current.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		next = current.AddDate(0, 1, 0)
	default:
		return time.Time{}, fmt.Errorf("unrecognized frequency %q", frequency)
	}

	if !next.After(current) {
		return time.Time{}, fmt.Errorf("rollover for frequency %q did not advance past %s", frequency, current.Format(time.RFC3339))
	}
	return next, nil
}
