package app

import (
	"testing"
	"time"

	"github.com/solpay/recurring-service/internal/domain"
)

func TestNextPaymentDate_Daily(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextPaymentDate(current, domain.FrequencyDaily)
	if err != nil {
		t.Fatalf("NextPaymentDate returned error: %v", err)
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %s, got %s", want, next)
	}
}

func TestNextPaymentDate_Weekly(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)

	next, err := NextPaymentDate(current, domain.FrequencyWeekly)
	if err != nil {
		t.Fatalf("NextPaymentDate returned error: %v", err)
	}
	want := time.Date(2024, 1, 8, 12, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %s, got %s", want, next)
	}
}

func TestNextPaymentDate_Monthly(t *testing.T) {
	current := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	next, err := NextPaymentDate(current, domain.FrequencyMonthly)
	if err != nil {
		t.Fatalf("NextPaymentDate returned error: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %s, got %s", want, next)
	}
}

// Monthly rollover follows AddDate normalization: a day of month that does
// not exist in the target month rolls forward into the following month.
func TestNextPaymentDate_MonthlyEndOfMonthOverflow(t *testing.T) {
	current := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	next, err := NextPaymentDate(current, domain.FrequencyMonthly)
	if err != nil {
		t.Fatalf("NextPaymentDate returned error: %v", err)
	}
	want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected Jan 31 + 1 month to normalize to %s, got %s", want, next)
	}
}

func TestNextPaymentDate_UnknownFrequency(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := NextPaymentDate(current, domain.Frequency("fortnightly")); err == nil {
		t.Fatal("expected error for unrecognized frequency")
	}
}

func TestNextPaymentDate_AlwaysAdvances(t *testing.T) {
	current := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)

	for _, frequency := range []domain.Frequency{domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly} {
		next, err := NextPaymentDate(current, frequency)
		if err != nil {
			t.Fatalf("NextPaymentDate(%s) returned error: %v", frequency, err)
		}
		if !next.After(current) {
			t.Fatalf("expected %s rollover to advance past %s, got %s", frequency, current, next)
		}
	}
}
