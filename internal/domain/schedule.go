/**
 * @description
 * This file defines the core domain models for the recurring-service: the
 * recurring payment schedule, its frequency and status enums, and the
 * append-only settlement attempt record.
 */
package domain

import "time"

// Frequency controls how far a schedule's next payment date advances
// after a successful settlement.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f is one of the supported billing frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Schedule statuses. A suspended schedule is never selected by the sweep;
// it is the dead-letter state reached after too many consecutive failures.
const (
	ScheduleStatusActive    = "active"
	ScheduleStatusSuspended = "suspended"
)

// RecurringPayment represents a stored intent to transfer a fixed amount
// from a payer wallet to a recipient on a repeating interval.
type RecurringPayment struct {
	ID                  string    `json:"id"`
	WalletAddress       string    `json:"wallet_address"`
	Recipient           string    `json:"recipient"`
	Description         string    `json:"description"`
	AmountLamports      int64     `json:"amount_lamports"`
	Frequency           Frequency `json:"frequency"`
	Status              string    `json:"status"`
	NextPaymentAt       time.Time `json:"next_payment_at"`
	CycleNumber         int64     `json:"cycle_number"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Settlement attempt outcomes.
const (
	AttemptStatusSettled = "settled"
	AttemptStatusFailed  = "failed"
)

// SettlementAttempt is one row of the append-only settlement audit log.
// (ScheduleID, CycleNumber) identifies the billing cycle the attempt
// belongs to, so reconciliation can tell retries of one cycle apart from
// attempts for the next.
type SettlementAttempt struct {
	ScheduleID  string    `json:"schedule_id"`
	CycleNumber int64     `json:"cycle_number"`
	Status      string    `json:"status"`
	Signature   string    `json:"signature,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}
