/**
 * @description
 * Event payloads published to the message broker when the sweep settles,
 * fails, or suspends a schedule. Downstream consumers (webhook dispatcher,
 * notification surfaces) subscribe to these on the topic exchange.
 */
package domain

import "time"

// Routing keys for settlement lifecycle events.
const (
	EventPaymentSettled    = "payment.settled"
	EventPaymentFailed     = "payment.failed"
	EventScheduleSuspended = "schedule.suspended"
)

// SettlementEvent is the payload published for every settlement outcome.
type SettlementEvent struct {
	EventID        string    `json:"event_id"`
	ScheduleID     string    `json:"schedule_id"`
	CycleNumber    int64     `json:"cycle_number"`
	WalletAddress  string    `json:"wallet_address"`
	Recipient      string    `json:"recipient"`
	AmountLamports int64     `json:"amount_lamports"`
	Signature      string    `json:"signature,omitempty"`
	ErrorDetail    string    `json:"error_detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
