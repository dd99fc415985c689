/**
 * @description
 * The due-payment sweep for the recurring-service. Each run discovers all
 * schedules whose next payment date has arrived, attempts settlement through
 * the ledger client, advances the schedule on success, and tracks failures
 * up to the dead-letter threshold. Every schedule is processed in isolation;
 * one failure never aborts the sweep.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/solpay/recurring-service/internal/config"
	"github.com/solpay/recurring-service/internal/domain"
	"github.com/solpay/recurring-service/internal/store"
	"github.com/solpay/recurring-service/pkg/rabbitmq"
)

// Repository defines the database operations needed by the sweep.
type Repository interface {
	GetDueSchedules(ctx context.Context) ([]domain.RecurringPayment, error)
	AdvanceSchedule(ctx context.Context, id string, observedNextPayment, newNextPayment time.Time) (bool, error)
	RecordSettlementFailure(ctx context.Context, id string) (int, error)
	SuspendSchedule(ctx context.Context, id string) error
	InsertSettlementAttempt(ctx context.Context, attempt domain.SettlementAttempt) error
}

// LedgerClient defines the interface for submitting transfers to the ledger gateway.
type LedgerClient interface {
	SubmitTransfer(ctx context.Context, payer, recipient string, amountLamports int64) (string, error)
}

// SweepLock guards against two service instances sweeping at the same time.
type SweepLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// Sweeper contains the logic for the recurring payment sweep.
type Sweeper struct {
	repo   Repository
	ledger LedgerClient
	lock   SweepLock
	events rabbitmq.Publisher
	logger *slog.Logger
	config config.Config
}

// NewSweeper creates a new sweep runner.
func NewSweeper(repo Repository, ledger LedgerClient, lock SweepLock, events rabbitmq.Publisher, logger *slog.Logger, cfg config.Config) *Sweeper {
	return &Sweeper{
		repo:   repo,
		ledger: ledger,
		lock:   lock,
		events: events,
		logger: logger,
		config: cfg,
	}
}

// RunSweep is the cron entry point. It processes all currently due schedules
// sequentially and returns when every one has been attempted.
func (s *Sweeper) RunSweep() {
	ctx := context.Background()

	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		// A broken lock backend must not stop payments; the per-record
		// conditional advance still prevents double rollover.
		s.logger.Warn("sweep lease acquisition failed, proceeding without it", "error", err)
	} else if !acquired {
		s.logger.Info("sweep lease held by another instance, skipping this tick")
		return
	} else {
		defer s.lock.Release(ctx)
	}

	due, err := s.repo.GetDueSchedules(ctx)
	if err != nil {
		s.logger.Error("failed to query due schedules", "error", err)
		return
	}

	if len(due) == 0 {
		s.logger.Info("no due schedules to process")
		return
	}

	s.logger.Info("found due schedules", "count", len(due))

	for _, schedule := range due {
		s.processSchedule(ctx, schedule)
	}

	s.logger.Info("sweep finished", "count", len(due))
}

// processSchedule attempts settlement for one due schedule and applies the
// rollover or failure bookkeeping. Errors are logged and contained here.
func (s *Sweeper) processSchedule(ctx context.Context, schedule domain.RecurringPayment) {
	// The attempt belongs to the cycle being settled, one past the last
	// completed cycle.
	cycle := schedule.CycleNumber + 1

	signature, err := s.ledger.SubmitTransfer(ctx, schedule.WalletAddress, schedule.Recipient, schedule.AmountLamports)
	if err != nil {
		s.handleSettlementFailure(ctx, schedule, cycle, err)
		return
	}

	next, err := NextPaymentDate(schedule.NextPaymentAt, schedule.Frequency)
	if err != nil {
		// A schedule we cannot roll over would re-settle every tick.
		// Suspend it instead of letting it bill again. Money already
		// moved, so the settled attempt and event still go out.
		s.logger.Error("rollover failed after settlement, suspending schedule",
			"schedule_id", schedule.ID, "frequency", schedule.Frequency, "error", err)
		s.recordAttempt(ctx, schedule, cycle, domain.AttemptStatusSettled, signature, "")
		s.publishEvent(ctx, domain.EventPaymentSettled, schedule, cycle, signature, "")
		if suspendErr := s.repo.SuspendSchedule(ctx, schedule.ID); suspendErr != nil {
			s.logger.Error("failed to suspend schedule", "schedule_id", schedule.ID, "error", suspendErr)
			return
		}
		s.publishEvent(ctx, domain.EventScheduleSuspended, schedule, cycle, "", err.Error())
		return
	}

	advanced, err := s.repo.AdvanceSchedule(ctx, schedule.ID, schedule.NextPaymentAt, next)
	if err != nil {
		s.logger.Error("failed to advance schedule", "schedule_id", schedule.ID, "error", err)
		return
	}
	if !advanced {
		// Deleted mid-sweep, or a concurrent sweep advanced it first.
		// Either way the transfer settled, so the audit log and event
		// must still reflect it; only the rollover is skipped.
		s.logger.Warn("schedule no longer at observed cycle, skipping rollover",
			"schedule_id", schedule.ID, "observed_next_payment", schedule.NextPaymentAt)
		s.recordAttempt(ctx, schedule, cycle, domain.AttemptStatusSettled, signature, "")
		s.publishEvent(ctx, domain.EventPaymentSettled, schedule, cycle, signature, "")
		return
	}

	s.recordAttempt(ctx, schedule, cycle, domain.AttemptStatusSettled, signature, "")
	s.publishEvent(ctx, domain.EventPaymentSettled, schedule, cycle, signature, "")

	s.logger.Info("settled recurring payment",
		"schedule_id", schedule.ID,
		"wallet_address", schedule.WalletAddress,
		"amount_lamports", schedule.AmountLamports,
		"signature", signature,
		"next_payment_at", next)
}

func (s *Sweeper) handleSettlementFailure(ctx context.Context, schedule domain.RecurringPayment, cycle int64, settleErr error) {
	s.logger.Error("settlement attempt failed",
		"schedule_id", schedule.ID,
		"wallet_address", schedule.WalletAddress,
		"error", settleErr)

	s.recordAttempt(ctx, schedule, cycle, domain.AttemptStatusFailed, "", settleErr.Error())
	s.publishEvent(ctx, domain.EventPaymentFailed, schedule, cycle, "", settleErr.Error())

	failures, err := s.repo.RecordSettlementFailure(ctx, schedule.ID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			s.logger.Warn("schedule deleted mid-sweep, skipping failure bookkeeping", "schedule_id", schedule.ID)
		} else {
			s.logger.Error("failed to record settlement failure", "schedule_id", schedule.ID, "error", err)
		}
		return
	}

	if failures >= s.config.MaxSettlementFailures {
		s.logger.Warn("schedule reached failure threshold, suspending",
			"schedule_id", schedule.ID, "consecutive_failures", failures)
		if err := s.repo.SuspendSchedule(ctx, schedule.ID); err != nil {
			s.logger.Error("failed to suspend schedule", "schedule_id", schedule.ID, "error", err)
			return
		}
		s.publishEvent(ctx, domain.EventScheduleSuspended, schedule, cycle, "", settleErr.Error())
	}
}

// recordAttempt appends to the settlement audit log. Logging failures here
// is best effort; the sweep outcome already stands.
func (s *Sweeper) recordAttempt(ctx context.Context, schedule domain.RecurringPayment, cycle int64, status, signature, errorDetail string) {
	attempt := domain.SettlementAttempt{
		ScheduleID:  schedule.ID,
		CycleNumber: cycle,
		Status:      status,
		Signature:   signature,
		ErrorDetail: errorDetail,
		AttemptedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertSettlementAttempt(ctx, attempt); err != nil {
		s.logger.Error("failed to record settlement attempt", "schedule_id", schedule.ID, "cycle", cycle, "error", err)
	}
}

func (s *Sweeper) publishEvent(ctx context.Context, routingKey string, schedule domain.RecurringPayment, cycle int64, signature, errorDetail string) {
	event := domain.SettlementEvent{
		EventID:        uuid.NewString(),
		ScheduleID:     schedule.ID,
		CycleNumber:    cycle,
		WalletAddress:  schedule.WalletAddress,
		Recipient:      schedule.Recipient,
		AmountLamports: schedule.AmountLamports,
		Signature:      signature,
		ErrorDetail:    errorDetail,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("failed to publish settlement event", "routing_key", routingKey, "schedule_id", schedule.ID, "error", err)
	}
}
