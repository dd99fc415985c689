/**
 * @description
 * This file implements the data access layer for the recurring-service.
 * It contains all the SQL queries and logic for interacting with the
 * database: schedule CRUD for the API, and the due-selection, optimistic
 * advance, and failure bookkeeping used by the sweep.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solpay/recurring-service/internal/domain"
)

// ErrScheduleNotFound is returned when a schedule id does not exist.
var ErrScheduleNotFound = errors.New("schedule not found")

// Repository handles database operations for recurring payment schedules.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const scheduleColumns = `
    id, wallet_address, recipient, description, amount_lamports, frequency,
    status, next_payment_at, cycle_number, consecutive_failures, created_at, updated_at
`

func scanSchedule(row pgx.Row) (*domain.RecurringPayment, error) {
	var s domain.RecurringPayment
	err := row.Scan(
		&s.ID,
		&s.WalletAddress,
		&s.Recipient,
		&s.Description,
		&s.AmountLamports,
		&s.Frequency,
		&s.Status,
		&s.NextPaymentAt,
		&s.CycleNumber,
		&s.ConsecutiveFailures,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSchedule inserts a new recurring payment schedule and returns the stored row.
func (r *Repository) CreateSchedule(ctx context.Context, s *domain.RecurringPayment) (*domain.RecurringPayment, error) {
	query := `
        INSERT INTO recurring_payments
            (id, wallet_address, recipient, description, amount_lamports, frequency, status, next_payment_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + scheduleColumns
	return scanSchedule(r.db.QueryRow(ctx, query,
		s.ID,
		s.WalletAddress,
		s.Recipient,
		s.Description,
		s.AmountLamports,
		s.Frequency,
		s.Status,
		s.NextPaymentAt,
	))
}

// ListSchedulesByWallet retrieves all schedules created by a payer wallet.
func (r *Repository) ListSchedulesByWallet(ctx context.Context, walletAddress string) ([]domain.RecurringPayment, error) {
	query := `
        SELECT ` + scheduleColumns + `
        FROM recurring_payments
        WHERE wallet_address = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.RecurringPayment
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// DeleteSchedule removes a schedule by id.
func (r *Repository) DeleteSchedule(ctx context.Context, id string) error {
	commandTag, err := r.db.Exec(ctx, `DELETE FROM recurring_payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// dueSchedulesQuery selects active schedules whose next payment time has
// arrived. The boundary is inclusive: a schedule due exactly now is swept,
// one due in the future never is.
const dueSchedulesQuery = `
    SELECT ` + scheduleColumns + `
    FROM recurring_payments
    WHERE status = 'active'
      AND next_payment_at <= NOW()
    ORDER BY next_payment_at
`

// GetDueSchedules fetches all active schedules whose next payment date has arrived.
func (r *Repository) GetDueSchedules(ctx context.Context) ([]domain.RecurringPayment, error) {
	rows, err := r.db.Query(ctx, dueSchedulesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []domain.RecurringPayment
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *s)
	}
	return due, rows.Err()
}

// AdvanceSchedule moves a schedule to its next billing cycle after a
// successful settlement. The update is conditional on next_payment_at still
// holding the value read at selection time, so an overlapping sweep (or a
// deletion) that got there first makes this a no-op. It returns whether the
// row was actually advanced.
func (r *Repository) AdvanceSchedule(ctx context.Context, id string, observedNextPayment, newNextPayment time.Time) (bool, error) {
	query := `
        UPDATE recurring_payments
        SET next_payment_at = $1,
            cycle_number = cycle_number + 1,
            consecutive_failures = 0,
            updated_at = NOW()
        WHERE id = $2
          AND next_payment_at = $3
    `
	commandTag, err := r.db.Exec(ctx, query, newNextPayment, id, observedNextPayment)
	if err != nil {
		return false, err
	}
	return commandTag.RowsAffected() > 0, nil
}

// RecordSettlementFailure increments a schedule's consecutive failure count
// and returns the new count. A missing row (deleted mid-sweep) returns
// ErrScheduleNotFound.
func (r *Repository) RecordSettlementFailure(ctx context.Context, id string) (int, error) {
	query := `
        UPDATE recurring_payments
        SET consecutive_failures = consecutive_failures + 1,
            updated_at = NOW()
        WHERE id = $1
        RETURNING consecutive_failures
    `
	var failures int
	if err := r.db.QueryRow(ctx, query, id).Scan(&failures); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrScheduleNotFound
		}
		return 0, err
	}
	return failures, nil
}

// SuspendSchedule marks a schedule as suspended so the sweep stops selecting it.
func (r *Repository) SuspendSchedule(ctx context.Context, id string) error {
	query := `
        UPDATE recurring_payments
        SET status = 'suspended',
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// InsertSettlementAttempt appends one row to the settlement audit log.
func (r *Repository) InsertSettlementAttempt(ctx context.Context, attempt domain.SettlementAttempt) error {
	query := `
        INSERT INTO settlement_attempts
            (schedule_id, cycle_number, status, signature, error_detail, attempted_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query,
		attempt.ScheduleID,
		attempt.CycleNumber,
		attempt.Status,
		attempt.Signature,
		attempt.ErrorDetail,
		attempt.AttemptedAt,
	)
	return err
}
