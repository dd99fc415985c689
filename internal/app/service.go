/**
 * @description
 * This file contains the business logic for managing recurring payment
 * schedules over the HTTP API: input validation, SOL-to-lamports conversion,
 * first-due-date computation, and payment-link construction.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/solpay/recurring-service/internal/domain"
)

// LamportsPerSOL is the number of base units in one SOL.
const LamportsPerSOL = 1_000_000_000

// ErrInvalidInput marks validation failures so the API layer can answer 400.
var ErrInvalidInput = errors.New("invalid input")

// ScheduleRepository defines the database operations the API service needs.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, s *domain.RecurringPayment) (*domain.RecurringPayment, error)
	ListSchedulesByWallet(ctx context.Context, walletAddress string) ([]domain.RecurringPayment, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// CreateScheduleInput is the validated request to create a schedule.
type CreateScheduleInput struct {
	WalletAddress string
	Recipient     string
	Description   string
	AmountSOL     float64
	Frequency     string
}

// ScheduleWithLink pairs a stored schedule with its shareable payment link.
type ScheduleWithLink struct {
	domain.RecurringPayment
	PaymentLink string `json:"payment_link"`
}

// Service provides the business logic for schedule management.
type Service struct {
	repo            ScheduleRepository
	frontendBaseURL string
}

// NewService creates a new schedule service.
func NewService(repo ScheduleRepository, frontendBaseURL string) Service {
	return Service{
		repo:            repo,
		frontendBaseURL: strings.TrimSuffix(frontendBaseURL, "/"),
	}
}

// CreateSchedule validates the input and stores a new active schedule whose
// first payment comes due one full interval after creation.
func (s Service) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*ScheduleWithLink, error) {
	if strings.TrimSpace(input.WalletAddress) == "" {
		return nil, fmt.Errorf("%w: walletAddress is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Recipient) == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}

	frequency := domain.Frequency(strings.ToLower(strings.TrimSpace(input.Frequency)))
	if !frequency.IsValid() {
		return nil, fmt.Errorf("%w: frequency must be one of daily, weekly, monthly", ErrInvalidInput)
	}

	amountLamports := int64(math.Round(input.AmountSOL * LamportsPerSOL))
	if amountLamports <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	now := time.Now().UTC()
	firstPayment, err := NextPaymentDate(now, frequency)
	if err != nil {
		return nil, err
	}

	schedule := &domain.RecurringPayment{
		ID:             uuid.NewString(),
		WalletAddress:  strings.TrimSpace(input.WalletAddress),
		Recipient:      strings.TrimSpace(input.Recipient),
		Description:    strings.TrimSpace(input.Description),
		AmountLamports: amountLamports,
		Frequency:      frequency,
		Status:         domain.ScheduleStatusActive,
		NextPaymentAt:  firstPayment,
	}

	created, err := s.repo.CreateSchedule(ctx, schedule)
	if err != nil {
		return nil, err
	}

	return &ScheduleWithLink{
		RecurringPayment: *created,
		PaymentLink:      s.paymentLink(created.ID),
	}, nil
}

// ListSchedules returns all schedules for a payer wallet with their links.
func (s Service) ListSchedules(ctx context.Context, walletAddress string) ([]ScheduleWithLink, error) {
	if strings.TrimSpace(walletAddress) == "" {
		return nil, fmt.Errorf("%w: wallet address is required", ErrInvalidInput)
	}

	schedules, err := s.repo.ListSchedulesByWallet(ctx, strings.TrimSpace(walletAddress))
	if err != nil {
		return nil, err
	}

	result := make([]ScheduleWithLink, 0, len(schedules))
	for _, schedule := range schedules {
		result = append(result, ScheduleWithLink{
			RecurringPayment: schedule,
			PaymentLink:      s.paymentLink(schedule.ID),
		})
	}
	return result, nil
}

// DeleteSchedule removes a schedule by id.
func (s Service) DeleteSchedule(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: schedule id is required", ErrInvalidInput)
	}
	return s.repo.DeleteSchedule(ctx, strings.TrimSpace(id))
}

func (s Service) paymentLink(scheduleID string) string {
	return fmt.Sprintf("%s/pay/%s", s.frontendBaseURL, scheduleID)
}
