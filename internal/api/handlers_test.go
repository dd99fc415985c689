package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/solpay/recurring-service/internal/app"
	"github.com/solpay/recurring-service/internal/domain"
	"github.com/solpay/recurring-service/internal/store"
)

type handlerRepoStub struct {
	schedules []domain.RecurringPayment
	deleteErr error
}

func (s *handlerRepoStub) CreateSchedule(ctx context.Context, schedule *domain.RecurringPayment) (*domain.RecurringPayment, error) {
	stored := *schedule
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	return &stored, nil
}

func (s *handlerRepoStub) ListSchedulesByWallet(ctx context.Context, walletAddress string) ([]domain.RecurringPayment, error) {
	return s.schedules, nil
}

func (s *handlerRepoStub) DeleteSchedule(ctx context.Context, id string) error {
	return s.deleteErr
}

func newTestRouter(repo *handlerRepoStub) http.Handler {
	service := app.NewService(repo, "https://pay.solpay.app")
	return NewRouter(NewHandler(service), "", "")
}

func TestHandleCreateSchedule_Success(t *testing.T) {
	router := newTestRouter(&handlerRepoStub{})

	body := `{"walletAddress":"payer","recipient":"merchant","description":"pro plan","amount":10,"frequency":"daily"}`
	req := httptest.NewRequest(http.MethodPost, "/recurring-payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created app.ScheduleWithLink
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.AmountLamports != 10*app.LamportsPerSOL {
		t.Fatalf("expected lamports conversion, got %d", created.AmountLamports)
	}
	if !strings.HasPrefix(created.PaymentLink, "https://pay.solpay.app/pay/") {
		t.Fatalf("unexpected payment link %q", created.PaymentLink)
	}
}

func TestHandleCreateSchedule_RejectsBadFrequency(t *testing.T) {
	router := newTestRouter(&handlerRepoStub{})

	body := `{"walletAddress":"payer","recipient":"merchant","amount":10,"frequency":"hourly"}`
	req := httptest.NewRequest(http.MethodPost, "/recurring-payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad frequency, got %d", rec.Code)
	}
}

func TestHandleCreateSchedule_RejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&handlerRepoStub{})

	req := httptest.NewRequest(http.MethodPost, "/recurring-payments", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestHandleListSchedules(t *testing.T) {
	repo := &handlerRepoStub{schedules: []domain.RecurringPayment{
		{ID: "sched-1", WalletAddress: "payer"},
	}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/recurring-payments/payer", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var schedules []app.ScheduleWithLink
	if err := json.Unmarshal(rec.Body.Bytes(), &schedules); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(schedules) != 1 || schedules[0].ID != "sched-1" {
		t.Fatalf("unexpected schedules: %+v", schedules)
	}
}

func TestHandleDeleteSchedule_NotFound(t *testing.T) {
	router := newTestRouter(&handlerRepoStub{deleteErr: store.ErrScheduleNotFound})

	req := httptest.NewRequest(http.MethodDelete, "/recurring-payments/missing-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleDeleteSchedule_Success(t *testing.T) {
	router := newTestRouter(&handlerRepoStub{})

	req := httptest.NewRequest(http.MethodDelete, "/recurring-payments/sched-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestInternalAuthMiddleware_RejectsBadKey(t *testing.T) {
	service := app.NewService(&handlerRepoStub{}, "https://pay.solpay.app")
	router := NewRouter(NewHandler(service), "", "secret-key")

	req := httptest.NewRequest(http.MethodGet, "/recurring-payments/payer", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/recurring-payments/payer", nil)
	req.Header.Set("X-Internal-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rec.Code)
	}
}
