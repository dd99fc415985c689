/**
 * @description
 * This file contains the HTTP handler functions for the recurring-service.
 * Handlers parse incoming requests, call the schedule service, and write
 * JSON responses with the appropriate status codes.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solpay/recurring-service/internal/app"
	"github.com/solpay/recurring-service/internal/store"
)

// Handler holds the application service that handlers will interact with.
type Handler struct {
	service app.Service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service app.Service) *Handler {
	return &Handler{service: service}
}

// createScheduleRequest mirrors the public API body for schedule creation.
// Amount is denominated in SOL and converted to lamports by the service.
type createScheduleRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Frequency     string  `json:"frequency"`
	Recipient     string  `json:"recipient"`
}

// handleCreateSchedule handles POST /recurring-payments.
func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), app.CreateScheduleInput{
		WalletAddress: req.WalletAddress,
		Recipient:     req.Recipient,
		Description:   req.Description,
		AmountSOL:     req.Amount,
		Frequency:     req.Frequency,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to create schedule")
		return
	}

	respondWithJSON(w, http.StatusCreated, schedule)
}

// handleListSchedules handles GET /recurring-payments/{address}.
func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	schedules, err := h.service.ListSchedules(r.Context(), address)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}

	respondWithJSON(w, http.StatusOK, schedules)
}

// handleDeleteSchedule handles DELETE /recurring-payments/{id}.
func (h *Handler) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteSchedule(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrScheduleNotFound):
			respondWithError(w, http.StatusNotFound, "schedule not found")
		case errors.Is(err, app.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to delete schedule")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
