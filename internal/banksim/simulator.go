// Package banksim simulates the acquiring bank. The outcome of a payment is
// decided by the last digit of its card number: odd digits are authorized,
// even digits are declined and zero makes the bank unavailable.
package banksim

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alovak/cardflow-gateway/internal/bank"
	"github.com/alovak/cardflow-gateway/internal/cardnum"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type Simulator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Simulator {
	return &Simulator{
		logger: logger.With(slog.String("app", "bank-simulator")),
	}
}

func (s *Simulator) AppendRoutes(r chi.Router) {
	r.Post("/payments", s.createPayment)
}

// Handler returns a router serving only the simulator routes.
func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	s.AppendRoutes(r)
	return r
}

func (s *Simulator) createPayment(w http.ResponseWriter, r *http.Request) {
	req := bank.PaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bank.ErrorResponse{ErrorMessage: "Request body must be valid JSON"})
		return
	}

	if msg := missingField(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, bank.ErrorResponse{ErrorMessage: msg})
		return
	}

	logger := s.logger.With(slog.String("card", cardnum.Mask(req.CardNumber)))

	switch last := req.CardNumber[len(req.CardNumber)-1]; {
	case last == '0':
		logger.Info("simulating outage")
		w.WriteHeader(http.StatusServiceUnavailable)

	case (last-'0')%2 == 1:
		code := uuid.New().String()
		logger.Info("payment authorized")
		writeJSON(w, http.StatusOK, bank.PaymentResponse{Authorized: true, AuthorizationCode: &code})

	default:
		logger.Info("payment declined")
		writeJSON(w, http.StatusOK, bank.PaymentResponse{Authorized: false})
	}
}

// missingField returns the error message for the first absent or malformed
// field, or "" when the request is complete.
func missingField(req bank.PaymentRequest) string {
	switch {
	case req.CardNumber == "" || !cardnum.IsDigits(req.CardNumber):
		return "card_number is required"
	case strings.TrimSpace(req.ExpiryDate) == "":
		return "expiry_date is required"
	case req.Currency == "":
		return "currency is required"
	case req.Amount <= 0:
		return "amount is required"
	case req.CVV == "":
		return "cvv is required"
	}

	if _, _, err := expiry.ParseMMYYYY(req.ExpiryDate); err != nil {
		return "expiry_date must be MM/YYYY"
	}

	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
