package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const maxRequestBody = 1 << 20

// fieldLabels names request fields the way violation messages refer to them.
var fieldLabels = map[string]string{
	"card_number":  "Card number",
	"expiry_month": "Expiry month",
	"expiry_year":  "Expiry year",
	"currency":     "Currency",
	"amount":       "Amount",
	"cvv":          "CVV",
}

// postPaymentRequest is the wire form of a payment. Pointers tell a missing
// field apart from a zero value.
type postPaymentRequest struct {
	CardNumber  *string `json:"card_number" validate:"required"`
	ExpiryMonth *int    `json:"expiry_month" validate:"required"`
	ExpiryYear  *int    `json:"expiry_year" validate:"required"`
	Currency    *string `json:"currency" validate:"required"`
	Amount      *int    `json:"amount" validate:"required"`
	CVV         *string `json:"cvv" validate:"required"`
}

func (p postPaymentRequest) toModel() models.PaymentRequest {
	var req models.PaymentRequest
	if p.CardNumber != nil {
		req.CardNumber = *p.CardNumber
	}
	if p.ExpiryMonth != nil {
		req.ExpiryMonth = *p.ExpiryMonth
	}
	if p.ExpiryYear != nil {
		req.ExpiryYear = *p.ExpiryYear
	}
	if p.Currency != nil {
		req.Currency = *p.Currency
	}
	if p.Amount != nil {
		req.Amount = *p.Amount
	}
	if p.CVV != nil {
		req.CVV = *p.CVV
	}
	return req
}

// API is a HTTP API for the payment gateway
type API struct {
	payments *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPI(payments *Service, logger *slog.Logger) *API {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &API{
		payments: payments,
		validate: validate,
		logger:   logger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", a.createPayment)
		r.Get("/{paymentID}", a.getPayment)
	})
}

func (a *API) createPayment(w http.ResponseWriter, r *http.Request) {
	body := postPaymentRequest{}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	err := dec.Decode(&body)
	if err != nil {
		a.reject(w, body.toModel(), []string{decodeViolation(err)})
		return
	}

	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		a.reject(w, body.toModel(), []string{"Request body must be valid JSON"})
		return
	}

	if violations := a.missingFields(body); len(violations) > 0 {
		a.reject(w, body.toModel(), violations)
		return
	}

	payment, err := a.payments.Process(r.Context(), body.toModel())
	if err != nil {
		http.Error(w, "unable to record payment", http.StatusInternalServerError)
		return
	}

	if payment.Status == models.PaymentStatusRejected {
		writeJSON(w, http.StatusUnprocessableEntity, payment)
		return
	}

	w.Header().Set("Location", "/api/payments/"+payment.ID)
	writeJSON(w, http.StatusCreated, payment)
}

func (a *API) getPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	// only UUIDs can name a payment
	if _, err := uuid.Parse(paymentID); err != nil {
		http.Error(w, ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	payment, err := a.payments.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.logger.Warn("payment not found", slog.String("payment_id", paymentID))
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

func (a *API) reject(w http.ResponseWriter, req models.PaymentRequest, violations []string) {
	payment, err := a.payments.Reject(req, violations)
	if err != nil {
		http.Error(w, "unable to record payment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusUnprocessableEntity, payment)
}

// missingFields reports every absent or null field in declaration order.
func (a *API) missingFields(body postPaymentRequest) []string {
	err := a.validate.Struct(body)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	violations := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, label(fe.Field())+" is required")
	}
	return violations
}

func decodeViolation(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return label(typeErr.Field) + " has an invalid type"
	}
	return "Request body must be valid JSON"
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
