package gateway

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/alovak/cardflow-gateway/internal/bank"
	"github.com/alovak/cardflow-gateway/internal/cardnum"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const unexpectedBankFailure = "An unexpected error occurred processing the payment"

// BankClient charges a card at the acquiring bank. *bank.Client implements it.
type BankClient interface {
	Charge(ctx context.Context, req bank.PaymentRequest) (*bank.PaymentResponse, error)
}

// Service turns payment requests into stored payment records. Every request
// that reaches it ends up as exactly one record, whatever the bank does.
type Service struct {
	repo      *Repository
	bank      BankClient
	validator *Validator
	logger    *slog.Logger
	metrics   *Metrics
}

func NewService(repo *Repository, bankClient BankClient, validator *Validator, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{
		repo:      repo,
		bank:      bankClient,
		validator: validator,
		logger:    logger.With(slog.String("component", "payments")),
		metrics:   metrics,
	}
}

// Process validates req, charges the card when the request is valid, and
// stores the outcome. The returned error is non-nil only when the record could
// not be stored.
func (s *Service) Process(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	if violations := s.validator.Validate(req); len(violations) > 0 {
		return s.Reject(req, violations)
	}

	payment := newPayment(req)
	logger := s.logger.With(slog.String("payment_id", payment.ID))

	resp, err := s.charge(ctx, req)

	var bankErr *bank.Error
	switch {
	case errors.As(err, &bankErr):
		logger.Warn("bank call failed",
			slog.String("kind", bankErr.Kind.String()),
			slog.Int("bank_status", bankErr.StatusCode),
			slog.Any("err", err),
		)
		payment.Status = models.PaymentStatusRejected
		payment.ValidationErrors = []string{bankErr.Message}

	case err != nil:
		logger.Error("unexpected bank failure", slog.Any("err", err))
		payment.Status = models.PaymentStatusRejected
		payment.ValidationErrors = []string{unexpectedBankFailure}

	case resp == nil:
		logger.Error("bank returned no response")
		payment.Status = models.PaymentStatusRejected
		payment.ValidationErrors = []string{unexpectedBankFailure}

	case resp.Authorized:
		payment.Status = models.PaymentStatusAuthorized

	default:
		payment.Status = models.PaymentStatusDeclined
	}

	if err := s.store(payment); err != nil {
		return nil, err
	}

	logger.Info("payment processed",
		slog.String("status", string(payment.Status)),
		slog.String("last_four", payment.CardNumberLastFour),
	)

	return payment, nil
}

// Reject stores a Rejected record for req with the given violations without
// contacting the bank.
func (s *Service) Reject(req models.PaymentRequest, violations []string) (*models.Payment, error) {
	payment := newPayment(req)
	payment.Status = models.PaymentStatusRejected
	payment.ValidationErrors = append(make([]string, 0, len(violations)), violations...)

	if err := s.store(payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment rejected",
		slog.String("payment_id", payment.ID),
		slog.Int("violations", len(violations)),
	)

	return payment, nil
}

func (s *Service) GetPayment(id string) (*models.Payment, error) {
	payment, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("finding payment: %w", err)
	}

	return payment, nil
}

// charge calls the bank and turns a panic inside the client into an error so a
// record is still written.
func (s *Service) charge(ctx context.Context, req models.PaymentRequest) (resp *bank.PaymentResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("bank client panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			resp, err = nil, fmt.Errorf("bank client panic: %v", r)
		}
	}()

	return s.bank.Charge(ctx, bank.PaymentRequest{
		CardNumber: req.CardNumber,
		ExpiryDate: expiry.FormatMMYYYY(req.ExpiryMonth, req.ExpiryYear),
		Currency:   req.Currency,
		Amount:     req.Amount,
		CVV:        req.CVV,
	})
}

func (s *Service) store(payment *models.Payment) error {
	if err := s.repo.Add(payment); err != nil {
		s.logger.Error("storing payment", slog.String("payment_id", payment.ID), slog.Any("err", err))
		return fmt.Errorf("storing payment: %w", err)
	}

	s.metrics.PaymentProcessed(payment.Status)

	return nil
}

func newPayment(req models.PaymentRequest) *models.Payment {
	return &models.Payment{
		ID:                 uuid.New().String(),
		CardNumberLastFour: cardnum.LastFour(req.CardNumber),
		ExpiryMonth:        req.ExpiryMonth,
		ExpiryYear:         req.ExpiryYear,
		Currency:           req.Currency,
		Amount:             req.Amount,
		ValidationErrors:   []string{},
	}
}
