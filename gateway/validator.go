package gateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/alovak/cardflow-gateway/internal/cardnum"
	"github.com/alovak/cardflow-gateway/internal/expiry"
	"golang.org/x/exp/slices"
)

// maxExpiryYears caps how far in the future an expiry year may be.
const maxExpiryYears = 100

// Validator checks payment requests against a fixed ValidationConfig.
type Validator struct {
	cfg ValidationConfig
	loc *time.Location
	now func() time.Time
}

// NewValidator returns a validator that judges expiry against today's date in loc
// (UTC when nil).
func NewValidator(cfg ValidationConfig, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{
		cfg: cfg,
		loc: loc,
		now: time.Now,
	}
}

func (v *Validator) Validate(req models.PaymentRequest) []string {
	return ValidatePayment(req, v.cfg, v.now().In(v.loc))
}

// ValidatePayment returns the violations of req in a fixed order: card number,
// currency, amount, CVV, expiry. Expiry is judged against the calendar date of
// today in today's location. A nil result means the request is valid.
func ValidatePayment(req models.PaymentRequest, cfg ValidationConfig, today time.Time) []string {
	var violations []string

	if req.CardNumber == "" || !cardnum.IsDigits(req.CardNumber) {
		violations = append(violations, "Card number must contain only digits")
	} else if n := len(req.CardNumber); n < cfg.CardNumberMinLength || n > cfg.CardNumberMaxLength {
		violations = append(violations, fmt.Sprintf("Card number must be between %d and %d digits", cfg.CardNumberMinLength, cfg.CardNumberMaxLength))
	}

	if strings.TrimSpace(req.Currency) == "" {
		violations = append(violations, "Currency is required")
	} else {
		if len(req.Currency) != 3 {
			violations = append(violations, "Currency must be exactly 3 characters")
		}
		if !slices.Contains(cfg.SupportedCurrencies, req.Currency) {
			violations = append(violations, "Currency must be one of: "+strings.Join(cfg.SupportedCurrencies, ", "))
		}
	}

	if req.Amount <= 0 {
		violations = append(violations, "Amount must be a positive integer")
	}

	if req.CVV == "" || !cardnum.IsDigits(req.CVV) {
		violations = append(violations, "CVV must contain only digits")
	} else if n := len(req.CVV); n < cfg.CVVMinLength || n > cfg.CVVMaxLength {
		violations = append(violations, fmt.Sprintf("CVV must be between %d and %d digits", cfg.CVVMinLength, cfg.CVVMaxLength))
	}

	// date arithmetic below needs a real month
	if err := expiry.ValidateMonth(req.ExpiryMonth); err != nil {
		return append(violations, "Expiry month must be between 1 and 12")
	}

	if maxYear := today.Year() + maxExpiryYears; req.ExpiryYear > maxYear {
		return append(violations, fmt.Sprintf("Expiry year must not be later than %d", maxYear))
	}

	if !expiry.InFuture(req.ExpiryYear, req.ExpiryMonth, today, today.Location()) {
		violations = append(violations, "Card expiration date must be in the future")
	}

	return violations
}
