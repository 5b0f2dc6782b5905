package gateway

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alovak/cardflow-gateway/internal/bank"
	"github.com/go-playground/validator/v10"
)

// Config is a configuration for the gateway application. It is passed by value;
// components receive the section they need.
type Config struct {
	HTTPAddr string `validate:"required"`
	LogLevel string `validate:"omitempty,oneof=debug info warn warning error"`
	// ExpiryTZ is an IANA timezone name used to decide what "today" is when
	// checking card expiry (e.g., "Europe/London"). Empty means UTC.
	ExpiryTZ string

	Bank       BankConfig
	Validation ValidationConfig
	Resilience ResilienceConfig
}

type BankConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type ValidationConfig struct {
	SupportedCurrencies []string `validate:"required,min=1,dive,len=3"`
	CardNumberMinLength int      `validate:"gt=0"`
	CardNumberMaxLength int      `validate:"gtefield=CardNumberMinLength"`
	CVVMinLength        int      `validate:"gt=0"`
	CVVMaxLength        int      `validate:"gtefield=CVVMinLength"`
}

type ResilienceConfig struct {
	MaxRetries     int           `validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr: "localhost:9090",
		LogLevel: "info",
		Bank: BankConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		Validation: DefaultValidationConfig(),
		Resilience: ResilienceConfig{
			MaxRetries:     bank.DefaultMaxRetries,
			InitialBackoff: bank.DefaultInitialBackoff,
		},
	}
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		SupportedCurrencies: []string{"USD", "GBP", "EUR"},
		CardNumberMinLength: 14,
		CardNumberMaxLength: 19,
		CVVMinLength:        3,
		CVVMaxLength:        4,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) BankClientConfig() bank.Config {
	return bank.Config{
		BaseURL: c.Bank.BaseURL,
		Timeout: c.Bank.Timeout,
	}
}

func (c Config) RetryPolicy() bank.RetryPolicy {
	return bank.NewRetryPolicy(c.Resilience.MaxRetries, c.Resilience.InitialBackoff)
}

// ConfigFromEnv applies environment overrides on top of DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", cfg.LogLevel))
	cfg.ExpiryTZ = getenv("EXPIRY_TZ", cfg.ExpiryTZ)
	cfg.Bank.BaseURL = getenv("BANK_BASE_URL", cfg.Bank.BaseURL)

	if v := os.Getenv("SUPPORTED_CURRENCIES"); v != "" {
		var currencies []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
				currencies = append(currencies, c)
			}
		}
		cfg.Validation.SupportedCurrencies = currencies
	}

	var err error
	if cfg.Bank.Timeout, err = durationEnv("BANK_TIMEOUT", cfg.Bank.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.Resilience.InitialBackoff, err = durationEnv("BANK_INITIAL_BACKOFF", cfg.Resilience.InitialBackoff); err != nil {
		return Config{}, err
	}
	if cfg.Resilience.MaxRetries, err = intEnv("BANK_MAX_RETRIES", cfg.Resilience.MaxRetries); err != nil {
		return Config{}, err
	}
	if cfg.Validation.CardNumberMinLength, err = intEnv("CARD_NUMBER_MIN_LENGTH", cfg.Validation.CardNumberMinLength); err != nil {
		return Config{}, err
	}
	if cfg.Validation.CardNumberMaxLength, err = intEnv("CARD_NUMBER_MAX_LENGTH", cfg.Validation.CardNumberMaxLength); err != nil {
		return Config{}, err
	}
	if cfg.Validation.CVVMinLength, err = intEnv("CVV_MIN_LENGTH", cfg.Validation.CVVMinLength); err != nil {
		return Config{}, err
	}
	if cfg.Validation.CVVMaxLength, err = intEnv("CVV_MAX_LENGTH", cfg.Validation.CVVMaxLength); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", k, err)
	}
	return n, nil
}

// durationEnv accepts Go durations ("1500ms") or whole seconds ("15").
func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", k, err)
	}
	return d, nil
}
