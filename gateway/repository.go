package gateway

import (
	"errors"
	"fmt"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/patrickmn/go-cache"
)

var (
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("payment already exists")
)

// Repository keeps payment records in process memory for the lifetime of the
// app. Records never expire. It is safe for concurrent use.
type Repository struct {
	payments *cache.Cache
}

func NewRepository() *Repository {
	return &Repository{
		// cleanup interval of zero disables the janitor
		payments: cache.New(cache.NoExpiration, 0),
	}
}

// Add stores a copy of payment. Records are immutable once stored, so a second
// Add with the same ID fails with ErrConflict.
func (r *Repository) Add(payment *models.Payment) error {
	if payment == nil || payment.ID == "" {
		return errors.New("payment id is required")
	}

	if err := r.payments.Add(payment.ID, payment.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("adding payment %s: %w", payment.ID, ErrConflict)
	}

	return nil
}

// Get returns a copy of the stored payment.
func (r *Repository) Get(id string) (*models.Payment, error) {
	v, found := r.payments.Get(id)
	if !found {
		return nil, ErrNotFound
	}

	payment, ok := v.(*models.Payment)
	if !ok {
		return nil, fmt.Errorf("unexpected record type %T for payment %s", v, id)
	}

	return payment.Clone(), nil
}

func (r *Repository) Count() int {
	return r.payments.ItemCount()
}
