package models

type PaymentStatus string

const (
	PaymentStatusAuthorized PaymentStatus = "Authorized"
	PaymentStatusDeclined   PaymentStatus = "Declined"
	PaymentStatusRejected   PaymentStatus = "Rejected"
)

// PaymentRequest is the caller's card payment. It only lives for the duration
// of one processing call.
type PaymentRequest struct {
	CardNumber  string
	ExpiryMonth int
	ExpiryYear  int
	Currency    string
	Amount      int
	CVV         string
}

// Payment is the stored outcome of a processing call. It never holds more of
// the card than its last four digits.
type Payment struct {
	ID                 string        `json:"id"`
	Status             PaymentStatus `json:"status"`
	CardNumberLastFour string        `json:"card_number_last_four"`
	ExpiryMonth        int           `json:"expiry_month"`
	ExpiryYear         int           `json:"expiry_year"`
	Currency           string        `json:"currency"`
	Amount             int           `json:"amount"`
	ValidationErrors   []string      `json:"validation_errors"`
}

// Clone returns a deep copy so stored records cannot be changed through a
// returned pointer.
func (p *Payment) Clone() *Payment {
	c := *p
	c.ValidationErrors = append(make([]string, 0, len(p.ValidationErrors)), p.ValidationErrors...)
	return &c
}
