package bank

// PaymentRequest is the body of POST /payments on the acquiring bank.
// It carries the full card number and CVV: never log or persist it.
type PaymentRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"` // MM/YYYY
	Currency   string `json:"currency"`
	Amount     int    `json:"amount"`
	CVV        string `json:"cvv"`
}

type PaymentResponse struct {
	Authorized        bool    `json:"authorized"`
	AuthorizationCode *string `json:"authorization_code"`
}

// ErrorResponse is returned by the bank with client error statuses.
type ErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}
