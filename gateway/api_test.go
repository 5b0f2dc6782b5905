package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alovak/cardflow-gateway/gateway/models"
	"github.com/alovak/cardflow-gateway/internal/bank"
	"github.com/alovak/cardflow-gateway/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const validPaymentJSON = `{
	"card_number": "2222405343248877",
	"expiry_month": 4,
	"expiry_year": 2031,
	"currency": "GBP",
	"amount": 100,
	"cvv": "123"
}`

func newTestRouter(t *testing.T, fb *fakeBank) (chi.Router, *Repository) {
	t.Helper()

	svc, repo, _ := newTestService(t, fb)
	router := chi.NewRouter()
	NewAPI(svc, logging.Discard()).AppendRoutes(router)

	return router, repo
}

func postPayment(router http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodePayment(t *testing.T, w *httptest.ResponseRecorder) models.Payment {
	t.Helper()

	payment := models.Payment{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payment))
	return payment
}

func TestAPI(t *testing.T) {
	fb := authorizing(true)
	router, _ := newTestRouter(t, fb)

	var created models.Payment

	t.Run("create payment", func(t *testing.T) {
		w := postPayment(router, validPaymentJSON)

		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		created = decodePayment(t, w)
		require.Equal(t, "/api/payments/"+created.ID, w.Header().Get("Location"))
		require.Equal(t, models.PaymentStatusAuthorized, created.Status)
		require.Equal(t, "8877", created.CardNumberLastFour)
		require.Equal(t, 4, created.ExpiryMonth)
		require.Equal(t, 2031, created.ExpiryYear)
		require.Equal(t, "GBP", created.Currency)
		require.Equal(t, 100, created.Amount)
		require.Empty(t, created.ValidationErrors)
		require.NotContains(t, w.Body.String(), "2222405343248877")
		require.NotContains(t, w.Body.String(), `"cvv"`)
	})

	t.Run("get payment", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/payments/"+created.ID, nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, created, decodePayment(t, w))
	})

	require.Equal(t, 1, fb.callCount())
}

func TestAPI_Declined(t *testing.T) {
	router, _ := newTestRouter(t, authorizing(false))

	w := postPayment(router, validPaymentJSON)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, models.PaymentStatusDeclined, decodePayment(t, w).Status)
}

func TestAPI_ValidationRejection(t *testing.T) {
	fb := authorizing(true)
	router, repo := newTestRouter(t, fb)

	w := postPayment(router, `{
		"card_number": "2222405343248877",
		"expiry_month": 4,
		"expiry_year": 2031,
		"currency": "JPY",
		"amount": 100,
		"cvv": "123"
	}`)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	payment := decodePayment(t, w)
	require.Equal(t, models.PaymentStatusRejected, payment.Status)
	require.Equal(t, []string{"Currency must be one of: USD, GBP, EUR"}, payment.ValidationErrors)
	require.Empty(t, w.Header().Get("Location"))
	require.Zero(t, fb.callCount())

	// rejected payments can be read back too
	stored, err := repo.Get(payment.ID)
	require.NoError(t, err)
	require.Equal(t, payment.ValidationErrors, stored.ValidationErrors)
}

func TestAPI_StructuralRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "malformed json",
			body: `{"card_number": `,
			want: []string{"Request body must be valid JSON"},
		},
		{
			name: "trailing data",
			body: `{"card_number":"2222405343248877","expiry_month":4,"expiry_year":2031,"currency":"GBP","amount":100,"cvv":"123"}xyz`,
			want: []string{"Request body must be valid JSON"},
		},
		{
			name: "two json values",
			body: `{"card_number":"2222405343248877","expiry_month":4,"expiry_year":2031,"currency":"GBP","amount":100,"cvv":"123"} {}`,
			want: []string{"Request body must be valid JSON"},
		},
		{
			name: "empty body",
			body: ``,
			want: []string{"Request body must be valid JSON"},
		},
		{
			name: "wrong type",
			body: `{"card_number":"2222405343248877","expiry_month":"April","expiry_year":2031,"currency":"GBP","amount":100,"cvv":"123"}`,
			want: []string{"Expiry month has an invalid type"},
		},
		{
			name: "fractional amount",
			body: `{"card_number":"2222405343248877","expiry_month":4,"expiry_year":2031,"currency":"GBP","amount":10.5,"cvv":"123"}`,
			want: []string{"Amount has an invalid type"},
		},
		{
			name: "missing fields",
			body: `{"card_number":"2222405343248877","expiry_month":4,"expiry_year":2031,"amount":null}`,
			want: []string{"Currency is required", "Amount is required", "CVV is required"},
		},
		{
			name: "empty object",
			body: `{}`,
			want: []string{
				"Card number is required",
				"Expiry month is required",
				"Expiry year is required",
				"Currency is required",
				"Amount is required",
				"CVV is required",
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fb := authorizing(true)
			router, repo := newTestRouter(t, fb)

			w := postPayment(router, c.body)

			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
			payment := decodePayment(t, w)
			require.Equal(t, models.PaymentStatusRejected, payment.Status)
			require.Equal(t, c.want, payment.ValidationErrors)
			require.Zero(t, fb.callCount())
			require.Equal(t, 1, repo.Count())
		})
	}
}

func TestAPI_BankRejection(t *testing.T) {
	router, _ := newTestRouter(t, failing(errBankUnavailable()))

	w := postPayment(router, validPaymentJSON)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, []string{"Bank service is currently unavailable"}, decodePayment(t, w).ValidationErrors)
}

func TestAPI_GetPaymentNotFound(t *testing.T) {
	router, _ := newTestRouter(t, authorizing(true))

	for _, id := range []string{"6f1c1f0e-3b4e-4a63-9d53-6c1f3b0c9a11", "not-a-uuid", "12345"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/payments/"+id, nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code, id)
	}
}

func errBankUnavailable() error {
	return &bank.Error{Kind: bank.KindUnavailable, Message: "Bank service is currently unavailable", StatusCode: http.StatusServiceUnavailable}
}
