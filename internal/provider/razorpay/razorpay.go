// Package razorpay implements the provider boundary on Razorpay orders and
// payments.
package razorpay

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	rzp "github.com/razorpay/razorpay-go"

	"github.com/utafrali/shopper/internal/provider"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

const statusCaptured = "captured"

// orderAPI is the slice of the Razorpay order resource used here.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// paymentAPI is the slice of the Razorpay payment resource used here.
type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Provider implements provider.Provider on Razorpay.
type Provider struct {
	orders   orderAPI
	payments paymentAPI
}

// NewProvider creates a Razorpay provider from API credentials.
func NewProvider(keyID, keySecret string) *Provider {
	client := rzp.NewClient(keyID, keySecret)
	return &Provider{orders: client.Order, payments: client.Payment}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "razorpay"
}

// CreateIntent creates a Razorpay order. Its id is what checkout confirms.
func (p *Provider) CreateIntent(ctx context.Context, amount int64, currency string) (*provider.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	order, err := p.orders.Create(map[string]interface{}{
		"amount":   amount,
		"currency": strings.ToUpper(currency),
		"receipt":  "rcpt_" + uuid.New().String()[:8],
	}, nil)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("razorpay create order failed", err)
	}

	id, _ := order["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order response has no id")
	}
	return &provider.Intent{
		ID:       id,
		Amount:   amount,
		Currency: strings.ToLower(currency),
		Provider: p.Name(),
	}, nil
}

// Verify fetches the payment and treats only a captured payment as paid.
func (p *Provider) Verify(ctx context.Context, transactionID string) (*provider.Charge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := p.payments.Fetch(transactionID, nil, nil)
	if err != nil {
		return nil, apperrors.PaymentFailed(fmt.Sprintf("razorpay: %v", err))
	}

	status, _ := body["status"].(string)
	currency, _ := body["currency"].(string)
	return &provider.Charge{
		TransactionID: transactionID,
		Status:        status,
		Amount:        minorAmount(body["amount"]),
		Currency:      strings.ToLower(currency),
		Paid:          status == statusCaptured,
	}, nil
}

// minorAmount reads the decoded JSON amount, which arrives as float64.
func minorAmount(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return -1
	}
}
