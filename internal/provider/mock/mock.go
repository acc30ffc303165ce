package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/utafrali/shopper/internal/provider"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// FailPrefix marks intents the mock reports as unpaid.
const FailPrefix = "fail_"

// Provider is a mock payment provider for development and testing. It
// remembers the intents it created and reports them paid unless their id
// starts with FailPrefix.
type Provider struct {
	mu      sync.Mutex
	intents map[string]provider.Intent
}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{intents: make(map[string]provider.Intent)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateIntent records an intent for amount.
func (p *Provider) CreateIntent(_ context.Context, amount int64, currency string) (*provider.Intent, error) {
	id := "mock_pi_" + uuid.New().String()
	intent := provider.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
		Provider:     p.Name(),
	}
	p.Register(intent)
	return &intent, nil
}

// Register stores an intent as if CreateIntent had returned it.
func (p *Provider) Register(intent provider.Intent) {
	p.mu.Lock()
	p.intents[intent.ID] = intent
	p.mu.Unlock()
}

// Verify reports a known intent as paid.
func (p *Provider) Verify(_ context.Context, transactionID string) (*provider.Charge, error) {
	p.mu.Lock()
	intent, ok := p.intents[transactionID]
	p.mu.Unlock()
	if !ok {
		return nil, apperrors.PaymentFailed("unknown transaction " + transactionID)
	}

	charge := &provider.Charge{
		TransactionID: transactionID,
		Status:        "succeeded",
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		Paid:          true,
	}
	if strings.HasPrefix(transactionID, FailPrefix) {
		charge.Status = "failed"
		charge.Paid = false
	}
	return charge, nil
}
