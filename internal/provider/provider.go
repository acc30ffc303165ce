// Package provider defines the payment-intent provider boundary.
package provider

import "context"

// Intent is a provider-side payment intent the client confirms.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Provider     string `json:"provider"`
}

// Charge is the provider's view of a transaction.
type Charge struct {
	TransactionID string
	Status        string
	Amount        int64
	Currency      string
	Paid          bool
}

// Provider defines the interface for payment provider integrations. Amounts
// are in minor currency units.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreateIntent opens a payment for amount.
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)

	// Verify fetches the transaction so the caller can check it was paid in
	// full before recording it.
	Verify(ctx context.Context, transactionID string) (*Charge, error)
}
