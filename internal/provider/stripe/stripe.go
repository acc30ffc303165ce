// Package stripe talks to the Stripe PaymentIntents REST API through the
// circuit-breaking HTTP client.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/shopper/internal/provider"
	apperrors "github.com/utafrali/shopper/pkg/errors"
	"github.com/utafrali/shopper/pkg/httpclient"
)

// DefaultBaseURL is the Stripe API root.
const DefaultBaseURL = "https://api.stripe.com"

const statusSucceeded = "succeeded"

// Config holds the Stripe credentials.
type Config struct {
	BaseURL   string
	SecretKey string
}

// Provider implements provider.Provider on Stripe.
type Provider struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	key     string
	newKey  func() string
}

// NewProvider creates a Stripe provider.
func NewProvider(cfg Config, client *httpclient.CircuitBreakerClient) *Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Provider{
		client:  client,
		baseURL: base,
		key:     cfg.SecretKey,
		newKey:  func() string { return uuid.New().String() },
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stripe"
}

type paymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// CreateIntent creates a PaymentIntent. The request carries an idempotency
// key so the client may retry it.
func (p *Provider) CreateIntent(ctx context.Context, amount int64, currency string) (*provider.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create stripe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(httpclient.IdempotencyKeyHeader, p.newKey())

	var pi paymentIntent
	if err := p.do(ctx, req, &pi); err != nil {
		return nil, err
	}
	return &provider.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     pi.Currency,
		Provider:     p.Name(),
	}, nil
}

// Verify fetches the PaymentIntent behind transactionID.
func (p *Provider) Verify(ctx context.Context, transactionID string) (*provider.Charge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/v1/payment_intents/"+url.PathEscape(transactionID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create stripe request: %w", err)
	}

	var pi paymentIntent
	if err := p.do(ctx, req, &pi); err != nil {
		return nil, err
	}
	return &provider.Charge{
		TransactionID: pi.ID,
		Status:        pi.Status,
		Amount:        pi.Amount,
		Currency:      pi.Currency,
		Paid:          pi.Status == statusSucceeded,
	}, nil
}

func (p *Provider) do(ctx context.Context, req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+p.key)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return apperrors.ServiceUnavailable("stripe circuit open", err)
		}
		return apperrors.ServiceUnavailable("stripe unavailable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, "stripe")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}
