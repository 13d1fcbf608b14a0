package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pilgrimtrader/internal/domain"
)

// PlatformBridge implements the TradingPlatform interface over the remote
// platform's HTTP JSON API. Failures are surfaced as errors with the
// platform's message; the caller decides whether to retry.
type PlatformBridge struct {
	httpClient *http.Client
}

// NewPlatformBridge creates a new trading platform bridge
func NewPlatformBridge() domain.TradingPlatform {
	return &PlatformBridge{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// platformResponse is the envelope the platform wraps every reply in.
type platformResponse struct {
	Success       bool                        `json:"success"`
	Message       string                      `json:"message"`
	TerminalID    string                      `json:"terminal_id"`
	TransactionID string                      `json:"transaction_id"`
	Balance       float64                     `json:"balance"`
	Transactions  []*domain.RemoteTransaction `json:"transactions"`
}

// Connect establishes a session with the trading platform.
func (b *PlatformBridge) Connect(ctx context.Context, url, apiKey string) (*domain.ConnectionHandle, error) {
	resp, err := b.post(ctx, url+"/api/connect", map[string]any{
		"api_key": apiKey,
	})
	if err != nil {
		return nil, err
	}

	return &domain.ConnectionHandle{
		TerminalID: resp.TerminalID,
		URL:        url,
		APIKey:     apiKey,
	}, nil
}

// Withdraw moves funds off the platform toward the wallet.
func (b *PlatformBridge) Withdraw(ctx context.Context, handle *domain.ConnectionHandle, amount float64, currency string) (*domain.TransactionRef, error) {
	if handle == nil {
		return nil, domain.ErrNotConnected
	}

	resp, err := b.post(ctx, handle.URL+"/api/withdraw", map[string]any{
		"amount":   amount,
		"currency": currency,
		"api_key":  handle.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &domain.TransactionRef{ID: resp.TransactionID}, nil
}

// Deposit moves funds from the wallet onto the platform.
func (b *PlatformBridge) Deposit(ctx context.Context, handle *domain.ConnectionHandle, amount float64, currency string) (*domain.TransactionRef, error) {
	if handle == nil {
		return nil, domain.ErrNotConnected
	}

	resp, err := b.post(ctx, handle.URL+"/api/deposit", map[string]any{
		"amount":   amount,
		"currency": currency,
		"api_key":  handle.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &domain.TransactionRef{ID: resp.TransactionID}, nil
}

// GetBalance retrieves the platform-side balance.
func (b *PlatformBridge) GetBalance(ctx context.Context, handle *domain.ConnectionHandle) (float64, error) {
	if handle == nil {
		return 0, domain.ErrNotConnected
	}

	resp, err := b.post(ctx, handle.URL+"/api/balance", map[string]any{
		"api_key": handle.APIKey,
	})
	if err != nil {
		return 0, err
	}

	return resp.Balance, nil
}

// ListTransactions retrieves the platform's transaction feed.
func (b *PlatformBridge) ListTransactions(ctx context.Context, handle *domain.ConnectionHandle) ([]*domain.RemoteTransaction, error) {
	if handle == nil {
		return nil, domain.ErrNotConnected
	}

	resp, err := b.post(ctx, handle.URL+"/api/transactions", map[string]any{
		"api_key": handle.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return resp.Transactions, nil
}

func (b *PlatformBridge) post(ctx context.Context, url string, body map[string]any) (*platformResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call trading platform: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trading platform returned error: status=%d, body=%s", resp.StatusCode, string(payload))
	}

	var out platformResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode platform response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("trading platform rejected request: %s", out.Message)
	}

	return &out, nil
}
