// Package gateway wraps the outbound SMS provider. The core never talks to
// the provider directly; it goes through the Sender interface so tests and
// the scheduler can swap in a mock.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SendOptions carries optional per-send parameters.
type SendOptions struct {
	SenderID string
}

// ProviderResponse is the raw outcome of one provider call.
type ProviderResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	ClientRef string `json:"client_ref"`
	Raw       string `json:"-"`
}

// Sender is the one external operation the core depends on. Any returned
// error is a per-recipient failure, never fatal to a batch.
type Sender interface {
	Send(ctx context.Context, phone, content string, opts *SendOptions) (*ProviderResponse, error)
}

// HTTPGateway posts messages to the provider's REST API, throttled by a
// shared rate limiter so a large batch cannot flood the provider.
type HTTPGateway struct {
	URL     string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

func NewHTTPGateway(url, apiKey string, ratePerSecond int) *HTTPGateway {
	if ratePerSecond < 1 {
		ratePerSecond = 1
	}
	return &HTTPGateway{
		URL:     url,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

func (g *HTTPGateway) Send(ctx context.Context, phone, content string, opts *SendOptions) (*ProviderResponse, error) {
	if err := g.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	clientRef := uuid.New().String()
	payload := map[string]string{
		"to":         phone,
		"content":    content,
		"client_ref": clientRef,
	}
	if opts != nil && opts.SenderID != "" {
		payload["sender_id"] = opts.SenderID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(raw))
	}

	pr := &ProviderResponse{ClientRef: clientRef, Raw: string(raw)}
	if err := json.Unmarshal(raw, pr); err != nil {
		// Some providers answer with plain text on success; keep the raw body.
		pr.Status = "accepted"
	}
	pr.ClientRef = clientRef
	return pr, nil
}

var _ Sender = (*HTTPGateway)(nil)
