package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockGateway records every send and fails the phone numbers listed in
// FailPhones. Used by tests and by dev deployments without provider
// credentials.
type MockGateway struct {
	mu         sync.Mutex
	Sent       []string
	FailPhones map[string]bool
}

func NewMockGateway() *MockGateway {
	return &MockGateway{FailPhones: map[string]bool{}}
}

func (g *MockGateway) Send(ctx context.Context, phone, content string, opts *SendOptions) (*ProviderResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailPhones[phone] {
		return nil, fmt.Errorf("mock gateway: delivery to %s rejected", phone)
	}

	g.Sent = append(g.Sent, phone)
	return &ProviderResponse{
		MessageID: uuid.New().String(),
		Status:    "accepted",
		Raw:       `{"status":"accepted"}`,
	}, nil
}

// SentCount returns how many sends succeeded so far.
func (g *MockGateway) SentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Sent)
}

var _ Sender = (*MockGateway)(nil)
