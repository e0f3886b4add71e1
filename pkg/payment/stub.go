package payment

import (
	"context"
	"fmt"
	"time"
)

// StubGateway is a no-op gateway for development when no Stripe key is set.
type StubGateway struct{}

func (s *StubGateway) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	id := fmt.Sprintf("cs_stub_%d", time.Now().UnixNano())
	return &Session{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}
