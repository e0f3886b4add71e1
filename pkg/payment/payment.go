package payment

import "context"

// LineItem is one gateway checkout line.
type LineItem struct {
	Name        string
	Description string
	AmountCents int64 // unit amount
	Quantity    int
}

// SessionParams describes a checkout session to create. Metadata travels with
// the session and comes back verbatim on the completion webhook; it must carry
// everything needed to reconstruct the purchase.
type SessionParams struct {
	Currency   string
	Items      []LineItem
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// Session is the gateway's handle for an in-progress payment attempt.
type Session struct {
	ID  string
	URL string
}

// Gateway creates hosted checkout sessions. Implementations must create no
// local state; all durable effects happen when the completion webhook fires.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
}
