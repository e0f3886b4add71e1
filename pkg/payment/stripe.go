package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeGateway creates hosted Checkout sessions against the Stripe API.
type StripeGateway struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewStripeGateway(baseURL, secretKey string) *StripeGateway {
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &StripeGateway{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type stripeSessionResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCheckoutSession posts a form-encoded session create request. The
// Checkout Sessions API takes indexed bracket keys for line items.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for i, item := range params.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", params.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var stripeErr stripeErrorResp
		if err := json.Unmarshal(body, &stripeErr); err == nil && stripeErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe: %s (%s)", stripeErr.Error.Message, stripeErr.Error.Type)
		}
		return nil, fmt.Errorf("stripe: session create failed: %d %s", resp.StatusCode, string(body))
	}
	var out stripeSessionResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.URL == "" {
		return nil, fmt.Errorf("stripe: session create returned empty id or url")
	}
	return &Session{ID: out.ID, URL: out.URL}, nil
}
