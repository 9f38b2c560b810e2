package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var ErrCustomerNotFound = errors.New("customer not found")

// StripeGateway implements Gateway on the Stripe API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string, timeout time.Duration) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, stripe.NewBackends(&http.Client{Timeout: timeout}))
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := g.api.Customers.Get(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if c.Deleted {
		return nil, ErrCustomerNotFound
	}
	return &Customer{ID: c.ID, Email: c.Email}, nil
}

func (g *StripeGateway) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	iter := g.api.Customers.List(params)
	for iter.Next() {
		c := iter.Customer()
		if !c.Deleted {
			return &Customer{ID: c.ID, Email: c.Email}, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, ErrCustomerNotFound
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, p CustomerParams) (*Customer, error) {
	params := &stripe.CustomerParams{Email: stripe.String(p.Email)}
	params.Context = ctx
	if p.Name != "" {
		params.Name = stripe.String(p.Name)
	}
	if p.Phone != "" {
		params.Phone = stripe.String(p.Phone)
	}
	c, err := g.api.Customers.New(params)
	if err != nil {
		return nil, err
	}
	return &Customer{ID: c.ID, Email: c.Email}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		ExpiresAt:  stripe.Int64(p.ExpiresAt.Unix()),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: p.Metadata,
		},
	}
	params.Context = ctx
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	if ref, ok := p.Metadata["booking_ref"]; ok {
		params.ClientReferenceID = stripe.String(ref)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	for _, line := range p.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(p.Currency)),
				UnitAmount: stripe.Int64(line.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Label),
				},
			},
		})
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, err
	}
	return fromStripeSession(s), nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, p RefundParams) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.PaymentIntentID),
		Amount:        stripe.Int64(p.AmountCents),
	}
	params.Context = ctx
	if p.Reason != "" {
		params.AddMetadata("reason", p.Reason)
	}
	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, err
	}
	return &Refund{ID: r.ID, AmountCents: r.Amount, Status: string(r.Status)}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the object of
// the event types the coordinator handles.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}
	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = fromStripeSession(&s)
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		out.Charge = &Charge{
			ID:                  ch.ID,
			AmountCents:         ch.Amount,
			AmountRefundedCents: ch.AmountRefunded,
			Refunded:            ch.Refunded,
		}
		if ch.PaymentIntent != nil {
			out.Charge.PaymentIntentID = ch.PaymentIntent.ID
		}
	}
	return out, nil
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
		ExpiresAt:     s.ExpiresAt,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
