package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	pkgstripe "github.com/commercegrid/acp-checkout-backend/pkg/stripe"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// Metadata keys stamped onto every intent so webhook deliveries can be
// routed back to the owning session.
const (
	MetadataCheckoutID        = "acp_checkout_id"
	MetadataCheckoutReference = "acp_checkout_reference"
)

// StripePaymentIntentClient exposes the subset of Stripe operations required by the gateway.
type StripePaymentIntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct{}

// NewStripeIntentClient wraps the initialized Stripe client so the gateway can be tested.
func NewStripeIntentClient(api *pkgstripe.Client) StripePaymentIntentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *stripeClientWrapper) Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.Get(id, params)
}

func (w *stripeClientWrapper) Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.Cancel(id, params)
}

// StripeGateway drives payment intents through Stripe. The delegated payment
// token is not attached as a payment method; intents are created confirmable
// and settled by the upstream platform.
type StripeGateway struct {
	client StripePaymentIntentClient
}

// NewStripeGateway builds the gateway over the provided intent client.
func NewStripeGateway(client StripePaymentIntentClient) (*StripeGateway, error) {
	if client == nil {
		return nil, errors.New("stripe intent client is required")
	}
	return &StripeGateway{client: client}, nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, session *types.CheckoutSession, paymentToken string) (*Intent, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	if strings.TrimSpace(paymentToken) == "" {
		return nil, errors.New("payment token is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(session.Total.Amount),
		Currency: stripe.String(session.Total.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Description: stripe.String(intentDescription(session)),
	}
	params.AddMetadata(MetadataCheckoutID, session.CheckoutID)
	params.AddMetadata(MetadataCheckoutReference, session.CheckoutReferenceID)

	intent, err := g.client.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment intent")
	}

	return &Intent{ID: intent.ID, Status: string(intent.Status)}, nil
}

func (g *StripeGateway) GetIntentStatus(ctx context.Context, intentID string) (*IntentStatus, error) {
	if intentID == "" {
		return nil, errors.New("intent id is required")
	}

	intent, err := g.client.Retrieve(ctx, intentID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving payment intent")
	}

	return &IntentStatus{
		ID:       intent.ID,
		Status:   string(intent.Status),
		Amount:   intent.Amount,
		Currency: string(intent.Currency),
	}, nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	if intentID == "" {
		return errors.New("intent id is required")
	}

	if _, err := g.client.Cancel(ctx, intentID, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("cancelling payment intent %s", intentID))
	}
	return nil
}

func intentDescription(session *types.CheckoutSession) string {
	names := make([]string, 0, len(session.LineItems))
	for _, item := range session.LineItems {
		names = append(names, item.Name)
	}
	return "ACP Order - " + strings.Join(names, ", ")
}
