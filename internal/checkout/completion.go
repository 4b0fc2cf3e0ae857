package checkout

import (
	"context"
	"fmt"

	"github.com/commercegrid/acp-checkout-backend/internal/payments"
	"github.com/commercegrid/acp-checkout-backend/pkg/enums"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
	"go.uber.org/multierr"
)

// pendingPaymentReference marks a session as processing before the provider
// has issued an intent id.
const pendingPaymentReference = "pending"

// CompletionResult is the outcome of a completion attempt. A declined
// payment is a result, not an error: the session lands in failed and the
// caller reports that state.
type CompletionResult struct {
	CheckoutID    string
	Status        enums.CheckoutStatus
	OrderID       *string
	FailureReason *string
}

// Completer drives a ready session through payment to a terminal state. It
// owns the orchestration the engine deliberately does not: talking to the
// gateway and sequencing the mark* transitions.
type Completer struct {
	engine  Service
	gateway payments.Gateway
	logg    *logger.Logger

	newOrderID func() string
}

// NewCompleter wires the orchestrator.
func NewCompleter(engine Service, gateway payments.Gateway, logg *logger.Logger) (*Completer, error) {
	if engine == nil {
		return nil, fmt.Errorf("checkout service is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Completer{
		engine:     engine,
		gateway:    gateway,
		logg:       logg,
		newOrderID: NewOrderID,
	}, nil
}

// Complete validates readiness, authorizes payment and lands the session in
// completed or failed.
func (c *Completer) Complete(ctx context.Context, checkoutID, paymentToken string) (*CompletionResult, error) {
	ctx = c.logg.WithCheckoutID(ctx, checkoutID)

	session, err := c.engine.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, alreadyTerminal(session)
	}
	if session.Status == enums.CheckoutStatusProcessing {
		return c.reconcileProcessing(ctx, session)
	}
	if len(session.RequiredFields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout is missing required fields").
			WithDetails(map[string]any{"required_fields": session.RequiredFields})
	}

	if _, err := c.engine.MarkProcessing(ctx, checkoutID, pendingPaymentReference); err != nil {
		return nil, err
	}

	intent, err := c.gateway.CreateIntent(ctx, session, paymentToken)
	if err != nil {
		return c.fail(ctx, checkoutID, err)
	}

	if _, err := c.engine.MarkProcessing(ctx, checkoutID, intent.ID); err != nil {
		return nil, c.cleanupIntent(ctx, intent.ID, err)
	}

	orderID := c.newOrderID()
	if _, err := c.engine.MarkCompleted(ctx, checkoutID, orderID); err != nil {
		return nil, c.cleanupIntent(ctx, intent.ID, err)
	}

	c.logg.Info(ctx, fmt.Sprintf("checkout completed as order %s", orderID))

	return &CompletionResult{
		CheckoutID: checkoutID,
		Status:     enums.CheckoutStatusCompleted,
		OrderID:    &orderID,
	}, nil
}

// reconcileProcessing resolves a repeated completion attempt against the
// provider instead of authorizing a second intent. A succeeded intent lands
// the session in completed, a canceled one in failed; anything else is still
// in flight and the caller retries later.
func (c *Completer) reconcileProcessing(ctx context.Context, session *types.CheckoutSession) (*CompletionResult, error) {
	if session.PaymentIntentID == nil || *session.PaymentIntentID == pendingPaymentReference {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payment for checkout %s is already in progress", session.CheckoutID))
	}

	status, err := c.gateway.GetIntentStatus(ctx, *session.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	switch status.Status {
	case payments.IntentStatusSucceeded:
		orderID := c.newOrderID()
		if _, err := c.engine.MarkCompleted(ctx, session.CheckoutID, orderID); err != nil {
			return nil, err
		}
		c.logg.Info(ctx, fmt.Sprintf("reconciled intent %s, checkout completed as order %s", status.ID, orderID))
		return &CompletionResult{
			CheckoutID: session.CheckoutID,
			Status:     enums.CheckoutStatusCompleted,
			OrderID:    &orderID,
		}, nil
	case payments.IntentStatusCanceled:
		return c.fail(ctx, session.CheckoutID,
			pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment intent %s was canceled", status.ID)))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payment for checkout %s is already in progress", session.CheckoutID))
	}
}

// fail records a declined payment as the session's terminal failure.
func (c *Completer) fail(ctx context.Context, checkoutID string, cause error) (*CompletionResult, error) {
	reason := cause.Error()
	if appErr := pkgerrors.As(cause); appErr != nil {
		reason = appErr.Message()
	}

	c.logg.Error(ctx, "payment failed, marking checkout failed", cause)

	if _, err := c.engine.MarkFailed(ctx, checkoutID, reason); err != nil {
		return nil, multierr.Append(cause, err)
	}

	return &CompletionResult{
		CheckoutID:    checkoutID,
		Status:        enums.CheckoutStatusFailed,
		FailureReason: &reason,
	}, nil
}

// cleanupIntent voids the created intent after a post-payment bookkeeping
// failure. The cancel error never overrides the original failure.
func (c *Completer) cleanupIntent(ctx context.Context, intentID string, cause error) error {
	if cancelErr := c.gateway.CancelIntent(ctx, intentID); cancelErr != nil {
		c.logg.Error(ctx, fmt.Sprintf("cancelling payment intent %s after failure", intentID), cancelErr)
	}
	return cause
}
