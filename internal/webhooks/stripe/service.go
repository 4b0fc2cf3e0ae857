package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/commercegrid/acp-checkout-backend/internal/checkout"
	"github.com/commercegrid/acp-checkout-backend/internal/payments"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/stripe/stripe-go/v84"
)

const defaultFailureReason = "Payment failed"

type ServiceParams struct {
	Engine checkout.Service
	Guard  *IdempotencyGuard
	Logger *logger.Logger
}

// Service routes verified Stripe events into checkout transitions. Events
// for sessions already terminal are acknowledged without error: Stripe
// redeliveries and the synchronous completion path can both win the race.
type Service struct {
	engine checkout.Service
	guard  *IdempotencyGuard
	logg   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		engine: params.Engine,
		guard:  params.Guard,
		logg:   params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "webhook idempotency check")
		}
		if seen {
			s.logg.Info(ctx, fmt.Sprintf("skipping duplicate webhook event %s", event.ID))
			return nil
		}
	}

	if err := s.dispatch(ctx, event); err != nil {
		// let Stripe redeliver
		if s.guard != nil {
			if releaseErr := s.guard.Release(ctx, event.ID); releaseErr != nil {
				s.logg.Error(ctx, "releasing idempotency mark after failure", releaseErr)
			}
		}
		return err
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		checkoutID := intent.Metadata[payments.MetadataCheckoutID]
		if checkoutID == "" {
			s.logg.Info(ctx, fmt.Sprintf("event %s has no checkout metadata, ignoring", event.ID))
			return nil
		}
		orderID := orderIDFromIntent(intent.ID)
		_, err = s.engine.MarkCompleted(s.logg.WithCheckoutID(ctx, checkoutID), checkoutID, orderID)
		return s.acceptTerminalRace(ctx, checkoutID, err)

	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		checkoutID := intent.Metadata[payments.MetadataCheckoutID]
		if checkoutID == "" {
			s.logg.Info(ctx, fmt.Sprintf("event %s has no checkout metadata, ignoring", event.ID))
			return nil
		}
		reason := defaultFailureReason
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			reason = intent.LastPaymentError.Msg
		}
		_, err = s.engine.MarkFailed(s.logg.WithCheckoutID(ctx, checkoutID), checkoutID, reason)
		return s.acceptTerminalRace(ctx, checkoutID, err)

	case stripe.EventTypeChargeDisputeCreated:
		s.logg.Warn(ctx, fmt.Sprintf("dispute opened, event %s", event.ID))
		return nil

	default:
		return nil
	}
}

// acceptTerminalRace swallows ALREADY_TERMINAL: the session reached its
// outcome through another path first.
func (s *Service) acceptTerminalRace(ctx context.Context, checkoutID string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeAlreadyTerminal) {
		s.logg.Info(ctx, fmt.Sprintf("checkout %s already terminal, acknowledging event", checkoutID))
		return nil
	}
	return err
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	return &intent, nil
}

// orderIDFromIntent derives a stable order id from the intent id so webhook
// redeliveries produce the same order.
func orderIDFromIntent(intentID string) string {
	suffix := intentID
	if len(suffix) > 16 {
		suffix = suffix[len(suffix)-16:]
	}
	return "ord_" + suffix
}
