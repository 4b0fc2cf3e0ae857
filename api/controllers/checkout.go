package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercegrid/acp-checkout-backend/api/responses"
	"github.com/commercegrid/acp-checkout-backend/api/validators"
	"github.com/commercegrid/acp-checkout-backend/internal/checkout"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// CheckoutCreate opens a new checkout session from the agent's cart.
func CheckoutCreate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCreateCheckoutResponse(session))
	}
}

// CheckoutUpdate applies buyer selections to an open session.
func CheckoutUpdate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload updateCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Update(r.Context(), payload.CheckoutID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUpdateCheckoutResponse(session))
	}
}

// CheckoutGet returns the full current state of a session.
func CheckoutGet(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		checkoutID := chi.URLParam(r, "checkoutID")
		if checkoutID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required"))
			return
		}

		session, err := svc.Get(r.Context(), checkoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// CheckoutComplete drives a ready session through payment.
func CheckoutComplete(completer *checkout.Completer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if completer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "completion service unavailable"))
			return
		}

		var payload completeCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := completer.Complete(r.Context(), payload.CheckoutID, payload.PaymentToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCompleteCheckoutResponse(result))
	}
}

// Stats reports session counters for operators.
func Stats(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, statsResponse{
			ActiveSessions: stats.ActiveSessions,
			TotalCreated:   stats.TotalCreated,
			TotalCompleted: stats.TotalCompleted,
			TotalFailed:    stats.TotalFailed,
		})
	}
}

type lineItemPayload struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=99"`
	VariantID *string `json:"variant_id,omitempty"`
}

type buyerContextPayload struct {
	Locale          *string `json:"locale,omitempty"`
	Currency        *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	ShippingCountry *string `json:"shipping_country,omitempty" validate:"omitempty,len=2"`
}

func (b *buyerContextPayload) toBuyerContext() *types.BuyerContext {
	if b == nil {
		return nil
	}
	return &types.BuyerContext{
		Locale:          b.Locale,
		Currency:        b.Currency,
		ShippingCountry: b.ShippingCountry,
	}
}

type createCheckoutRequest struct {
	CheckoutReferenceID string               `json:"checkout_reference_id" validate:"required,max=255"`
	LineItems           []lineItemPayload    `json:"line_items" validate:"required,min=1,max=50,dive"`
	BuyerContext        *buyerContextPayload `json:"buyer_context,omitempty"`
	Metadata            map[string]string    `json:"metadata,omitempty"`
}

func (r createCheckoutRequest) toInput() checkout.CreateInput {
	return checkout.CreateInput{
		ReferenceID:  r.CheckoutReferenceID,
		LineItems:    toLineItemInputs(r.LineItems),
		BuyerContext: r.BuyerContext.toBuyerContext(),
		Metadata:     r.Metadata,
	}
}

type updateCheckoutRequest struct {
	CheckoutID       string             `json:"checkout_id" validate:"required"`
	LineItems        *[]lineItemPayload `json:"line_items,omitempty" validate:"omitempty,min=1,max=50,dive"`
	ShippingOptionID *string            `json:"shipping_option_id,omitempty"`
	ShippingAddress  *types.Address     `json:"shipping_address,omitempty"`
	BillingAddress   *types.Address     `json:"billing_address,omitempty"`
	BuyerEmail       *string            `json:"buyer_email,omitempty" validate:"omitempty,email"`
	BuyerPhone       *string            `json:"buyer_phone,omitempty"`
	Metadata         map[string]string  `json:"metadata,omitempty"`
}

func (r updateCheckoutRequest) toInput() checkout.UpdateInput {
	input := checkout.UpdateInput{
		ShippingOptionID: r.ShippingOptionID,
		ShippingAddress:  r.ShippingAddress,
		BillingAddress:   r.BillingAddress,
		BuyerEmail:       r.BuyerEmail,
		BuyerPhone:       r.BuyerPhone,
		Metadata:         r.Metadata,
	}
	if r.LineItems != nil {
		items := toLineItemInputs(*r.LineItems)
		input.LineItems = &items
	}
	return input
}

type completeCheckoutRequest struct {
	CheckoutID   string `json:"checkout_id" validate:"required"`
	PaymentToken string `json:"payment_token" validate:"required"`
}

func toLineItemInputs(items []lineItemPayload) []checkout.LineItemInput {
	out := make([]checkout.LineItemInput, len(items))
	for i, item := range items {
		out[i] = checkout.LineItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			VariantID: item.VariantID,
		}
	}
	return out
}

type createCheckoutResponse struct {
	CheckoutID          string                  `json:"checkout_id"`
	CheckoutReferenceID string                  `json:"checkout_reference_id"`
	Status              string                  `json:"status"`
	LineItems           []types.ResolvedLineItem `json:"line_items"`
	Subtotal            types.Money             `json:"subtotal"`
	Total               types.Money             `json:"total"`
	ShippingOptions     []types.ShippingOption  `json:"shipping_options"`
	RequiredFields      []string                `json:"required_fields"`
}

func newCreateCheckoutResponse(s *types.CheckoutSession) createCheckoutResponse {
	return createCheckoutResponse{
		CheckoutID:          s.CheckoutID,
		CheckoutReferenceID: s.CheckoutReferenceID,
		Status:              string(s.Status),
		LineItems:           s.LineItems,
		Subtotal:            s.Subtotal,
		Total:               s.Total,
		ShippingOptions:     s.AvailableShippingOptions,
		RequiredFields:      requiredFieldStrings(s),
	}
}

type updateCheckoutResponse struct {
	CheckoutID      string       `json:"checkout_id"`
	Status          string       `json:"status"`
	Subtotal        types.Money  `json:"subtotal"`
	ShippingCost    *types.Money `json:"shipping_cost,omitempty"`
	Tax             *types.Money `json:"tax,omitempty"`
	Total           types.Money  `json:"total"`
	RequiredFields  []string     `json:"required_fields"`
	ReadyForPayment bool         `json:"ready_for_payment"`
}

func newUpdateCheckoutResponse(s *types.CheckoutSession) updateCheckoutResponse {
	return updateCheckoutResponse{
		CheckoutID:      s.CheckoutID,
		Status:          string(s.Status),
		Subtotal:        s.Subtotal,
		ShippingCost:    s.ShippingCost,
		Tax:             s.Tax,
		Total:           s.Total,
		RequiredFields:  requiredFieldStrings(s),
		ReadyForPayment: len(s.RequiredFields) == 0,
	}
}

type completeCheckoutResponse struct {
	CheckoutID    string  `json:"checkout_id"`
	Status        string  `json:"status"`
	OrderID       *string `json:"order_id,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

func newCompleteCheckoutResponse(r *checkout.CompletionResult) completeCheckoutResponse {
	return completeCheckoutResponse{
		CheckoutID:    r.CheckoutID,
		Status:        string(r.Status),
		OrderID:       r.OrderID,
		FailureReason: r.FailureReason,
	}
}

type statsResponse struct {
	ActiveSessions int64 `json:"active_checkouts"`
	TotalCreated   int64 `json:"total_created"`
	TotalCompleted int64 `json:"total_completed"`
	TotalFailed    int64 `json:"total_failed"`
}

func requiredFieldStrings(s *types.CheckoutSession) []string {
	out := make([]string, len(s.RequiredFields))
	for i, field := range s.RequiredFields {
		out[i] = string(field)
	}
	return out
}
