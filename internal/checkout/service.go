package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/commercegrid/acp-checkout-backend/internal/catalog"
	"github.com/commercegrid/acp-checkout-backend/internal/sessions"
	"github.com/commercegrid/acp-checkout-backend/pkg/enums"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/metrics"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
	"github.com/google/uuid"
)

const (
	maxLineItems    = 50
	maxItemQuantity = 99
)

// LineItemInput is a cart line as submitted by the caller.
type LineItemInput struct {
	ProductID string
	Quantity  int
	VariantID *string
}

// CreateInput holds the validated payload to open a session.
type CreateInput struct {
	ReferenceID  string
	LineItems    []LineItemInput
	BuyerContext *types.BuyerContext
	Metadata     map[string]string
}

// UpdateInput holds optional mutation values for a session. Nil fields are
// left untouched; LineItems, when set, replaces the cart and is re-resolved
// against the catalog like at creation.
type UpdateInput struct {
	LineItems        *[]LineItemInput
	ShippingOptionID *string
	ShippingAddress  *types.Address
	BillingAddress   *types.Address
	BuyerEmail       *string
	BuyerPhone       *string
	Metadata         map[string]string
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	ActiveSessions int64
	TotalCreated   int64
	TotalCompleted int64
	TotalFailed    int64
}

// Service owns every session mutation. The store is passive persistence;
// all business rules live here.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*types.CheckoutSession, error)
	Update(ctx context.Context, checkoutID string, input UpdateInput) (*types.CheckoutSession, error)
	Get(ctx context.Context, checkoutID string) (*types.CheckoutSession, error)
	MarkProcessing(ctx context.Context, checkoutID, paymentReference string) (*types.CheckoutSession, error)
	MarkCompleted(ctx context.Context, checkoutID, orderID string) (*types.CheckoutSession, error)
	MarkFailed(ctx context.Context, checkoutID, reason string) (*types.CheckoutSession, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	catalog catalog.Service
	store   sessions.Store
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger

	newCheckoutID func() string
}

// NewService wires the engine to its collaborators. Metrics may be nil.
func NewService(cat catalog.Service, store sessions.Store, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog service is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		catalog:       cat,
		store:         store,
		metrics:       m,
		logg:          logg,
		newCheckoutID: NewCheckoutID,
	}, nil
}

// NewCheckoutID produces a session identifier like chk_9f8e7d6c5b4a39281706f5e4.
func NewCheckoutID() string {
	return "chk_" + hexID(24)
}

// NewOrderID produces an order identifier like ord_9f8e7d6c5b4a3928.
func NewOrderID() string {
	return "ord_" + hexID(16)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func hexID(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(raw) {
		n = len(raw)
	}
	return raw[:n]
}

func (s *service) Create(ctx context.Context, input CreateInput) (*types.CheckoutSession, error) {
	if strings.TrimSpace(input.ReferenceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout_reference_id is required")
	}
	if err := checkLineItemBounds(input.LineItems); err != nil {
		return nil, err
	}

	resolved, subtotal, err := s.resolveLineItems(ctx, input.LineItems)
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	session := &types.CheckoutSession{
		CheckoutID:               s.newCheckoutID(),
		CheckoutReferenceID:      input.ReferenceID,
		Status:                   enums.CheckoutStatusCreated,
		CreatedAt:                now,
		UpdatedAt:                now,
		LineItems:                resolved,
		Subtotal:                 subtotal,
		Total:                    subtotal,
		AvailableShippingOptions: s.catalog.ShippingOptions(ctx),
		RequiredFields:           deriveRequiredFields(nil, nil, nil),
		BuyerContext:             input.BuyerContext.Clone(),
		Metadata:                 copyMetadata(input.Metadata),
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.IncCreated()

	ctx = s.logg.WithCheckoutID(ctx, session.CheckoutID)
	s.logg.Info(ctx, fmt.Sprintf("checkout created with %d line items", len(resolved)))

	return session, nil
}

func (s *service) Update(ctx context.Context, checkoutID string, input UpdateInput) (*types.CheckoutSession, error) {
	current, ok, err := s.store.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(checkoutID)
	}
	if current.Status.IsTerminal() {
		return nil, alreadyTerminal(current)
	}

	// Build the full merged state locally, then persist it in one write so
	// no intermediate recomputation is ever observable.
	patch := sessions.Patch{Metadata: input.Metadata}
	draft := current.Clone()

	if input.LineItems != nil {
		if err := checkLineItemBounds(*input.LineItems); err != nil {
			return nil, err
		}
		resolved, subtotal, err := s.resolveLineItems(ctx, *input.LineItems)
		if err != nil {
			return nil, err
		}
		draft.LineItems = resolved
		draft.Subtotal = subtotal
		patch.LineItems = &resolved
		patch.Subtotal = &subtotal
	}

	if input.ShippingOptionID != nil {
		option, err := s.catalog.ShippingOptionByID(ctx, *input.ShippingOptionID)
		if err != nil {
			return nil, err
		}
		selected := option.ID
		cost := option.Price
		draft.SelectedShippingOption = &selected
		draft.ShippingCost = &cost
		selectedPtr := &selected
		costPtr := &cost
		patch.SelectedShippingOption = &selectedPtr
		patch.ShippingCost = &costPtr
	}

	if input.ShippingAddress != nil {
		addr := *input.ShippingAddress
		addr.Normalize()
		draft.ShippingAddress = &addr
		addrPtr := &addr
		patch.ShippingAddress = &addrPtr
	}
	if input.BillingAddress != nil {
		addr := *input.BillingAddress
		addr.Normalize()
		draft.BillingAddress = &addr
		addrPtr := &addr
		patch.BillingAddress = &addrPtr
	}
	if input.BuyerEmail != nil {
		email := strings.TrimSpace(*input.BuyerEmail)
		draft.BuyerEmail = &email
		emailPtr := &email
		patch.BuyerEmail = &emailPtr
	}
	if input.BuyerPhone != nil {
		phone := strings.TrimSpace(*input.BuyerPhone)
		draft.BuyerPhone = &phone
		phonePtr := &phone
		patch.BuyerPhone = &phonePtr
	}

	// recompute totals and readiness from the merged draft
	total, err := computeTotal(draft)
	if err != nil {
		return nil, err
	}
	required := deriveRequiredFields(draft.ShippingAddress, draft.BuyerEmail, draft.SelectedShippingOption)
	status := enums.CheckoutStatusPending
	if len(required) == 0 {
		status = enums.CheckoutStatusReadyForPayment
	}

	patch.Total = &total
	patch.RequiredFields = &required
	patch.Status = &status

	updated, ok, err := s.store.Update(ctx, checkoutID, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(checkoutID)
	}

	ctx = s.logg.WithCheckoutID(ctx, checkoutID)
	s.logg.Info(ctx, fmt.Sprintf("checkout updated, status %s", updated.Status))

	return updated, nil
}

func (s *service) Get(ctx context.Context, checkoutID string) (*types.CheckoutSession, error) {
	session, ok, err := s.store.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(checkoutID)
	}
	return session, nil
}

func (s *service) MarkProcessing(ctx context.Context, checkoutID, paymentReference string) (*types.CheckoutSession, error) {
	status := enums.CheckoutStatusProcessing
	ref := paymentReference
	refPtr := &ref
	return s.transition(ctx, checkoutID, sessions.Patch{
		Status:          &status,
		PaymentIntentID: &refPtr,
	}, nil)
}

func (s *service) MarkCompleted(ctx context.Context, checkoutID, orderID string) (*types.CheckoutSession, error) {
	status := enums.CheckoutStatusCompleted
	id := orderID
	idPtr := &id
	return s.transition(ctx, checkoutID, sessions.Patch{
		Status:  &status,
		OrderID: &idPtr,
	}, s.metrics.IncCompleted)
}

func (s *service) MarkFailed(ctx context.Context, checkoutID, reason string) (*types.CheckoutSession, error) {
	status := enums.CheckoutStatusFailed
	r := reason
	rPtr := &r
	return s.transition(ctx, checkoutID, sessions.Patch{
		Status:        &status,
		FailureReason: &rPtr,
	}, s.metrics.IncFailed)
}

// transition applies a lifecycle patch behind the terminal guard.
func (s *service) transition(ctx context.Context, checkoutID string, patch sessions.Patch, onApplied func()) (*types.CheckoutSession, error) {
	current, ok, err := s.store.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(checkoutID)
	}
	if current.Status.IsTerminal() {
		return nil, alreadyTerminal(current)
	}

	updated, ok, err := s.store.Update(ctx, checkoutID, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(checkoutID)
	}
	if onApplied != nil {
		onApplied()
	}

	ctx = s.logg.WithCheckoutID(ctx, checkoutID)
	s.logg.Info(ctx, fmt.Sprintf("checkout transitioned to %s", updated.Status))

	return updated, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	active, err := s.store.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	snap := s.metrics.Read()
	return &Stats{
		ActiveSessions: active,
		TotalCreated:   snap.TotalCreated,
		TotalCompleted: snap.TotalCompleted,
		TotalFailed:    snap.TotalFailed,
	}, nil
}

// checkLineItemBounds bounds a cart at creation and on replacement alike.
func checkLineItemBounds(items []LineItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	if len(items) > maxLineItems {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("at most %d line items are supported", maxLineItems))
	}
	return nil
}

// resolveLineItems prices the cart against the catalog. Mixed-currency carts
// are rejected rather than silently totaled in the first item's currency.
func (s *service) resolveLineItems(ctx context.Context, items []LineItemInput) ([]types.ResolvedLineItem, types.Money, error) {
	resolved := make([]types.ResolvedLineItem, 0, len(items))
	var subtotal types.Money

	for i, item := range items {
		if item.Quantity < 1 || item.Quantity > maxItemQuantity {
			return nil, types.Money{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line item %d quantity must be between 1 and %d", i, maxItemQuantity))
		}

		product, err := s.catalog.ProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, types.Money{}, err
		}
		if !product.InStock {
			return nil, types.Money{}, pkgerrors.New(pkgerrors.CodeOutOfStock,
				fmt.Sprintf("product %s is out of stock", product.ID))
		}

		var variant *catalog.Variant
		if item.VariantID != nil {
			variant = product.VariantByID(*item.VariantID)
			if variant == nil {
				return nil, types.Money{}, pkgerrors.New(pkgerrors.CodeVariantNotFound,
					fmt.Sprintf("variant %s not found on product %s", *item.VariantID, product.ID))
			}
			if !variant.InStock {
				return nil, types.Money{}, pkgerrors.New(pkgerrors.CodeVariantOutOfStock,
					fmt.Sprintf("variant %s of product %s is out of stock", variant.ID, product.ID))
			}
		}

		unit := product.UnitPrice(variant)
		lineTotal := unit.Mul(int64(item.Quantity))

		name := product.Name
		if variant != nil {
			name = fmt.Sprintf("%s - %s", product.Name, variant.Name)
		}

		line := types.ResolvedLineItem{
			ProductID:  product.ID,
			Quantity:   item.Quantity,
			VariantID:  item.VariantID,
			Name:       name,
			UnitPrice:  unit,
			TotalPrice: lineTotal,
		}
		if len(product.Images) > 0 {
			img := product.Images[0]
			line.ImageURL = &img
		}
		resolved = append(resolved, line)

		if i == 0 {
			subtotal = lineTotal
			continue
		}
		sum, err := subtotal.Add(lineTotal)
		if err != nil {
			return nil, types.Money{}, pkgerrors.New(pkgerrors.CodeValidation,
				"mixed currencies are not supported in a single checkout")
		}
		subtotal = sum
	}

	return resolved, subtotal, nil
}

// computeTotal enforces total = subtotal + shipping + tax in one currency.
func computeTotal(s *types.CheckoutSession) (types.Money, error) {
	total := s.Subtotal
	if s.ShippingCost != nil {
		sum, err := total.Add(*s.ShippingCost)
		if err != nil {
			return types.Money{}, pkgerrors.New(pkgerrors.CodeValidation,
				"shipping cost currency does not match the cart")
		}
		total = sum
	}
	if s.Tax != nil {
		sum, err := total.Add(*s.Tax)
		if err != nil {
			return types.Money{}, pkgerrors.New(pkgerrors.CodeValidation,
				"tax currency does not match the cart")
		}
		total = sum
	}
	return total, nil
}

// deriveRequiredFields reports which of the three payment prerequisites are
// still missing. Always derived fresh, never read back from the session.
func deriveRequiredFields(shipping *types.Address, email *string, shippingOption *string) []enums.RequiredField {
	required := make([]enums.RequiredField, 0, 3)
	if shipping == nil {
		required = append(required, enums.RequiredFieldShippingAddress)
	}
	if email == nil || strings.TrimSpace(*email) == "" {
		required = append(required, enums.RequiredFieldEmail)
	}
	if shippingOption == nil {
		required = append(required, enums.RequiredFieldShippingOption)
	}
	return required
}

func notFound(checkoutID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound,
		fmt.Sprintf("checkout %s not found", checkoutID))
}

func alreadyTerminal(s *types.CheckoutSession) error {
	return pkgerrors.New(pkgerrors.CodeAlreadyTerminal,
		fmt.Sprintf("checkout %s is already %s", s.CheckoutID, s.Status))
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
