package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/commercegrid/acp-checkout-backend/internal/catalog"
	"github.com/commercegrid/acp-checkout-backend/internal/sessions"
	"github.com/commercegrid/acp-checkout-backend/pkg/enums"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/metrics"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

func newTestEngine(t *testing.T) (Service, *metrics.CheckoutMetrics, *sessions.MemoryStore) {
	t.Helper()
	return newTestEngineWithSnapshot(t, catalog.SeedSnapshot())
}

func newTestEngineWithSnapshot(t *testing.T, snap *catalog.Snapshot) (Service, *metrics.CheckoutMetrics, *sessions.MemoryStore) {
	t.Helper()

	cat, err := catalog.NewService(snap)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	store := sessions.NewMemoryStore()
	m := metrics.NewCheckoutMetrics(nil)
	logg := logger.New(logger.Options{ServiceName: "checkout-test"})

	svc, err := NewService(cat, store, m, logg)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return svc, m, store
}

func strPtr(s string) *string { return &s }

func testAddress() *types.Address {
	return &types.Address{
		Line1:      "123 Main St",
		City:       "San Francisco",
		PostalCode: "94105",
		Country:    "us",
	}
}

func createShoeSession(t *testing.T, svc Service) *types.CheckoutSession {
	t.Helper()
	session, err := svc.Create(context.Background(), CreateInput{
		ReferenceID: "ref_shoe",
		LineItems: []LineItemInput{
			{ProductID: "prod_running_shoe", Quantity: 1, VariantID: strPtr("var_size_10")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return session
}

func TestCreateCheckout(t *testing.T) {
	svc, m, store := newTestEngine(t)

	session := createShoeSession(t, svc)

	if !strings.HasPrefix(session.CheckoutID, "chk_") || len(session.CheckoutID) != 28 {
		t.Fatalf("unexpected checkout id %q", session.CheckoutID)
	}
	if session.Status != enums.CheckoutStatusCreated {
		t.Fatalf("expected created, got %s", session.Status)
	}
	if session.Subtotal.Amount != 12999 || session.Total.Amount != 12999 {
		t.Fatalf("expected subtotal = total = 12999, got %d / %d",
			session.Subtotal.Amount, session.Total.Amount)
	}
	if len(session.RequiredFields) != 3 {
		t.Fatalf("expected 3 required fields, got %v", session.RequiredFields)
	}
	if len(session.AvailableShippingOptions) != 3 {
		t.Fatalf("expected shipping options snapshot, got %d", len(session.AvailableShippingOptions))
	}
	if session.LineItems[0].Name != "Performance Running Shoe - Size 10" {
		t.Fatalf("unexpected resolved name %q", session.LineItems[0].Name)
	}
	if session.LineItems[0].ImageURL == nil {
		t.Fatal("expected image url on resolved line")
	}

	if snap := m.Read(); snap.TotalCreated != 1 {
		t.Fatalf("expected created counter 1, got %d", snap.TotalCreated)
	}
	if count, _ := store.CountActive(context.Background()); count != 1 {
		t.Fatalf("expected 1 active session, got %d", count)
	}
}

func TestCreateCheckoutMultipleItems(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	session, err := svc.Create(context.Background(), CreateInput{
		ReferenceID: "ref_multi",
		LineItems: []LineItemInput{
			{ProductID: "prod_wireless_earbuds", Quantity: 1},
			{ProductID: "prod_water_bottle", Quantity: 2, VariantID: strPtr("var_color_blue")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 19999 + 2*3499
	if session.Subtotal.Amount != 26997 {
		t.Fatalf("expected subtotal 26997, got %d", session.Subtotal.Amount)
	}
	if session.LineItems[1].TotalPrice.Amount != 6998 {
		t.Fatalf("expected line total 6998, got %d", session.LineItems[1].TotalPrice.Amount)
	}
}

func TestCreateCheckoutStoresBuyerContext(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, CreateInput{
		ReferenceID: "ref_ctx",
		LineItems:   []LineItemInput{{ProductID: "prod_laptop_stand", Quantity: 1}},
		BuyerContext: &types.BuyerContext{
			Locale:          strPtr("en-US"),
			Currency:        strPtr("usd"),
			ShippingCountry: strPtr("us"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reloaded, err := svc.Get(ctx, session.CheckoutID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.BuyerContext == nil {
		t.Fatal("buyer context not persisted")
	}
	if got := reloaded.BuyerContext.ShippingCountry; got == nil || *got != "us" {
		t.Fatalf("unexpected shipping country: %v", got)
	}
	if got := reloaded.BuyerContext.Locale; got == nil || *got != "en-US" {
		t.Fatalf("unexpected locale: %v", got)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	svc, m, store := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
		code  pkgerrors.Code
	}{
		{
			"blank reference",
			CreateInput{ReferenceID: " ", LineItems: []LineItemInput{{ProductID: "prod_water_bottle", Quantity: 1}}},
			pkgerrors.CodeValidation,
		},
		{
			"no items",
			CreateInput{ReferenceID: "ref"},
			pkgerrors.CodeValidation,
		},
		{
			"zero quantity",
			CreateInput{ReferenceID: "ref", LineItems: []LineItemInput{{ProductID: "prod_water_bottle", Quantity: 0}}},
			pkgerrors.CodeValidation,
		},
		{
			"quantity over limit",
			CreateInput{ReferenceID: "ref", LineItems: []LineItemInput{{ProductID: "prod_water_bottle", Quantity: 100}}},
			pkgerrors.CodeValidation,
		},
		{
			"unknown product",
			CreateInput{ReferenceID: "ref", LineItems: []LineItemInput{{ProductID: "prod_ghost", Quantity: 1}}},
			pkgerrors.CodeProductNotFound,
		},
		{
			"unknown variant",
			CreateInput{ReferenceID: "ref", LineItems: []LineItemInput{{ProductID: "prod_running_shoe", Quantity: 1, VariantID: strPtr("var_size_99")}}},
			pkgerrors.CodeVariantNotFound,
		},
		{
			"variant out of stock",
			CreateInput{ReferenceID: "ref", LineItems: []LineItemInput{{ProductID: "prod_running_shoe", Quantity: 1, VariantID: strPtr("var_size_11")}}},
			pkgerrors.CodeVariantOutOfStock,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			if !pkgerrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	// failed creations must persist nothing and count nothing
	if snap := m.Read(); snap.TotalCreated != 0 {
		t.Fatalf("created counter moved on failures: %d", snap.TotalCreated)
	}
	if count, _ := store.CountActive(ctx); count != 0 {
		t.Fatalf("sessions persisted on failures: %d", count)
	}
}

func TestCreateCheckoutRejectsOutOfStockProduct(t *testing.T) {
	snap := catalog.SeedSnapshot()
	snap.Products = append(snap.Products, catalog.Product{
		ID:      "prod_sold_out",
		Name:    "Sold Out Thing",
		Price:   types.NewMoney(1000, "usd"),
		InStock: false,
	})
	svc, _, _ := newTestEngineWithSnapshot(t, snap)

	_, err := svc.Create(context.Background(), CreateInput{
		ReferenceID: "ref",
		LineItems:   []LineItemInput{{ProductID: "prod_sold_out", Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeOutOfStock) {
		t.Fatalf("expected OUT_OF_STOCK, got %v", err)
	}
}

func TestCreateCheckoutRejectsMixedCurrencies(t *testing.T) {
	snap := catalog.SeedSnapshot()
	snap.Products = append(snap.Products, catalog.Product{
		ID:      "prod_euro_mug",
		Name:    "Euro Mug",
		Price:   types.NewMoney(1500, "eur"),
		InStock: true,
	})
	svc, _, _ := newTestEngineWithSnapshot(t, snap)

	_, err := svc.Create(context.Background(), CreateInput{
		ReferenceID: "ref",
		LineItems: []LineItemInput{
			{ProductID: "prod_water_bottle", Quantity: 1},
			{ProductID: "prod_euro_mug", Quantity: 1},
		},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdateCheckoutToReady(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	updated, err := svc.Update(ctx, session.CheckoutID, UpdateInput{
		ShippingOptionID: strPtr("ship_standard"),
		BuyerEmail:       strPtr("buyer@example.com"),
		ShippingAddress:  testAddress(),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.ShippingCost == nil || updated.ShippingCost.Amount != 599 {
		t.Fatalf("expected shipping 599, got %v", updated.ShippingCost)
	}
	if updated.Total.Amount != 13598 {
		t.Fatalf("expected total 13598, got %d", updated.Total.Amount)
	}
	if len(updated.RequiredFields) != 0 {
		t.Fatalf("expected no required fields, got %v", updated.RequiredFields)
	}
	if updated.Status != enums.CheckoutStatusReadyForPayment {
		t.Fatalf("expected ready_for_payment, got %s", updated.Status)
	}
	if updated.ShippingAddress == nil || updated.ShippingAddress.Country != "US" {
		t.Fatalf("address not normalized: %+v", updated.ShippingAddress)
	}
}

func TestUpdateCheckoutPartial(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	updated, err := svc.Update(ctx, session.CheckoutID, UpdateInput{
		BuyerEmail: strPtr("buyer@example.com"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Status != enums.CheckoutStatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	want := []enums.RequiredField{
		enums.RequiredFieldShippingAddress,
		enums.RequiredFieldShippingOption,
	}
	if len(updated.RequiredFields) != len(want) {
		t.Fatalf("expected %v, got %v", want, updated.RequiredFields)
	}
	for i := range want {
		if updated.RequiredFields[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, updated.RequiredFields)
		}
	}
	// invariant: total = subtotal with no shipping chosen
	if updated.Total.Amount != updated.Subtotal.Amount {
		t.Fatalf("total %d != subtotal %d", updated.Total.Amount, updated.Subtotal.Amount)
	}
}

func TestUpdateCheckoutSequence(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	steps := []UpdateInput{
		{BuyerEmail: strPtr("buyer@example.com")},
		{ShippingAddress: testAddress()},
		{ShippingOptionID: strPtr("ship_express")},
	}
	var last *types.CheckoutSession
	for _, step := range steps {
		updated, err := svc.Update(ctx, session.CheckoutID, step)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		// total = subtotal + shipping after every update
		expected := updated.Subtotal.Amount
		if updated.ShippingCost != nil {
			expected += updated.ShippingCost.Amount
		}
		if updated.Tax != nil {
			expected += updated.Tax.Amount
		}
		if updated.Total.Amount != expected {
			t.Fatalf("total invariant broken: %d != %d", updated.Total.Amount, expected)
		}
		ready := len(updated.RequiredFields) == 0
		if ready != (updated.Status == enums.CheckoutStatusReadyForPayment) {
			t.Fatalf("status %s disagrees with required fields %v", updated.Status, updated.RequiredFields)
		}
		last = updated
	}

	if last.Status != enums.CheckoutStatusReadyForPayment {
		t.Fatalf("expected ready after full sequence, got %s", last.Status)
	}
	if last.Total.Amount != 12999+1299 {
		t.Fatalf("expected total 14298, got %d", last.Total.Amount)
	}
}

func TestUpdateCheckoutReplacesLineItems(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	items := []LineItemInput{
		{ProductID: "prod_water_bottle", Quantity: 3},
	}
	updated, err := svc.Update(ctx, session.CheckoutID, UpdateInput{LineItems: &items})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(updated.LineItems) != 1 || updated.LineItems[0].ProductID != "prod_water_bottle" {
		t.Fatalf("line items not replaced: %+v", updated.LineItems)
	}
	if updated.Subtotal.Amount != 3*3499 {
		t.Fatalf("expected subtotal 10497, got %d", updated.Subtotal.Amount)
	}
	if updated.Total.Amount != updated.Subtotal.Amount {
		t.Fatalf("total not recomputed: %d", updated.Total.Amount)
	}
}

func TestUpdateCheckoutRejectsOutOfBoundsReplacement(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	empty := []LineItemInput{}
	if _, err := svc.Update(ctx, session.CheckoutID, UpdateInput{LineItems: &empty}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for empty replacement, got %v", err)
	}

	oversized := make([]LineItemInput, 51)
	for i := range oversized {
		oversized[i] = LineItemInput{ProductID: "prod_water_bottle", Quantity: 1}
	}
	if _, err := svc.Update(ctx, session.CheckoutID, UpdateInput{LineItems: &oversized}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for oversized replacement, got %v", err)
	}

	// both rejections must leave the cart untouched
	reloaded, err := svc.Get(ctx, session.CheckoutID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(reloaded.LineItems) != 1 || reloaded.LineItems[0].ProductID != "prod_running_shoe" {
		t.Fatalf("cart mutated by rejected replacement: %+v", reloaded.LineItems)
	}
	if reloaded.Subtotal.Amount != 12999 || reloaded.Subtotal.Currency != "usd" {
		t.Fatalf("subtotal mutated: %+v", reloaded.Subtotal)
	}
}

func TestUpdateCheckoutMetadataMerges(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, CreateInput{
		ReferenceID: "ref_meta",
		LineItems:   []LineItemInput{{ProductID: "prod_laptop_stand", Quantity: 1}},
		Metadata:    map[string]string{"source": "agent", "campaign": "spring"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, session.CheckoutID, UpdateInput{
		Metadata: map[string]string{"campaign": "summer", "note": "gift"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Metadata["source"] != "agent" {
		t.Fatalf("merge dropped existing key: %v", updated.Metadata)
	}
	if updated.Metadata["campaign"] != "summer" || updated.Metadata["note"] != "gift" {
		t.Fatalf("merge did not apply new keys: %v", updated.Metadata)
	}
}

func TestUpdateCheckoutErrors(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	if _, err := svc.Update(ctx, "chk_missing", UpdateInput{}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	_, err := svc.Update(ctx, session.CheckoutID, UpdateInput{ShippingOptionID: strPtr("ship_drone")})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidShippingOption) {
		t.Fatalf("expected INVALID_SHIPPING_OPTION, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	svc, m, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	processing, err := svc.MarkProcessing(ctx, session.CheckoutID, "pending")
	if err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if processing.Status != enums.CheckoutStatusProcessing {
		t.Fatalf("expected processing, got %s", processing.Status)
	}
	if processing.PaymentIntentID == nil || *processing.PaymentIntentID != "pending" {
		t.Fatalf("payment reference not stored: %v", processing.PaymentIntentID)
	}

	// re-applying while processing swaps in the real intent id
	processing, err = svc.MarkProcessing(ctx, session.CheckoutID, "pi_123")
	if err != nil {
		t.Fatalf("second mark processing: %v", err)
	}
	if *processing.PaymentIntentID != "pi_123" {
		t.Fatalf("payment reference not replaced: %v", *processing.PaymentIntentID)
	}

	completed, err := svc.MarkCompleted(ctx, session.CheckoutID, "ord_abc123")
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if completed.Status != enums.CheckoutStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.OrderID == nil || *completed.OrderID != "ord_abc123" {
		t.Fatalf("order id not stored: %v", completed.OrderID)
	}

	// terminal guard holds for every mutating path
	if _, err := svc.MarkFailed(ctx, session.CheckoutID, "too late"); !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyTerminal) {
		t.Fatalf("expected ALREADY_TERMINAL, got %v", err)
	}
	if _, err := svc.MarkProcessing(ctx, session.CheckoutID, "pi_zzz"); !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyTerminal) {
		t.Fatalf("expected ALREADY_TERMINAL, got %v", err)
	}
	if _, err := svc.Update(ctx, session.CheckoutID, UpdateInput{BuyerEmail: strPtr("x@y.z")}); !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyTerminal) {
		t.Fatalf("expected ALREADY_TERMINAL, got %v", err)
	}

	// the failed counter must not move on the rejected markFailed
	snap := m.Read()
	if snap.TotalCompleted != 1 || snap.TotalFailed != 0 {
		t.Fatalf("unexpected counters: %+v", snap)
	}

	// reloading shows the terminal state stuck
	final, err := svc.Get(ctx, session.CheckoutID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != enums.CheckoutStatusCompleted {
		t.Fatalf("terminal state changed to %s", final.Status)
	}
}

func TestMarkFailedRecordsReason(t *testing.T) {
	svc, m, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	failed, err := svc.MarkFailed(ctx, session.CheckoutID, "card declined")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if failed.Status != enums.CheckoutStatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if failed.FailureReason == nil || *failed.FailureReason != "card declined" {
		t.Fatalf("reason not stored: %v", failed.FailureReason)
	}
	if snap := m.Read(); snap.TotalFailed != 1 {
		t.Fatalf("failed counter not incremented: %+v", snap)
	}
}

func TestGetCheckout(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()
	session := createShoeSession(t, svc)

	loaded, err := svc.Get(ctx, session.CheckoutID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.CheckoutID != session.CheckoutID {
		t.Fatalf("wrong session: %s", loaded.CheckoutID)
	}

	if _, err := svc.Get(ctx, "chk_ghost"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	ctx := context.Background()

	first := createShoeSession(t, svc)
	createShoeSession(t, svc)

	if _, err := svc.MarkCompleted(ctx, first.CheckoutID, "ord_done"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ActiveSessions != 2 {
		t.Fatalf("expected 2 active, got %d", stats.ActiveSessions)
	}
	if stats.TotalCreated != 2 || stats.TotalCompleted != 1 || stats.TotalFailed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestIDGenerators(t *testing.T) {
	chk := NewCheckoutID()
	if !strings.HasPrefix(chk, "chk_") || len(chk) != 28 {
		t.Fatalf("unexpected checkout id %q", chk)
	}
	ord := NewOrderID()
	if !strings.HasPrefix(ord, "ord_") || len(ord) != 20 {
		t.Fatalf("unexpected order id %q", ord)
	}
	if NewCheckoutID() == chk {
		t.Fatal("checkout ids must not repeat")
	}
}
