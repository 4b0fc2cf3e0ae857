package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/commercegrid/acp-checkout-backend/internal/catalog"
)

func TestProductsListHandler(t *testing.T) {
	cat, err := catalog.NewService(catalog.SeedSnapshot())
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	handler := ProductsList(cat, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/acp/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp productsResponse
	decodeData(t, rec, &resp)
	if len(resp.Products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(resp.Products))
	}
	if len(resp.ShippingOptions) != 3 {
		t.Fatalf("expected 3 shipping options, got %d", len(resp.ShippingOptions))
	}

	byID := map[string]productPayload{}
	for _, p := range resp.Products {
		byID[p.ID] = p
	}

	shoe, ok := byID["prod_running_shoe"]
	if !ok {
		t.Fatal("expected prod_running_shoe in catalog")
	}
	if shoe.Price.Amount != 12999 || shoe.Price.Currency != "usd" {
		t.Fatalf("unexpected shoe price %+v", shoe.Price)
	}
	if len(shoe.Variants) != 4 {
		t.Fatalf("expected 4 shoe variants, got %d", len(shoe.Variants))
	}
	for _, v := range shoe.Variants {
		if v.ID == "var_size_11" && v.InStock {
			t.Fatal("expected var_size_11 out of stock")
		}
	}

	stand, ok := byID["prod_laptop_stand"]
	if !ok {
		t.Fatal("expected prod_laptop_stand in catalog")
	}
	if len(stand.Variants) != 0 {
		t.Fatalf("expected no variants on laptop stand, got %d", len(stand.Variants))
	}
}

func TestProductsListHandlerNilService(t *testing.T) {
	handler := ProductsList(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/acp/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
