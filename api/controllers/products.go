package controllers

import (
	"net/http"

	"github.com/commercegrid/acp-checkout-backend/api/responses"
	"github.com/commercegrid/acp-checkout-backend/internal/catalog"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// ProductsList returns the purchasable catalog with shipping options so an
// agent can build a cart without a separate discovery call.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		products := svc.Products(r.Context())
		payload := productsResponse{
			Products:        make([]productPayload, len(products)),
			ShippingOptions: svc.ShippingOptions(r.Context()),
		}
		for i := range products {
			payload.Products[i] = newProductPayload(&products[i])
		}

		responses.WriteSuccess(w, payload)
	}
}

type productsResponse struct {
	Products        []productPayload       `json:"products"`
	ShippingOptions []types.ShippingOption `json:"shipping_options"`
}

type productPayload struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       types.Money      `json:"price"`
	Images      []string         `json:"images"`
	InStock     bool             `json:"in_stock"`
	Variants    []variantPayload `json:"variants,omitempty"`
}

type variantPayload struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	PriceAdjustment *types.Money `json:"price_adjustment,omitempty"`
	InStock         bool         `json:"in_stock"`
}

func newProductPayload(p *catalog.Product) productPayload {
	out := productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      p.Images,
		InStock:     p.InStock,
	}
	if len(p.Variants) > 0 {
		out.Variants = make([]variantPayload, len(p.Variants))
		for i, v := range p.Variants {
			out.Variants[i] = variantPayload{ID: v.ID, Name: v.Name, InStock: v.InStock}
			if v.PriceDelta != 0 {
				adj := types.NewMoney(v.PriceDelta, p.Price.Currency)
				out.Variants[i].PriceAdjustment = &adj
			}
		}
	}
	return out
}
