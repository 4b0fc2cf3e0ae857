package catalog

import "github.com/commercegrid/acp-checkout-backend/pkg/types"

// Product is a sellable catalog entry. Variants are ordered; a product
// without variants is purchased directly by its own ID.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       types.Money
	Images      []string
	InStock     bool
	Variants    []Variant
}

// Variant is a purchasable option under a product. PriceDelta shifts the
// unit price relative to the parent product, usually zero.
type Variant struct {
	ID         string
	Name       string
	PriceDelta int64
	InStock    bool
}

// Snapshot is the immutable catalog loaded at process start.
type Snapshot struct {
	Products        []Product
	ShippingOptions []types.ShippingOption
}

// VariantByID finds a variant on the product, nil when absent.
func (p *Product) VariantByID(variantID string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// UnitPrice returns the price for the given variant, or the base price when
// v is nil.
func (p *Product) UnitPrice(v *Variant) types.Money {
	price := p.Price
	if v != nil {
		price.Amount += v.PriceDelta
	}
	return price
}
