package catalog

import (
	"context"
	"fmt"

	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// Service exposes read-only catalog lookups backed by the boot snapshot.
type Service interface {
	Products(ctx context.Context) []Product
	ProductByID(ctx context.Context, productID string) (*Product, error)
	ShippingOptions(ctx context.Context) []types.ShippingOption
	ShippingOptionByID(ctx context.Context, optionID string) (*types.ShippingOption, error)
}

type service struct {
	products     []Product
	productsByID map[string]*Product
	shipping     []types.ShippingOption
	shippingByID map[string]*types.ShippingOption
}

// NewService indexes the snapshot for O(1) lookups. The snapshot is not
// copied; callers must not mutate it after construction.
func NewService(snap *Snapshot) (Service, error) {
	if snap == nil {
		return nil, fmt.Errorf("catalog snapshot is required")
	}

	s := &service{
		products:     snap.Products,
		productsByID: make(map[string]*Product, len(snap.Products)),
		shipping:     snap.ShippingOptions,
		shippingByID: make(map[string]*types.ShippingOption, len(snap.ShippingOptions)),
	}
	for i := range snap.Products {
		p := &snap.Products[i]
		if _, dup := s.productsByID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		s.productsByID[p.ID] = p
	}
	for i := range snap.ShippingOptions {
		opt := &snap.ShippingOptions[i]
		if _, dup := s.shippingByID[opt.ID]; dup {
			return nil, fmt.Errorf("duplicate shipping option id %q", opt.ID)
		}
		s.shippingByID[opt.ID] = opt
	}

	return s, nil
}

func (s *service) Products(_ context.Context) []Product {
	return s.products
}

func (s *service) ProductByID(_ context.Context, productID string) (*Product, error) {
	p, ok := s.productsByID[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound,
			fmt.Sprintf("product %s not found", productID))
	}
	return p, nil
}

func (s *service) ShippingOptions(_ context.Context) []types.ShippingOption {
	return s.shipping
}

func (s *service) ShippingOptionByID(_ context.Context, optionID string) (*types.ShippingOption, error) {
	opt, ok := s.shippingByID[optionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidShippingOption,
			fmt.Sprintf("shipping option %s not found", optionID))
	}
	return opt, nil
}
