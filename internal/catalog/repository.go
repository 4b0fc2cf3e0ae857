package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/commercegrid/acp-checkout-backend/pkg/db/models"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
	"gorm.io/gorm"
)

// Repository loads the catalog tables into an in-memory snapshot.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadSnapshot reads products, variants and shipping options in display
// order. The result is immutable for the life of the process.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var productRows []models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Order("position ASC").
		Find(&productRows).Error; err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	var shippingRows []models.ShippingOption
	if err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&shippingRows).Error; err != nil {
		return nil, fmt.Errorf("loading shipping options: %w", err)
	}

	snap := &Snapshot{
		Products:        make([]Product, 0, len(productRows)),
		ShippingOptions: make([]types.ShippingOption, 0, len(shippingRows)),
	}

	for _, row := range productRows {
		product := Product{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Price:       types.NewMoney(row.PriceCents, row.Currency),
			Images:      splitImageURLs(row.ImageURLs),
			InStock:     row.InStock,
		}
		for _, v := range row.Variants {
			product.Variants = append(product.Variants, Variant{
				ID:         v.ID,
				Name:       v.Name,
				PriceDelta: v.PriceDeltaCents,
				InStock:    v.InStock,
			})
		}
		snap.Products = append(snap.Products, product)
	}

	for _, row := range shippingRows {
		snap.ShippingOptions = append(snap.ShippingOptions, types.ShippingOption{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Price:       types.NewMoney(row.PriceCents, row.Currency),
			EstimatedDays: types.EstimatedDays{
				Min: row.EstimatedMin,
				Max: row.EstimatedMax,
			},
		})
	}

	return snap, nil
}

// splitImageURLs unpacks the comma-joined image_urls column.
func splitImageURLs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}
