package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/pricing"
)

// ErrProductNotFound is returned when a product does not exist or is inactive.
var ErrProductNotFound = errors.New("product not found")

type queries interface {
	GetProductByID(ctx context.Context, id string) (ProductRow, error)
	GetProductBySlug(ctx context.Context, slug string) (ProductRow, error)
	ListProducts(ctx context.Context, f ListFilter) ([]ProductRow, int, error)
	ListCategories(ctx context.Context) ([]CategoryRow, error)
	ListKits(ctx context.Context) ([]KitRow, error)
}

// Service exposes the public catalog and feeds the cart with product
// snapshots. Reads go through the Redis cache when one is configured.
type Service struct {
	Repo  queries
	Cache Cache
	Log   zerolog.Logger

	DefaultLimit int
	MaxLimit     int
}

// Product is the public representation of a catalog product.
type Product struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Slug                string        `json:"slug"`
	Category            string        `json:"category"`
	ImageURL            string        `json:"image_url,omitempty"`
	PriceRegular        pricing.Money `json:"price_regular"`
	PriceRegularDisplay string        `json:"price_regular_display"`
	PriceSpecial        pricing.Money `json:"price_special,omitempty"`
	PriceSpecialDisplay string        `json:"price_special_display,omitempty"`
	SpecialPriceMinQty  int           `json:"special_price_min_qty,omitempty"`
}

// Category is the public representation of a product category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Kit is a curated product bundle sold as a single line.
type Kit struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Slug               string        `json:"slug"`
	Description        string        `json:"description,omitempty"`
	ImageURL           string        `json:"image_url,omitempty"`
	PriceRegular       pricing.Money `json:"price_regular"`
	PriceSpecial       pricing.Money `json:"price_special,omitempty"`
	SpecialPriceMinQty int           `json:"special_price_min_qty,omitempty"`
}

// ProductPage is one page of products plus the unpaged total.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// ProductSnapshot carries the pricing fields the cart captures when a product
// is added. Quantity thresholds and prices are frozen at snapshot time.
type ProductSnapshot struct {
	ID                 string
	Name               string
	CategoryName       string
	ImageURL           string
	PriceRegular       pricing.Money
	PriceSpecial       pricing.Money
	SpecialPriceMinQty int
}

// ListProducts returns one page of products matching the filter.
func (s *Service) ListProducts(ctx context.Context, f ListFilter) (ProductPage, error) {
	if s == nil || s.Repo == nil {
		return ProductPage{}, errors.New("catalog service not configured")
	}
	f = s.clampFilter(f)

	key := fmt.Sprintf("catalog:products:%s:%s:%d:%d", f.Category, f.Search, f.Limit, f.Offset)
	var page ProductPage
	if s.Cache.GetJSON(ctx, key, &page) {
		return page, nil
	}

	rows, total, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	page = ProductPage{Products: make([]Product, 0, len(rows)), Total: total}
	for _, row := range rows {
		page.Products = append(page.Products, s.toProduct(row))
	}
	s.Cache.SetJSON(ctx, key, page)
	return page, nil
}

// GetProduct returns one product by its public slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (Product, error) {
	if s == nil || s.Repo == nil {
		return Product{}, errors.New("catalog service not configured")
	}
	key := "catalog:product:" + slug
	var p Product
	if s.Cache.GetJSON(ctx, key, &p) {
		return p, nil
	}
	row, err := s.Repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	p = s.toProduct(row)
	s.Cache.SetJSON(ctx, key, p)
	return p, nil
}

// Categories returns all categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("catalog service not configured")
	}
	const key = "catalog:categories"
	var cached []Category
	if s.Cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, Category(row))
	}
	s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// Kits returns all active curated kits.
func (s *Service) Kits(ctx context.Context) ([]Kit, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("catalog service not configured")
	}
	const key = "catalog:kits"
	var cached []Kit
	if s.Cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Repo.ListKits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kits: %w", err)
	}
	out := make([]Kit, 0, len(rows))
	for _, row := range rows {
		special, minQty := s.clampSpecial(row.ID, row.PriceRegular, row.PriceSpecial, row.SpecialPriceMinQty)
		k := Kit{
			ID:                 row.ID,
			Name:               row.Name,
			Slug:               row.Slug,
			Description:        row.Description,
			ImageURL:           row.ImageURL,
			PriceRegular:       row.PriceRegular,
			PriceSpecial:       special,
			SpecialPriceMinQty: minQty,
		}
		out = append(out, k)
	}
	s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

// ProductForCart resolves the pricing snapshot the cart stores for a product.
// Snapshots are read straight from Postgres so carts never freeze stale cache
// entries.
func (s *Service) ProductForCart(ctx context.Context, productID string) (ProductSnapshot, error) {
	if s == nil || s.Repo == nil {
		return ProductSnapshot{}, errors.New("catalog service not configured")
	}
	row, err := s.Repo.GetProductByID(ctx, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductSnapshot{}, ErrProductNotFound
	}
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("product snapshot: %w", err)
	}
	special, minQty := s.clampSpecial(row.ID, row.PriceRegular, row.PriceSpecial, row.SpecialPriceMinQty)
	return ProductSnapshot{
		ID:                 row.ID,
		Name:               row.Name,
		CategoryName:       row.CategoryName,
		ImageURL:           row.ImageURL,
		PriceRegular:       row.PriceRegular,
		PriceSpecial:       special,
		SpecialPriceMinQty: minQty,
	}, nil
}

func (s *Service) toProduct(row ProductRow) Product {
	special, minQty := s.clampSpecial(row.ID, row.PriceRegular, row.PriceSpecial, row.SpecialPriceMinQty)
	p := Product{
		ID:                  row.ID,
		Name:                row.Name,
		Slug:                row.Slug,
		Category:            row.CategoryName,
		ImageURL:            row.ImageURL,
		PriceRegular:        row.PriceRegular,
		PriceRegularDisplay: pricing.FormatBRL(row.PriceRegular),
		PriceSpecial:        special,
		SpecialPriceMinQty:  minQty,
	}
	if special > 0 {
		p.PriceSpecialDisplay = pricing.FormatBRL(special)
	}
	return p
}

// clampSpecial drops special-price configs that would never discount: a
// special price above the regular price or a non-positive threshold.
func (s *Service) clampSpecial(id string, regular, special pricing.Money, minQty int) (pricing.Money, int) {
	if special <= 0 || minQty <= 0 {
		return 0, 0
	}
	if special > regular {
		s.Log.Warn().Str("product_id", id).
			Int64("price_regular", regular).
			Int64("price_special", special).
			Msg("special price above regular price, ignoring")
		return 0, 0
	}
	return special, minQty
}

func (s *Service) clampFilter(f ListFilter) ListFilter {
	limit := s.DefaultLimit
	if limit <= 0 {
		limit = 24
	}
	max := s.MaxLimit
	if max <= 0 {
		max = 100
	}
	if f.Limit > 0 {
		limit = f.Limit
	}
	if limit > max {
		limit = max
	}
	f.Limit = limit
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
