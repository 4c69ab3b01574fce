package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo executes catalog reads against Postgres. The schema itself is owned by
// an external migration pipeline; this layer only queries it.
type Repo struct {
	Pool *pgxpool.Pool
}

// ProductRow mirrors one catalog product record.
type ProductRow struct {
	ID                 string
	Name               string
	Slug               string
	CategoryName       string
	ImageURL           string
	PriceRegular       int64
	PriceSpecial       int64
	SpecialPriceMinQty int
}

// CategoryRow mirrors one category record.
type CategoryRow struct {
	ID   string
	Name string
	Slug string
}

// KitRow mirrors one curated kit record.
type KitRow struct {
	ID                 string
	Name               string
	Slug               string
	Description        string
	ImageURL           string
	PriceRegular       int64
	PriceSpecial       int64
	SpecialPriceMinQty int
}

// ListFilter captures product listing filters.
type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

const productColumns = `p.id, p.name, p.slug, coalesce(c.name, ''), coalesce(p.image_url, ''),
	p.price_regular, p.price_special, p.special_price_min_qty`

// GetProductByID loads a single active product.
func (r *Repo) GetProductByID(ctx context.Context, id string) (ProductRow, error) {
	if r == nil || r.Pool == nil {
		return ProductRow{}, errors.New("catalog repo not configured")
	}
	query := fmt.Sprintf(`SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.active`, productColumns)
	return scanProduct(r.Pool.QueryRow(ctx, query, id))
}

// GetProductBySlug loads a single active product by its public slug.
func (r *Repo) GetProductBySlug(ctx context.Context, slug string) (ProductRow, error) {
	if r == nil || r.Pool == nil {
		return ProductRow{}, errors.New("catalog repo not configured")
	}
	query := fmt.Sprintf(`SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1 AND p.active`, productColumns)
	return scanProduct(r.Pool.QueryRow(ctx, query, slug))
}

// ListProducts returns one page of active products plus the unpaged total.
func (r *Repo) ListProducts(ctx context.Context, f ListFilter) ([]ProductRow, int, error) {
	if r == nil || r.Pool == nil {
		return nil, 0, errors.New("catalog repo not configured")
	}
	where := []string{"p.active"}
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		where = append(where, fmt.Sprintf("lower(p.name) LIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT count(*)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s`, cond)
	var total int
	if err := r.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	listQuery := fmt.Sprintf(`SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY p.name
		LIMIT $%d OFFSET $%d`, productColumns, cond, len(args)-1, len(args))
	rows, err := r.Pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ProductRow
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// ListCategories returns all categories ordered by name.
func (r *Repo) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("catalog repo not configured")
	}
	rows, err := r.Pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListKits returns all active curated kits ordered by name.
func (r *Repo) ListKits(ctx context.Context) ([]KitRow, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("catalog repo not configured")
	}
	rows, err := r.Pool.Query(ctx, `SELECT id, name, slug, coalesce(description, ''), coalesce(image_url, ''),
		price_regular, price_special, special_price_min_qty
		FROM kits WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KitRow
	for rows.Next() {
		var k KitRow
		if err := rows.Scan(&k.ID, &k.Name, &k.Slug, &k.Description, &k.ImageURL,
			&k.PriceRegular, &k.PriceSpecial, &k.SpecialPriceMinQty); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (ProductRow, error) {
	var p ProductRow
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.CategoryName, &p.ImageURL,
		&p.PriceRegular, &p.PriceSpecial, &p.SpecialPriceMinQty)
	return p, err
}
