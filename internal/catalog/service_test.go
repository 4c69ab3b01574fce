package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	products   []ProductRow
	listCalls  int
	byIDCalls  int
	bySlugErr  error
	categories []CategoryRow
	kits       []KitRow
}

func (s *stubRepo) GetProductByID(_ context.Context, id string) (ProductRow, error) {
	s.byIDCalls++
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return ProductRow{}, pgx.ErrNoRows
}

func (s *stubRepo) GetProductBySlug(_ context.Context, slug string) (ProductRow, error) {
	if s.bySlugErr != nil {
		return ProductRow{}, s.bySlugErr
	}
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return ProductRow{}, pgx.ErrNoRows
}

func (s *stubRepo) ListProducts(_ context.Context, f ListFilter) ([]ProductRow, int, error) {
	s.listCalls++
	return s.products, len(s.products), nil
}

func (s *stubRepo) ListCategories(context.Context) ([]CategoryRow, error) {
	return s.categories, nil
}

func (s *stubRepo) ListKits(context.Context) ([]KitRow, error) {
	return s.kits, nil
}

func newTestService(t *testing.T, repo *stubRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{
		Repo:         repo,
		Cache:        Cache{R: client, TTL: time.Minute},
		Log:          zerolog.Nop(),
		DefaultLimit: 24,
		MaxLimit:     100,
	}
}

func TestListProductsServesSecondReadFromCache(t *testing.T) {
	repo := &stubRepo{products: []ProductRow{{
		ID: "p1", Name: "Laço Gorgurão", Slug: "laco-gorgurao",
		PriceRegular: 1450, PriceSpecial: 1200, SpecialPriceMinQty: 100,
	}}}
	svc := newTestService(t, repo)

	first, err := svc.ListProducts(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, first.Products, 1)
	require.Equal(t, "R$ 14,50", first.Products[0].PriceRegularDisplay)

	second, err := svc.ListProducts(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.listCalls)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductForCartIgnoresInvalidSpecialPrice(t *testing.T) {
	repo := &stubRepo{products: []ProductRow{{
		ID: "p1", Name: "Fita Cetim", Slug: "fita-cetim",
		PriceRegular: 900, PriceSpecial: 1500, SpecialPriceMinQty: 50,
	}}}
	svc := newTestService(t, repo)

	snap, err := svc.ProductForCart(context.Background(), "p1")
	require.NoError(t, err)
	require.EqualValues(t, 900, snap.PriceRegular)
	require.Zero(t, snap.PriceSpecial)
	require.Zero(t, snap.SpecialPriceMinQty)
}

func TestProductForCartBypassesCache(t *testing.T) {
	repo := &stubRepo{products: []ProductRow{{
		ID: "p1", Name: "Fita Cetim", Slug: "fita-cetim",
		PriceRegular: 900, PriceSpecial: 700, SpecialPriceMinQty: 50,
	}}}
	svc := newTestService(t, repo)

	for i := 0; i < 2; i++ {
		_, err := svc.ProductForCart(context.Background(), "p1")
		require.NoError(t, err)
	}
	require.Equal(t, 2, repo.byIDCalls)
}

func TestListProductsClampsLimit(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	f := svc.clampFilter(ListFilter{Limit: 5000, Offset: -3})
	require.Equal(t, 100, f.Limit)
	require.Zero(t, f.Offset)
}
