package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Store{R: client, TTL: time.Hour}, mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	items := []StoredItem{{ProductID: "p1", Name: "Laço", UnitPriceRegular: 1450, Qty: 10}}
	require.NoError(t, store.Save(ctx, "sess-1", items))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, items, loaded)
}

func TestStoreMissingKeyIsEmptyCart(t *testing.T) {
	store, _ := newTestStore(t)
	loaded, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestStoreDropsNonPositiveQuantitiesOnLoad(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("cart:sess-1", `[{"product_id":"p1","qty":0},{"product_id":"p2","qty":3}]`))

	loaded, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "p2", loaded[0].ProductID)
}

func TestStoreSavingEmptyCartDeletesKey(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []StoredItem{{ProductID: "p1", Qty: 1}}))
	require.NoError(t, store.Save(ctx, "sess-1", nil))
	require.False(t, mr.Exists("cart:sess-1"))
}

func TestStoreSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), "sess-1", []StoredItem{{ProductID: "p1", Qty: 1}}))
	require.Equal(t, time.Hour, mr.TTL("cart:sess-1"))
}
