package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ateliedalu/backend-atacado/internal/pricing"
)

// StoredItem is one cart line as persisted in Redis. Prices and thresholds are
// the snapshot captured when the product was added; applied prices and totals
// are never stored, they are derived on every read.
type StoredItem struct {
	ProductID          string        `json:"product_id"`
	Name               string        `json:"name"`
	CategoryName       string        `json:"category_name,omitempty"`
	ImageURL           string        `json:"image_url,omitempty"`
	UnitPriceRegular   pricing.Money `json:"unit_price_regular"`
	UnitPriceSpecial   pricing.Money `json:"unit_price_special,omitempty"`
	SpecialPriceMinQty int           `json:"special_price_min_qty,omitempty"`
	Qty                int           `json:"qty"`
}

// Store persists carts in Redis keyed by session. Each write refreshes the
// TTL so active carts survive, abandoned ones expire.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// Load returns the cart lines for a session. A missing key is an empty cart.
// Lines with a non-positive quantity are dropped on read.
func (s *Store) Load(ctx context.Context, sessionID string) ([]StoredItem, error) {
	if s == nil || s.R == nil {
		return nil, errors.New("cart store not configured")
	}
	raw, err := s.R.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []StoredItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	out := items[:0]
	for _, it := range items {
		if it.Qty > 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

// Save overwrites the cart for a session. Saving an empty cart deletes the
// key.
func (s *Store) Save(ctx context.Context, sessionID string, items []StoredItem) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	if len(items) == 0 {
		return s.Clear(ctx, sessionID)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if err := s.R.Set(ctx, cartKey(sessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear removes the cart for a session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	if err := s.R.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
