package cart

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/catalog"
	"github.com/ateliedalu/backend-atacado/internal/events"
	"github.com/ateliedalu/backend-atacado/internal/lock"
	"github.com/ateliedalu/backend-atacado/internal/obs"
	"github.com/ateliedalu/backend-atacado/internal/pricing"
)

var (
	// ErrInvalidQuantity is returned when an add request carries a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrProductNotFound mirrors the catalog sentinel for callers that only
	// import this package.
	ErrProductNotFound = catalog.ErrProductNotFound
	// ErrInvalidSnapshot is returned when the catalog snapshot lacks the
	// price fields the cart needs.
	ErrInvalidSnapshot = errors.New("product snapshot missing price fields")
)

// SnapshotProvider resolves the pricing snapshot captured when a product is
// added to a cart.
type SnapshotProvider interface {
	ProductForCart(ctx context.Context, productID string) (catalog.ProductSnapshot, error)
}

// Service implements the wholesale cart: additive adds, threshold-driven
// special pricing, minimum-order gating and saving opportunities. Mutations
// for one session are serialised through a Redis lock; persistence and event
// emission are best effort and never fail the request.
type Service struct {
	Store   *Store
	Catalog SnapshotProvider
	Events  *events.Bus
	Locker  lock.Locker

	MinOrderQty int
	Opportunity pricing.OpportunityPolicy
	LockTTL     time.Duration

	Log zerolog.Logger
}

// ItemView is one cart line with its derived pricing.
type ItemView struct {
	ProductID           string        `json:"product_id"`
	Name                string        `json:"name"`
	Category            string        `json:"category,omitempty"`
	ImageURL            string        `json:"image_url,omitempty"`
	Qty                 int           `json:"qty"`
	UnitPriceRegular    pricing.Money `json:"unit_price_regular"`
	UnitPriceSpecial    pricing.Money `json:"unit_price_special,omitempty"`
	SpecialPriceMinQty  int           `json:"special_price_min_qty,omitempty"`
	SpecialPriceActive  bool          `json:"special_price_active"`
	UnitPriceApplied    pricing.Money `json:"unit_price_applied"`
	UnitPriceDisplay    string        `json:"unit_price_display"`
	Subtotal            pricing.Money `json:"subtotal"`
	SubtotalDisplay     string        `json:"subtotal_display"`
	Savings             pricing.Money `json:"savings"`
	SavingsDisplay      string        `json:"savings_display,omitempty"`
}

// OpportunityView is one upsell suggestion with display strings.
type OpportunityView struct {
	ProductID              string        `json:"product_id"`
	Name                   string        `json:"name"`
	QtyToSpecialPrice      int           `json:"qty_to_special_price"`
	PotentialSaving        pricing.Money `json:"potential_saving"`
	PotentialSavingDisplay string        `json:"potential_saving_display"`
}

// SummaryView aggregates the cart totals.
type SummaryView struct {
	TotalItems          int           `json:"total_items"`
	TotalPrice          pricing.Money `json:"total_price"`
	TotalPriceDisplay   string        `json:"total_price_display"`
	TotalSavings        pricing.Money `json:"total_savings"`
	TotalSavingsDisplay string        `json:"total_savings_display,omitempty"`
	MinOrderQty         int           `json:"min_order_qty"`
	MinOrderMet         bool          `json:"min_order_met"`
	ItemsToMinOrder     int           `json:"items_to_min_order"`
}

// View is the full cart representation returned by every operation.
type View struct {
	Items         []ItemView        `json:"items"`
	Summary       SummaryView       `json:"summary"`
	Opportunities []OpportunityView `json:"opportunities"`
}

// AddItem adds qty units of a product to the session cart. Adding a product
// already in the cart accumulates quantity and refreshes the stored pricing
// snapshot.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, qty int) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	if qty <= 0 {
		s.countMutation("add", "invalid")
		return View{}, ErrInvalidQuantity
	}

	var view View
	err := s.withCartLock(ctx, sessionID, func(ctx context.Context) error {
		items, err := s.Store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		snap, err := s.Catalog.ProductForCart(ctx, productID)
		if err != nil {
			return err
		}
		if snap.ID == "" || snap.Name == "" || snap.PriceRegular <= 0 {
			return ErrInvalidSnapshot
		}

		prevQty := 0
		idx := -1
		for i, it := range items {
			if it.ProductID == productID {
				prevQty = it.Qty
				idx = i
				break
			}
		}
		line := StoredItem{
			ProductID:          snap.ID,
			Name:               snap.Name,
			CategoryName:       snap.CategoryName,
			ImageURL:           snap.ImageURL,
			UnitPriceRegular:   snap.PriceRegular,
			UnitPriceSpecial:   snap.PriceSpecial,
			SpecialPriceMinQty: snap.SpecialPriceMinQty,
			Qty:                prevQty + qty,
		}
		if idx >= 0 {
			items[idx] = line
		} else {
			items = append(items, line)
		}

		s.persist(ctx, sessionID, items)
		added := toLineItem(line)
		s.emit(ctx, events.TopicCartItemAdded, sessionID, map[string]any{
			"product_id":         productID,
			"qty_added":          qty,
			"qty":                line.Qty,
			"unit_price_applied": added.AppliedPrice(),
			"value":              added.AppliedPrice() * pricing.Money(qty),
			"currency":           "BRL",
		})
		s.emitActivation(ctx, sessionID, line, prevQty)

		view = s.buildView(items)
		return nil
	})
	if err != nil {
		s.countMutation("add", "error")
		return View{}, err
	}
	s.countMutation("add", "ok")
	return view, nil
}

// UpdateQuantity sets the absolute quantity of a cart line. A quantity of
// zero or less removes the line. Updating a product that is not in the cart
// is a no-op and returns the current cart.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	if qty <= 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	var view View
	err := s.withCartLock(ctx, sessionID, func(ctx context.Context) error {
		items, err := s.Store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		idx := -1
		for i, it := range items {
			if it.ProductID == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			view = s.buildView(items)
			return nil
		}
		prevQty := items[idx].Qty
		items[idx].Qty = qty

		s.persist(ctx, sessionID, items)
		s.emit(ctx, events.TopicCartItemUpdated, sessionID, map[string]any{
			"product_id": productID,
			"prev_qty":   prevQty,
			"qty":        qty,
		})
		s.emitActivation(ctx, sessionID, items[idx], prevQty)

		view = s.buildView(items)
		return nil
	})
	if err != nil {
		s.countMutation("update", "error")
		return View{}, err
	}
	s.countMutation("update", "ok")
	return view, nil
}

// RemoveItem removes a cart line. Removing a product that is not in the cart
// is a no-op.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}

	var view View
	err := s.withCartLock(ctx, sessionID, func(ctx context.Context) error {
		items, err := s.Store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		kept := items[:0]
		removed := false
		for _, it := range items {
			if it.ProductID == productID {
				removed = true
				continue
			}
			kept = append(kept, it)
		}
		if removed {
			s.persist(ctx, sessionID, kept)
			s.emit(ctx, events.TopicCartItemRemoved, sessionID, map[string]any{
				"product_id": productID,
			})
		}
		view = s.buildView(kept)
		return nil
	})
	if err != nil {
		s.countMutation("remove", "error")
		return View{}, err
	}
	s.countMutation("remove", "ok")
	return view, nil
}

// Clear empties the session cart.
func (s *Service) Clear(ctx context.Context, sessionID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}

	err := s.withCartLock(ctx, sessionID, func(ctx context.Context) error {
		if err := s.Store.Clear(ctx, sessionID); err != nil {
			return err
		}
		s.emit(ctx, events.TopicCartCleared, sessionID, nil)
		return nil
	})
	if err != nil {
		s.countMutation("clear", "error")
		return View{}, err
	}
	s.countMutation("clear", "ok")
	return s.buildView(nil), nil
}

// Get returns the current cart with all derived pricing recomputed.
func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	items, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	s.emit(ctx, events.TopicCartViewed, sessionID, map[string]any{
		"items": len(items),
	})
	return s.buildView(items), nil
}

// Snapshot returns the raw stored lines without emitting a view event. Used
// by checkout.
func (s *Service) Snapshot(ctx context.Context, sessionID string) ([]StoredItem, View, error) {
	if err := s.ready(); err != nil {
		return nil, View{}, err
	}
	items, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, View{}, err
	}
	return items, s.buildView(items), nil
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

func (s *Service) withCartLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if s.Locker.R == nil {
		return fn(ctx)
	}
	return s.Locker.WithLock(ctx, "cartlock:"+sessionID, s.LockTTL, fn)
}

// persist is best effort: a failed write is logged and the request continues
// with the in-memory cart.
func (s *Service) persist(ctx context.Context, sessionID string, items []StoredItem) {
	if err := s.Store.Save(ctx, sessionID, items); err != nil {
		s.Log.Warn().Err(err).Str("session_id", sessionID).Msg("cart persistence failed")
	}
}

func (s *Service) emit(ctx context.Context, topic, sessionID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, sessionID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Msg("event emission failed")
	}
}

// emitActivation fires only on an upward threshold crossing. Dropping back
// below the threshold emits nothing.
func (s *Service) emitActivation(ctx context.Context, sessionID string, line StoredItem, prevQty int) {
	prev := line
	prev.Qty = prevQty
	wasActive := toLineItem(prev).SpecialPriceActive()
	nowActive := toLineItem(line).SpecialPriceActive()
	if wasActive || !nowActive {
		return
	}
	if obs.SpecialPriceActivationsTotal != nil {
		obs.SpecialPriceActivationsTotal.Inc()
	}
	s.emit(ctx, events.TopicSpecialPriceActivated, sessionID, map[string]any{
		"product_id":         line.ProductID,
		"qty":                line.Qty,
		"threshold":          line.SpecialPriceMinQty,
		"unit_price_special": line.UnitPriceSpecial,
		"savings":            toLineItem(line).Savings(),
	})
}

func (s *Service) countMutation(op, result string) {
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op, result).Inc()
	}
}

func (s *Service) buildView(items []StoredItem) View {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, toLineItem(it))
	}
	summary := pricing.Compute(lines, s.MinOrderQty)
	opps := pricing.Opportunities(lines, s.Opportunity)

	view := View{
		Items:         make([]ItemView, 0, len(lines)),
		Opportunities: make([]OpportunityView, 0, len(opps)),
	}
	for _, line := range lines {
		iv := ItemView{
			ProductID:          line.ProductID,
			Name:               line.Name,
			Category:           line.CategoryName,
			ImageURL:           line.ImageURL,
			Qty:                line.Qty,
			UnitPriceRegular:   line.UnitPriceRegular,
			UnitPriceSpecial:   line.UnitPriceSpecial,
			SpecialPriceMinQty: line.SpecialPriceMinQty,
			SpecialPriceActive: line.SpecialPriceActive(),
			UnitPriceApplied:   line.AppliedPrice(),
			UnitPriceDisplay:   pricing.FormatBRL(line.AppliedPrice()),
			Subtotal:           line.Subtotal(),
			SubtotalDisplay:    pricing.FormatBRL(line.Subtotal()),
			Savings:            line.Savings(),
		}
		if iv.Savings > 0 {
			iv.SavingsDisplay = pricing.FormatBRL(iv.Savings)
		}
		view.Items = append(view.Items, iv)
	}
	view.Summary = SummaryView{
		TotalItems:        summary.TotalItems,
		TotalPrice:        summary.TotalPrice,
		TotalPriceDisplay: pricing.FormatBRL(summary.TotalPrice),
		TotalSavings:      summary.TotalSavings,
		MinOrderQty:       s.minOrderQty(),
		MinOrderMet:       summary.MinOrderMet,
		ItemsToMinOrder:   summary.ItemsToMinOrder,
	}
	if summary.TotalSavings > 0 {
		view.Summary.TotalSavingsDisplay = pricing.FormatBRL(summary.TotalSavings)
	}
	for _, o := range opps {
		view.Opportunities = append(view.Opportunities, OpportunityView{
			ProductID:              o.ProductID,
			Name:                   o.Name,
			QtyToSpecialPrice:      o.QtyToSpecialPrice,
			PotentialSaving:        o.PotentialSaving,
			PotentialSavingDisplay: pricing.FormatBRL(o.PotentialSaving),
		})
	}
	return view
}

func (s *Service) minOrderQty() int {
	if s.MinOrderQty > 0 {
		return s.MinOrderQty
	}
	return pricing.DefaultMinOrderQty
}

func toLineItem(it StoredItem) pricing.LineItem {
	return pricing.LineItem{
		ProductID:          it.ProductID,
		Name:               it.Name,
		CategoryName:       it.CategoryName,
		ImageURL:           it.ImageURL,
		UnitPriceRegular:   it.UnitPriceRegular,
		UnitPriceSpecial:   it.UnitPriceSpecial,
		SpecialPriceMinQty: it.SpecialPriceMinQty,
		Qty:                it.Qty,
	}
}
