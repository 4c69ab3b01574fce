package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/cart"
	"github.com/ateliedalu/backend-atacado/internal/common"
	"github.com/ateliedalu/backend-atacado/internal/events"
	"github.com/ateliedalu/backend-atacado/internal/obs"
	"github.com/ateliedalu/backend-atacado/internal/pricing"
)

// Service turns a qualifying cart into a WhatsApp order message. There is no
// payment step: the storefront closes wholesale orders over WhatsApp.
type Service struct {
	Cart   *cart.Service
	Events *events.Bus

	// WhatsAppNumber is the store number in international format without
	// the plus sign, e.g. 5511999999999.
	WhatsAppNumber string

	Log zerolog.Logger
}

// Submission is the prepared checkout handed back to the client.
type Submission struct {
	WhatsAppURL string           `json:"whatsapp_url"`
	Message     string           `json:"message"`
	Summary     cart.SummaryView `json:"summary"`
}

// Submit validates the minimum order and builds the WhatsApp handoff. A cart
// below the minimum is rejected with the number of units still missing.
// customerName is optional and only personalises the message greeting.
func (s *Service) Submit(ctx context.Context, sessionID, customerName string) (Submission, error) {
	if s == nil || s.Cart == nil {
		return Submission{}, errors.New("checkout service not configured")
	}
	_, view, err := s.Cart.Snapshot(ctx, sessionID)
	if err != nil {
		s.countSubmission("error")
		return Submission{}, err
	}
	if len(view.Items) == 0 {
		s.countSubmission("empty_cart")
		return Submission{}, common.NewAppError("EMPTY_CART", "cart is empty", http.StatusUnprocessableEntity, nil)
	}
	if !view.Summary.MinOrderMet {
		s.countSubmission("min_order_not_met")
		return Submission{}, common.NewAppError(
			"MIN_ORDER_NOT_MET",
			fmt.Sprintf("pedido mínimo de %d unidades", view.Summary.MinOrderQty),
			http.StatusUnprocessableEntity,
			nil,
		).WithDetails(map[string]any{
			"min_order_qty":      view.Summary.MinOrderQty,
			"total_items":        view.Summary.TotalItems,
			"items_to_min_order": view.Summary.ItemsToMinOrder,
		})
	}

	message := buildMessage(view, customerName)
	s.emit(ctx, sessionID, view)
	s.countSubmission("ok")

	return Submission{
		WhatsAppURL: fmt.Sprintf("https://wa.me/%s?text=%s", s.WhatsAppNumber, url.QueryEscape(message)),
		Message:     message,
		Summary:     view.Summary,
	}, nil
}

func (s *Service) emit(ctx context.Context, sessionID string, view cart.View) {
	if s.Events == nil {
		return
	}
	_, err := s.Events.Emit(ctx, events.TopicCheckoutSubmitted, sessionID, map[string]any{
		"total_items":   view.Summary.TotalItems,
		"total_price":   view.Summary.TotalPrice,
		"total_savings": view.Summary.TotalSavings,
		"lines":         len(view.Items),
	})
	if err != nil {
		s.Log.Warn().Err(err).Msg("checkout event emission failed")
	}
}

func (s *Service) countSubmission(result string) {
	if obs.CheckoutSubmissionsTotal != nil {
		obs.CheckoutSubmissionsTotal.WithLabelValues(result).Inc()
	}
}

func buildMessage(view cart.View, customerName string) string {
	var b strings.Builder
	if name := strings.TrimSpace(customerName); name != "" {
		fmt.Fprintf(&b, "Olá! Sou %s e gostaria de fazer um pedido no atacado:\n\n", name)
	} else {
		b.WriteString("Olá! Gostaria de fazer um pedido no atacado:\n\n")
	}
	for _, item := range view.Items {
		fmt.Fprintf(&b, "%dx %s (%s/un) = %s\n",
			item.Qty, item.Name, item.UnitPriceDisplay, item.SubtotalDisplay)
	}
	fmt.Fprintf(&b, "\nTotal de peças: %d\n", view.Summary.TotalItems)
	fmt.Fprintf(&b, "Total: %s", view.Summary.TotalPriceDisplay)
	if view.Summary.TotalSavings > 0 {
		fmt.Fprintf(&b, "\nEconomia no atacado: %s", pricing.FormatBRL(view.Summary.TotalSavings))
	}
	return b.String()
}
