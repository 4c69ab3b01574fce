package checkout

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ateliedalu/backend-atacado/internal/cart"
	"github.com/ateliedalu/backend-atacado/internal/catalog"
	"github.com/ateliedalu/backend-atacado/internal/common"
	"github.com/ateliedalu/backend-atacado/internal/events"
	"github.com/ateliedalu/backend-atacado/internal/pricing"
)

type fixedCatalog struct {
	snap catalog.ProductSnapshot
}

func (f fixedCatalog) ProductForCart(context.Context, string) (catalog.ProductSnapshot, error) {
	return f.snap, nil
}

type recordingSink struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingSink) Record(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, evt.Topic)
	return nil
}

func (r *recordingSink) count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.topics {
		if t == topic {
			n++
		}
	}
	return n
}

func newTestCheckout(t *testing.T) (*Service, *cart.Service, *recordingSink) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sink := &recordingSink{}
	bus := &events.Bus{Sinks: []events.Sink{sink}}
	cartSvc := &cart.Service{
		Store: &cart.Store{R: client, TTL: time.Hour},
		Catalog: fixedCatalog{snap: catalog.ProductSnapshot{
			ID:                 "laco-1",
			Name:               "Laço Gorgurão",
			PriceRegular:       1450,
			PriceSpecial:       1200,
			SpecialPriceMinQty: 100,
		}},
		Events:      bus,
		MinOrderQty: 30,
		Opportunity: pricing.DefaultOpportunityPolicy(),
		Log:         zerolog.Nop(),
	}
	svc := &Service{
		Cart:           cartSvc,
		Events:         bus,
		WhatsAppNumber: "5511999999999",
		Log:            zerolog.Nop(),
	}
	return svc, cartSvc, sink
}

func TestSubmitEmptyCartRejected(t *testing.T) {
	svc, _, _ := newTestCheckout(t)
	_, err := svc.Submit(context.Background(), "sess-1", "")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMPTY_CART", appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
}

func TestSubmitBelowMinimumRejected(t *testing.T) {
	svc, cartSvc, sink := newTestCheckout(t)
	ctx := context.Background()

	_, err := cartSvc.AddItem(ctx, "sess-1", "laco-1", 12)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "sess-1", "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "MIN_ORDER_NOT_MET", appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 18, details["items_to_min_order"])
	require.Zero(t, sink.count(events.TopicCheckoutSubmitted))
}

func TestSubmitBuildsWhatsAppHandoff(t *testing.T) {
	svc, cartSvc, sink := newTestCheckout(t)
	ctx := context.Background()

	_, err := cartSvc.AddItem(ctx, "sess-1", "laco-1", 100)
	require.NoError(t, err)

	submission, err := svc.Submit(ctx, "sess-1", "")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(submission.WhatsAppURL, "https://wa.me/5511999999999?text="))
	parsed, err := url.Parse(submission.WhatsAppURL)
	require.NoError(t, err)
	require.Equal(t, submission.Message, parsed.Query().Get("text"))

	require.Contains(t, submission.Message, "100x Laço Gorgurão")
	require.Contains(t, submission.Message, "R$ 1.200,00")
	require.Contains(t, submission.Message, "Economia no atacado: R$ 250,00")
	require.True(t, submission.Summary.MinOrderMet)
	require.Equal(t, 1, sink.count(events.TopicCheckoutSubmitted))
}

func TestSubmitGreetsCustomerByName(t *testing.T) {
	svc, cartSvc, _ := newTestCheckout(t)
	ctx := context.Background()

	_, err := cartSvc.AddItem(ctx, "sess-1", "laco-1", 100)
	require.NoError(t, err)

	submission, err := svc.Submit(ctx, "sess-1", "Maria")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(submission.Message, "Olá! Sou Maria"))
}
