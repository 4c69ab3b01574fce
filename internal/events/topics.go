package events

// Topic constants for cart-domain events emitted by the storefront.
const (
	TopicCartItemAdded         = "cart.item_added"
	TopicCartItemUpdated       = "cart.item_updated"
	TopicCartItemRemoved       = "cart.item_removed"
	TopicSpecialPriceActivated = "cart.special_price_activated"
	TopicCartViewed            = "cart.viewed"
	TopicCartCleared           = "cart.cleared"
	TopicCheckoutSubmitted     = "checkout.submitted"
	TopicExperimentExposed     = "experiment.exposed"
)

// DefaultTopics returns the canonical list of topics forwarded to the CRM.
func DefaultTopics() []string {
	return []string{
		TopicCartItemAdded,
		TopicCartItemUpdated,
		TopicCartItemRemoved,
		TopicSpecialPriceActivated,
		TopicCartViewed,
		TopicCartCleared,
		TopicCheckoutSubmitted,
		TopicExperimentExposed,
	}
}
