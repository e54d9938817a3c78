package events

import "github.com/Skotchmaster/storefront/internal/cart"

// CartListener turns committed cart changes into cart_events messages keyed by key.
func CartListener(e *Emitter, key string) func(cart.Change) {
	return func(ch cart.Change) {
		var items int
		for _, l := range ch.Lines {
			items += l.Quantity
		}
		event := map[string]any{
			"type":  string(ch.Op),
			"lines": len(ch.Lines),
			"items": items,
		}
		if ch.Op != cart.OpClear {
			event["productID"] = ch.ProductID
		}
		if ch.Op == cart.OpAdd || ch.Op == cart.OpSetQuantity {
			event["quantity"] = ch.Quantity
		}
		e.Emit(TopicCart, key, event)
	}
}
