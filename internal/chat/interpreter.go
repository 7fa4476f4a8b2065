package chat

import (
	"strings"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionAddToCart
	ActionRemoveNewestCartItem
)

// Action is the cart mutation a turn decided on, if any.
type Action struct {
	Kind     ActionKind
	Product  *catalog.ProductRef
	Quantity int
}

// Interpreter decides whether the replica's reply committed to a cart
// mutation. The lexical implementation below is a stand-in for structured
// action output from the upstream; swapping implementations must not touch
// the orchestrator.
type Interpreter interface {
	Interpret(intents IntentSet, reply string, focus *catalog.ProductRef, qty int) Action
}

// Lexical signal tables. The replica's natural-language confirmation is the
// source of truth for whether a mutation happened; keyword matching is the
// most reliable signal extractor available, and occasional false positives
// and negatives are accepted operating policy.
var (
	addSignals = []string{
		"added to cart", "added to your cart", "added it to", "i've added", "i have added",
		"adding it to", "in your cart now", "it's in your cart",
		"✅", "✓", "great choice", "excellent choice",
		"añadido al carrito", "zum warenkorb hinzugefügt",
	}

	removeSignals = []string{
		"removed", "deleted", "reduced", "taken out", "taken it out", "no longer in your cart",
		"eliminado", "entfernt",
	}
)

// LexicalInterpreter matches confirmation phrases in the reply text.
type LexicalInterpreter struct{}

func (LexicalInterpreter) Interpret(intents IntentSet, reply string, focus *catalog.ProductRef, qty int) Action {
	s := strings.ToLower(reply)

	if intents.Has(IntentPurchase) && focus != nil {
		if containsAny(s, addSignals) ||
			(strings.Contains(s, "add") && strings.Contains(s, "cart")) {
			if qty < 1 {
				qty = 1
			}
			return Action{Kind: ActionAddToCart, Product: focus, Quantity: qty}
		}
	}

	if intents.Has(IntentCartManagement) && containsAny(s, removeSignals) {
		// Removes the newest cart item regardless of which item the user
		// named. See the RemoveNewestCartItem contract if this policy ever
		// changes to remove-by-name.
		return Action{Kind: ActionRemoveNewestCartItem}
	}

	return Action{Kind: ActionNone}
}
