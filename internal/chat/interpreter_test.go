package chat

import (
	"testing"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

var tee = &catalog.ProductRef{ID: "p1", Handle: "tee", Title: "Tee", Price: 20, Currency: "USD"}

func TestInterpret_AddToCartOnConfirmation(t *testing.T) {
	interp := LexicalInterpreter{}
	intents := IntentSet{IntentPurchase: true}

	for _, reply := range []string{
		"Great, I've added the Tee to your cart!",
		"Done! Added to cart.",
		"Sure, I'll add that to your cart right away.",
	} {
		a := interp.Interpret(intents, reply, tee, 2)
		if a.Kind != ActionAddToCart {
			t.Fatalf("expected AddToCart for %q, got %v", reply, a.Kind)
		}
		if a.Product.ID != "p1" || a.Quantity != 2 {
			t.Fatalf("unexpected action payload: %+v", a)
		}
	}
}

func TestInterpret_NoFocusProductNoAction(t *testing.T) {
	interp := LexicalInterpreter{}
	a := interp.Interpret(IntentSet{IntentPurchase: true}, "Added to cart!", nil, 1)
	if a.Kind != ActionNone {
		t.Fatalf("expected NoOp without a focus product, got %v", a.Kind)
	}
}

func TestInterpret_NonCommittalReplyNoAction(t *testing.T) {
	interp := LexicalInterpreter{}
	a := interp.Interpret(IntentSet{IntentPurchase: true}, "Which product would you like to buy?", tee, 1)
	if a.Kind != ActionNone {
		t.Fatalf("expected NoOp for a clarifying question, got %v", a.Kind)
	}
}

func TestInterpret_RemovalSignal(t *testing.T) {
	interp := LexicalInterpreter{}
	a := interp.Interpret(IntentSet{IntentCartManagement: true}, "Okay, I removed it from your cart.", nil, 1)
	if a.Kind != ActionRemoveNewestCartItem {
		t.Fatalf("expected RemoveNewestCartItem, got %v", a.Kind)
	}
}

func TestInterpret_OtherIntentsNoAction(t *testing.T) {
	interp := LexicalInterpreter{}
	a := interp.Interpret(IntentSet{IntentPlainChat: true}, "Added to cart!", tee, 1)
	if a.Kind != ActionNone {
		t.Fatalf("expected NoOp outside purchase/cart intents, got %v", a.Kind)
	}
}
