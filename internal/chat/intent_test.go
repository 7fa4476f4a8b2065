package chat

import "testing"

func TestClassify_PlainChatDefault(t *testing.T) {
	for _, msg := range []string{
		"hello there",
		"how are you today?",
		"tell me a joke",
	} {
		set := Classify(msg)
		if !set.Has(IntentPlainChat) {
			t.Fatalf("expected plain_chat for %q, got %v", msg, set)
		}
		if len(set) != 1 {
			t.Fatalf("expected only plain_chat for %q, got %v", msg, set)
		}
		if set.HasSystemAction() {
			t.Fatalf("plain chat must not be a system action: %q", msg)
		}
	}
}

func TestClassify_PurchaseIntent(t *testing.T) {
	for _, msg := range []string{
		"I want to buy this",
		"yes add it to cart please",
		"ok I'll take it",
	} {
		set := Classify(msg)
		if !set.Has(IntentPurchase) {
			t.Fatalf("expected purchase_intent for %q, got %v", msg, set)
		}
		if !set.HasSystemAction() {
			t.Fatalf("purchase must be a system action: %q", msg)
		}
	}
}

func TestClassify_PurchaseHistory(t *testing.T) {
	set := Classify("What did I buy last month?")
	if !set.Has(IntentPurchaseHistory) {
		t.Fatalf("expected purchase_history_query, got %v", set)
	}
}

func TestClassify_SpecificProductHistoryWinsOverGeneric(t *testing.T) {
	set := Classify("have I bought this before?")
	if !set.Has(IntentProductHistory) {
		t.Fatalf("expected specific_product_history_query, got %v", set)
	}
	if set.Has(IntentPurchaseHistory) {
		t.Fatalf("generic history should not fire for a specific-product question: %v", set)
	}
}

func TestClassify_CartManagement(t *testing.T) {
	set := Classify("what's in my cart right now?")
	if !set.Has(IntentCartManagement) {
		t.Fatalf("expected cart_management, got %v", set)
	}
}

func TestClassify_FollowUpImpliesSearch(t *testing.T) {
	set := Classify("show me more of those")
	if !set.Has(IntentFollowUp) {
		t.Fatalf("expected follow_up, got %v", set)
	}
	if !set.Has(IntentProductSearch) {
		t.Fatalf("follow_up should imply product_search, got %v", set)
	}
}

func TestClassify_DetailedRequirementImpliesSearch(t *testing.T) {
	set := Classify("I need a warm jacket under $100")
	if !set.Has(IntentProductSearch) {
		t.Fatalf("expected product_search, got %v", set)
	}
}

func TestClassify_CombinedIntents(t *testing.T) {
	// a message can be a system-action intent and a search at once
	set := Classify("I want to buy this, and show me more like it")
	if !set.Has(IntentPurchase) || !set.Has(IntentProductSearch) {
		t.Fatalf("expected purchase + search, got %v", set)
	}
}

func TestRequestedQuantity(t *testing.T) {
	cases := []struct {
		msg  string
		want int
	}{
		{"add 3 pieces to cart", 3},
		{"add to cart", 1},
		{"buy 12 of these", 12},
		{"give me 0 please", 1},
		{"order 500 units", 99},
	}
	for _, tc := range cases {
		if got := RequestedQuantity(tc.msg); got != tc.want {
			t.Fatalf("RequestedQuantity(%q) = %d, want %d", tc.msg, got, tc.want)
		}
	}
}
