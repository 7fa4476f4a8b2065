package chat

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentProductSearch   Intent = "product_search"
	IntentPurchase        Intent = "purchase_intent"
	IntentPurchaseHistory Intent = "purchase_history_query"
	IntentProductHistory  Intent = "specific_product_history_query"
	IntentCartManagement  Intent = "cart_management"
	IntentFollowUp        Intent = "follow_up"
	IntentPlainChat       Intent = "plain_chat"
)

type IntentSet map[Intent]bool

func (s IntentSet) Has(i Intent) bool { return s[i] }

// HasSystemAction reports whether any intent requires authoritative state
// to be fetched before the replica is consulted.
func (s IntentSet) HasSystemAction() bool {
	return s[IntentPurchase] || s[IntentPurchaseHistory] ||
		s[IntentProductHistory] || s[IntentCartManagement]
}

// Keyword tables are static configuration: matching is case-insensitive
// substring containment over the trimmed message.
var (
	purchasePhrases = []string{
		"i want to buy", "i'll buy", "i will buy", "i'll take it", "i'll take this",
		"buy it", "buy this", "purchase this", "purchase it",
		"add to cart", "add it to cart", "add to my cart", "put it in my cart",
		"yes add", "order it", "order this", "i want it", "i want this one",
		"take my money",
	}

	// Checked before the generic history phrases; "this"/"that" points the
	// question at the product under discussion.
	productHistoryPhrases = []string{
		"have i bought this", "have i bought that", "did i buy this", "did i buy that",
		"have i purchased this", "have i ordered this", "when did i last buy",
		"how many times have i bought", "have i bought it before",
	}

	purchaseHistoryPhrases = []string{
		"what did i buy", "what have i bought", "purchase history", "order history",
		"my orders", "my purchases", "past purchases", "previous orders",
		"what did i order", "show my orders",
	}

	cartPhrases = []string{
		"my cart", "in the cart", "view cart", "show cart", "what's in my cart",
		"whats in my cart", "remove from cart", "remove it from", "delete from cart",
		"take it out of", "empty my cart", "clear my cart", "cart total",
	}

	followUpPhrases = []string{
		"show me more", "more like", "anything else", "other options", "something else",
		"similar ones", "any alternatives", "what else do you have", "more of those",
		"cheaper one", "a different color",
	}

	searchPhrases = []string{
		"show me", "find me", "do you have", "search for", "looking for",
		"i'm looking for", "im looking for", "do you sell", "can i see",
		"what do you have",
	}

	detailedRequirementPhrases = []string{
		"i need", "recommend", "suggest", "something for", "a gift for",
		"under $", "less than $", "my budget", "good for",
	}

	// Short replies to a consultation question the assistant asked
	// ("what will you use it for?"). These alone justify a product search.
	consultationAnswerPhrases = []string{
		"i prefer", "mostly for", "mainly for", "for everyday", "for daily",
		"for running", "for work", "for travel", "usually",
	}
)

// Classify maps a raw message to its intent set. Pure and deterministic;
// an empty match set defaults to plain_chat.
func Classify(message string) IntentSet {
	s := strings.ToLower(strings.TrimSpace(message))
	set := IntentSet{}
	if s == "" {
		set[IntentPlainChat] = true
		return set
	}

	if containsAny(s, purchasePhrases) {
		set[IntentPurchase] = true
	}

	if containsAny(s, productHistoryPhrases) {
		set[IntentProductHistory] = true
	} else if containsAny(s, purchaseHistoryPhrases) {
		set[IntentPurchaseHistory] = true
	}

	if containsAny(s, cartPhrases) {
		set[IntentCartManagement] = true
	}

	if containsAny(s, followUpPhrases) {
		set[IntentFollowUp] = true
	}

	if set[IntentFollowUp] ||
		containsAny(s, searchPhrases) ||
		containsAny(s, detailedRequirementPhrases) ||
		containsAny(s, consultationAnswerPhrases) {
		set[IntentProductSearch] = true
	}

	if len(set) == 0 {
		set[IntentPlainChat] = true
	}
	return set
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

var quantityRe = regexp.MustCompile(`\b(\d{1,3})\b`)

// RequestedQuantity extracts the quantity a purchase message asks for.
// No number in the message means one.
func RequestedQuantity(message string) int {
	m := quantityRe.FindStringSubmatch(message)
	if m == nil {
		return 1
	}
	n := 0
	for _, r := range m[1] {
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 1
	}
	if n > 99 {
		return 99
	}
	return n
}
