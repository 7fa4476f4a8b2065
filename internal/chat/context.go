package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/suPer8Hu/shopchat/internal/catalog"
)

const (
	defaultConversationWindow = 15
	purchaseHistoryLimit      = 10
)

// TurnContext is everything assembled ahead of the replica call for one turn.
type TurnContext struct {
	SystemData   string
	Conversation string
	FocusProduct *catalog.ProductRef
	Quantity     int
}

// Assembler gathers, per system-action intent, exactly the authoritative
// facts that intent needs and formats them into prompt blocks. Every block
// ends with an instruction telling the replica how to use the data; the
// user-facing wording is always the replica's to compose.
type Assembler struct {
	store    Storage
	resolver *ProductResolver

	// window is how many recent messages the conversation block carries.
	window int
}

func NewAssembler(store Storage, resolver *ProductResolver, window int) *Assembler {
	if window <= 0 {
		window = defaultConversationWindow
	}
	return &Assembler{store: store, resolver: resolver, window: window}
}

// Assemble builds the turn context. Storage failures while gathering a block
// are logged and degrade to an absent block; they never abort the turn.
func (a *Assembler) Assemble(ctx context.Context, intents IntentSet, userID uint64, sess *Session, message string, isNewChat bool) *TurnContext {
	tc := &TurnContext{Quantity: RequestedQuantity(message)}

	needsFocus := intents.Has(IntentPurchase) || intents.Has(IntentProductHistory)
	if needsFocus {
		focus, err := a.resolver.FocusProduct(ctx, sess.SessionID)
		if err != nil {
			log.Printf("[Assembler] focus product resolve failed session=%s err=%v", sess.SessionID, err)
		} else {
			tc.FocusProduct = focus
		}
	}

	var blocks []string
	if intents.Has(IntentPurchase) {
		blocks = append(blocks, a.purchaseBlock(tc.FocusProduct, tc.Quantity))
	}
	if intents.Has(IntentPurchaseHistory) {
		if b, err := a.historyBlock(ctx, userID); err != nil {
			log.Printf("[Assembler] purchase history fetch failed user=%d err=%v", userID, err)
		} else {
			blocks = append(blocks, b)
		}
	}
	if intents.Has(IntentProductHistory) {
		if b, err := a.productHistoryBlock(ctx, userID, tc.FocusProduct); err != nil {
			log.Printf("[Assembler] product history fetch failed user=%d err=%v", userID, err)
		} else {
			blocks = append(blocks, b)
		}
	}
	if intents.Has(IntentCartManagement) {
		if b, err := a.cartBlock(ctx, userID); err != nil {
			log.Printf("[Assembler] cart fetch failed user=%d err=%v", userID, err)
		} else {
			blocks = append(blocks, b)
		}
	}
	tc.SystemData = strings.Join(blocks, "\n\n")

	if !isNewChat {
		conv, err := a.conversationBlock(ctx, sess.SessionID)
		if err != nil {
			log.Printf("[Assembler] conversation fetch failed session=%s err=%v", sess.SessionID, err)
		} else {
			tc.Conversation = conv
		}
	}

	return tc
}

func (a *Assembler) purchaseBlock(focus *catalog.ProductRef, qty int) string {
	var b strings.Builder
	b.WriteString("[SYSTEM DATA: PURCHASE REQUEST]\n")
	if focus == nil {
		b.WriteString("No product is currently under discussion.\n")
		b.WriteString("Instruction: ask the user to specify which product they want to buy. Do not confirm any purchase.\n")
	} else {
		fmt.Fprintf(&b, "Product under discussion: %s (handle: %s)\n", focus.Title, focus.Handle)
		fmt.Fprintf(&b, "Unit price: %.2f %s\n", focus.Price, focus.Currency)
		fmt.Fprintf(&b, "Requested quantity: %d\n", qty)
		b.WriteString("Instruction: an automatic add-to-cart is available. If you confirm the purchase in your reply, the system will add this product to the user's cart. Confirm naturally, mention the product by name, and say it was added to the cart.\n")
	}
	b.WriteString("[END SYSTEM DATA]")
	return b.String()
}

func (a *Assembler) historyBlock(ctx context.Context, userID uint64) (string, error) {
	records, err := a.store.PurchaseHistory(ctx, userID, purchaseHistoryLimit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[SYSTEM DATA: PURCHASE HISTORY]\n")
	if len(records) == 0 {
		b.WriteString("The user has no purchase history.\n")
		b.WriteString("Instruction: tell the user they have not bought anything yet and offer to help them find something.\n")
	} else {
		for i, r := range records {
			fmt.Fprintf(&b, "%d. %s x%d on %s for %.2f\n",
				i+1, r.ProductName, r.Quantity, r.PurchaseDate.Format("2006-01-02"), r.Total)
		}
		b.WriteString("Instruction: answer the user's question using this purchase list. Do not invent purchases that are not listed.\n")
	}
	b.WriteString("[END SYSTEM DATA]")
	return b.String(), nil
}

func (a *Assembler) productHistoryBlock(ctx context.Context, userID uint64, focus *catalog.ProductRef) (string, error) {
	var b strings.Builder
	b.WriteString("[SYSTEM DATA: PRODUCT PURCHASE HISTORY]\n")

	if focus == nil {
		b.WriteString("No product is currently under discussion.\n")
		b.WriteString("Instruction: ask the user which product they are asking about.\n")
		b.WriteString("[END SYSTEM DATA]")
		return b.String(), nil
	}

	// the name-containment scan must see the whole history, not a page
	records, err := a.store.PurchaseHistory(ctx, userID, -1)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(focus.Title)
	var matched []struct {
		qty  int
		date string
	}
	totalQty := 0
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ProductName), needle) ||
			strings.Contains(needle, strings.ToLower(r.ProductName)) {
			matched = append(matched, struct {
				qty  int
				date string
			}{r.Quantity, r.PurchaseDate.Format("2006-01-02")})
			totalQty += r.Quantity
		}
	}

	fmt.Fprintf(&b, "Product under discussion: %s\n", focus.Title)
	if len(matched) == 0 {
		b.WriteString("The user has never purchased this product.\n")
		b.WriteString("Instruction: tell the user they have not bought this product before.\n")
	} else {
		fmt.Fprintf(&b, "Times purchased: %d\n", len(matched))
		fmt.Fprintf(&b, "Total quantity: %d\n", totalQty)
		fmt.Fprintf(&b, "Last purchase: %s (quantity %d)\n", matched[0].date, matched[0].qty)
		b.WriteString("Instruction: answer the user's question using these figures only.\n")
	}
	b.WriteString("[END SYSTEM DATA]")
	return b.String(), nil
}

func (a *Assembler) cartBlock(ctx context.Context, userID uint64) (string, error) {
	items, err := a.store.CartItems(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[SYSTEM DATA: CART]\n")
	if len(items) == 0 {
		b.WriteString("The user's cart is empty.\n")
		b.WriteString("Instruction: tell the user their cart is empty and offer to help them find something.\n")
	} else {
		total := 0.0
		for i, it := range items {
			fmt.Fprintf(&b, "%d. %s x%d @ %.2f = %.2f\n", i+1, it.ProductName, it.Quantity, it.Price, it.Total)
			total += it.Total
		}
		fmt.Fprintf(&b, "Cart total: %.2f\n", total)
		b.WriteString("Instruction: answer the user's cart question using this list. If the user asked to remove an item, confirm the removal in your reply using a word like \"removed\".\n")
	}
	b.WriteString("[END SYSTEM DATA]")
	return b.String(), nil
}

// conversationBlock formats the last messages of the session, chronological.
// Empty sessions produce no block.
func (a *Assembler) conversationBlock(ctx context.Context, sessionID string) (string, error) {
	msgs, err := a.store.RecentMessages(ctx, sessionID, a.window)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("[CONVERSATION CONTEXT]\n")
	// newest-first from storage; render oldest-first
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		role := "User"
		if m.Role == RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
	}
	b.WriteString("[END CONVERSATION CONTEXT]")
	return b.String(), nil
}
