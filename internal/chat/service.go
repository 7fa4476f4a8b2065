package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/ai"
	"github.com/suPer8Hu/shopchat/internal/catalog"
)

var ErrEmptyMessage = errors.New("chat: message is empty")

// UserError wraps a pipeline failure with wording that is safe to show to
// the end user.
type UserError struct {
	UserMessage string
	Err         error
}

func (e *UserError) Error() string { return e.Err.Error() }
func (e *UserError) Unwrap() error { return e.Err }

func apologyFor(err error) string {
	switch {
	case errors.Is(err, ai.ErrTimeout):
		return "Sorry, the assistant took too long to respond. Please try again in a moment."
	case errors.Is(err, ai.ErrUnauthorized):
		return "Sorry, something went wrong with your session. Please try logging out and back in."
	case errors.Is(err, ai.ErrRateLimited):
		return "You're sending messages too quickly. Please wait a moment and try again."
	default:
		return "Sorry, I couldn't reach the assistant right now. Please try again."
	}
}

type SessionResolutionPolicy int

const (
	RequireNew SessionResolutionPolicy = iota
	RequireExact
	FallbackToLatestOrCreate
)

// PolicyFor maps the request's (isNewChat, sessionID) pair to a resolution
// policy.
func PolicyFor(isNewChat bool, sessionID string) SessionResolutionPolicy {
	switch {
	case isNewChat:
		return RequireNew
	case sessionID != "":
		return RequireExact
	default:
		return FallbackToLatestOrCreate
	}
}

// Result is the payload of one completed chat turn.
type Result struct {
	Message            string
	SessionID          string
	Timestamp          time.Time
	IsNewSession       bool
	Products           []catalog.ProductRef
	AssistantMessageID uint64
}

// Service orchestrates one chat turn: resolve session, classify, assemble
// context, call the replica, interpret the reply, apply any cart mutation,
// persist both turns.
type Service struct {
	store     Storage
	catalog   catalog.Searcher
	replica   ai.Provider
	resolver  *ProductResolver
	assembler *Assembler

	// Interp decides whether the reply committed to a cart mutation.
	// Swappable; defaults to the lexical matcher.
	Interp Interpreter

	searchLimit int
}

func NewService(store Storage, cat catalog.Searcher, replica ai.Provider, searchLimit, contextWindow int) *Service {
	if searchLimit <= 0 || searchLimit > 20 {
		searchLimit = 5
	}
	resolver := NewProductResolver(store)
	return &Service{
		store:       store,
		catalog:     cat,
		replica:     replica,
		resolver:    resolver,
		assembler:   NewAssembler(store, resolver, contextWindow),
		Interp:      LexicalInterpreter{},
		searchLimit: searchLimit,
	}
}

func (s *Service) HandleChatMessage(ctx context.Context, userID uint64, message string, isNewChat bool, sessionID string) (*Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	// 1) resolve the session
	sess, isNew, err := s.resolveSession(ctx, userID, PolicyFor(isNewChat, sessionID), sessionID)
	if err != nil {
		return nil, err
	}

	// 2) classify + assemble context
	intents := Classify(message)
	tc := s.assembler.Assemble(ctx, intents, userID, sess, message, isNew)

	// 3) product search (non-fatal enrichment)
	var products []catalog.ProductRef
	if intents.Has(IntentProductSearch) {
		products = s.searchProducts(ctx, intents, sess, tc, message)
	}

	// 4) call the replica
	prompt := buildPrompt(tc, products, message)
	reply, err := s.replica.Chat(ctx, externalUserID(userID), prompt)
	if err != nil {
		return nil, &UserError{UserMessage: apologyFor(err), Err: err}
	}

	// 5) interpret the reply, apply any cart mutation
	action := s.Interp.Interpret(intents, reply.Content, tc.FocusProduct, tc.Quantity)
	s.applyAction(ctx, userID, action)

	// 6) persist both turns; write failures are logged, not surfaced
	assistantID := s.persistTurn(ctx, userID, sess, message, reply, products)

	return &Result{
		Message:            reply.Content,
		SessionID:          sess.SessionID,
		Timestamp:          time.Now().UTC(),
		IsNewSession:       isNew,
		Products:           products,
		AssistantMessageID: assistantID,
	}, nil
}

func (s *Service) resolveSession(ctx context.Context, userID uint64, policy SessionResolutionPolicy, sessionID string) (*Session, bool, error) {
	switch policy {
	case RequireNew:
		sess, err := s.store.CreateSession(ctx, userID)
		return sess, true, err

	case RequireExact:
		sess, err := s.store.FindSession(ctx, userID, sessionID)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		// stale client state self-heals into a fresh session
		sess, err = s.store.CreateSession(ctx, userID)
		return sess, true, err

	default: // FallbackToLatestOrCreate
		sess, err := s.store.LatestSession(ctx, userID)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		sess, err = s.store.CreateSession(ctx, userID)
		return sess, true, err
	}
}

// searchProducts queries the catalog with the raw message, disambiguating
// follow-up messages ("show me more") with the product currently in focus.
// Catalog failure degrades to an empty result.
func (s *Service) searchProducts(ctx context.Context, intents IntentSet, sess *Session, tc *TurnContext, message string) []catalog.ProductRef {
	query := message
	if intents.Has(IntentFollowUp) {
		focus := tc.FocusProduct
		if focus == nil {
			f, err := s.resolver.FocusProduct(ctx, sess.SessionID)
			if err != nil {
				log.Printf("[Service] follow-up focus resolve failed session=%s err=%v", sess.SessionID, err)
			} else {
				focus = f
			}
		}
		if focus != nil {
			query = focus.Title + " " + message
		}
	}

	products, err := s.catalog.Search(ctx, query, s.searchLimit)
	if err != nil {
		log.Printf("[Service] catalog search failed query=%q err=%v", query, err)
		return nil
	}
	return products
}

func (s *Service) applyAction(ctx context.Context, userID uint64, action Action) {
	switch action.Kind {
	case ActionAddToCart:
		if _, err := s.store.UpsertCartItem(ctx, userID, *action.Product, action.Quantity); err != nil {
			log.Printf("[Service] add to cart failed user=%d product=%s err=%v", userID, action.Product.ID, err)
		}
	case ActionRemoveNewestCartItem:
		if _, err := s.store.RemoveNewestCartItem(ctx, userID); err != nil {
			log.Printf("[Service] remove cart item failed user=%d err=%v", userID, err)
		}
	}
}

func (s *Service) persistTurn(ctx context.Context, userID uint64, sess *Session, message string, reply *ai.Reply, products []catalog.ProductRef) uint64 {
	userMsg := &Message{
		SessionID:    sess.SessionID,
		UserID:       userID,
		Role:         RoleUser,
		Content:      message,
		DetectedLink: detectLink(message),
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		log.Printf("[Service] persist user message failed session=%s err=%v", sess.SessionID, err)
	}

	assistantMsg := &Message{
		SessionID: sess.SessionID,
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   reply.Content,
		Products:  products,
	}
	if len(reply.Raw) > 0 {
		raw := string(reply.Raw)
		assistantMsg.RawAIResponse = &raw
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		log.Printf("[Service] persist assistant message failed session=%s err=%v", sess.SessionID, err)
	}

	if err := s.store.TouchSession(ctx, sess.SessionID); err != nil {
		log.Printf("[Service] touch session failed session=%s err=%v", sess.SessionID, err)
	}
	return assistantMsg.ID
}

// buildPrompt lays out the augmented prompt: system data first, then the
// product results, then conversation context, then the raw message.
func buildPrompt(tc *TurnContext, products []catalog.ProductRef, message string) string {
	var b strings.Builder
	if tc.SystemData != "" {
		b.WriteString(tc.SystemData)
		b.WriteString("\n\n")
	}
	if len(products) > 0 {
		b.WriteString("[PRODUCT RESULTS]\n")
		for i, p := range products {
			fmt.Fprintf(&b, "%d. %s - %.2f %s\n", i+1, p.Title, p.Price, p.Currency)
		}
		b.WriteString("Instruction: present these products to the user naturally, by name. Do not list products that are not shown here.\n")
		b.WriteString("[END PRODUCT RESULTS]\n\n")
	}
	if tc.Conversation != "" {
		b.WriteString(tc.Conversation)
		b.WriteString("\n\n")
	}
	b.WriteString("User message: ")
	b.WriteString(message)
	return b.String()
}

func externalUserID(userID uint64) string {
	return fmt.Sprintf("user-%d", userID)
}

var linkRe = regexp.MustCompile(`https?://[^\s]+`)

func detectLink(message string) *string {
	m := linkRe.FindString(message)
	if m == "" {
		return nil
	}
	return &m
}
