package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/ai"
	"github.com/suPer8Hu/shopchat/internal/cart"
	"github.com/suPer8Hu/shopchat/internal/catalog"
	"github.com/suPer8Hu/shopchat/internal/chat"
	"github.com/suPer8Hu/shopchat/internal/httpapi/middleware"
)

type stubReplica struct {
	reply string
	err   error
}

func (p *stubReplica) Chat(ctx context.Context, externalUserID string, prompt string) (*ai.Reply, error) {
	_ = ctx
	_ = externalUserID
	_ = prompt
	if p.err != nil {
		return nil, p.err
	}
	return &ai.Reply{Content: p.reply}, nil
}

type stubCatalog struct {
	products []catalog.ProductRef
}

func (c *stubCatalog) Search(ctx context.Context, query string, limit int) ([]catalog.ProductRef, error) {
	_ = ctx
	_ = query
	_ = limit
	return c.products, nil
}

func newTestRouter(t *testing.T, replica *stubReplica, cat *stubCatalog) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&chat.Session{}, &chat.Message{}, &chat.Job{}, &cart.Item{}, &cart.Purchase{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	chatRepo := chat.NewRepo(db)
	cartRepo := cart.NewRepo(db)
	store := chat.NewStore(chatRepo, cartRepo)
	h := &Handler{
		DB:       db,
		ChatSvc:  chat.NewService(store, cat, replica, 5, 15),
		ChatRepo: chatRepo,
		CartRepo: cartRepo,
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uint64(1))
		c.Next()
	})
	r.POST("/api/chat/messages", h.SendChatMessage)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendChatMessage_ResponseShape(t *testing.T) {
	r := newTestRouter(t, &stubReplica{reply: "hello there"}, &stubCatalog{})

	w := postJSON(t, r, "/api/chat/messages", gin.H{"message": "hi", "isNewChat": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"success", "message", "sessionId", "timestamp", "isNewSession"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("missing key %q in %s", key, w.Body.String())
		}
	}
	if _, ok := body["shopifyProducts"]; ok {
		t.Fatalf("shopifyProducts must be omitted when no products were found: %s", w.Body.String())
	}

	var ts string
	if err := json.Unmarshal(body["timestamp"], &ts); err != nil {
		t.Fatalf("timestamp: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", ts, err)
	}
}

func TestSendChatMessage_IncludesProducts(t *testing.T) {
	cat := &stubCatalog{products: []catalog.ProductRef{
		{ID: "p1", Handle: "tee", Title: "Tee", Price: 20, Currency: "USD"},
	}}
	r := newTestRouter(t, &stubReplica{reply: "here are some shirts"}, cat)

	w := postJSON(t, r, "/api/chat/messages", gin.H{"message": "show me shirts", "isNewChat": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var body struct {
		Success         bool                 `json:"success"`
		ShopifyProducts []catalog.ProductRef `json:"shopifyProducts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || len(body.ShopifyProducts) != 1 || body.ShopifyProducts[0].Title != "Tee" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestSendChatMessage_BlankMessageRejected(t *testing.T) {
	r := newTestRouter(t, &stubReplica{reply: "unused"}, &stubCatalog{})

	w := postJSON(t, r, "/api/chat/messages", gin.H{"message": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("expected success:false, got %s", w.Body.String())
	}
}

func TestSendChatMessage_ReplicaFailureIsBadGateway(t *testing.T) {
	replica := &stubReplica{err: fmt.Errorf("%w: deadline exceeded", ai.ErrTimeout)}
	r := newTestRouter(t, replica, &stubCatalog{})

	w := postJSON(t, r, "/api/chat/messages", gin.H{"message": "hi", "isNewChat": true})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "took too long") {
		t.Fatalf("expected the timeout apology, got %s", w.Body.String())
	}
}
