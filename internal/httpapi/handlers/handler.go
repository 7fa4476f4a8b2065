package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/ai"
	"github.com/suPer8Hu/shopchat/internal/cart"
	"github.com/suPer8Hu/shopchat/internal/catalog"
	"github.com/suPer8Hu/shopchat/internal/chat"
	"github.com/suPer8Hu/shopchat/internal/config"
	"github.com/suPer8Hu/shopchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/shopchat/internal/store/redisstore"
)

type Handler struct {
	DB       *gorm.DB
	Cfg      config.Config
	Redis    *redisstore.Store
	Rabbit   *rabbitmq.Publisher
	ChatSvc  *chat.Service
	ChatRepo *chat.Repo
	CartRepo *cart.Repo
}

// NewProviderRegistry wires the configured replica backends.
func NewProviderRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("sensay", func(ctx context.Context) (ai.Provider, error) {
		_ = ctx
		return ai.NewSensayProvider(cfg.SensayBaseURL, cfg.SensayAPIKey, cfg.SensayReplicaUUID), nil
	})
	reg.Register("ollama", func(ctx context.Context) (ai.Provider, error) {
		_ = ctx
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	})
	return reg
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) (*Handler, error) {
	chatRepo := chat.NewRepo(db)
	cartRepo := cart.NewRepo(db)
	store := chat.NewStore(chatRepo, cartRepo)

	reg := NewProviderRegistry(cfg)
	provider, err := reg.Get(context.Background(), strings.TrimSpace(cfg.AIProvider))
	if err != nil {
		return nil, fmt.Errorf("ai provider: %w", err)
	}

	var searcher catalog.Searcher = catalog.NewShopifyClient(cfg.ShopifyDomain, cfg.ShopifyToken, cfg.ShopifyAPIVersion)
	if rds != nil {
		searcher = catalog.NewCachedSearcher(searcher, rds, time.Duration(cfg.CatalogCacheTTLSec)*time.Second)
	}

	chatSvc := chat.NewService(store, searcher, provider, cfg.ProductSearchLimit, cfg.ChatContextWindowSize)

	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Redis:    rds,
		Rabbit:   rabbit,
		ChatSvc:  chatSvc,
		ChatRepo: chatRepo,
		CartRepo: cartRepo,
	}, nil
}
