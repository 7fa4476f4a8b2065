package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/common"
	"github.com/suPer8Hu/shopchat/internal/config"
	"github.com/suPer8Hu/shopchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/shopchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/shopchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/shopchat/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) (*gin.Engine, error) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.Default())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h, err := handlers.NewHandler(db, cfg, rds, rabbit)
	if err != nil {
		return nil, err
	}

	r.GET("/ping", h.Ping)

	// users
	r.POST("/users", h.CreateUser)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	// chat (JWT required; sends are rate limited)
	chatSend := authGroup.Group("/")
	chatSend.Use(middleware.ChatRateLimit(rds, cfg.ChatRatePerMinute))
	chatSend.POST("/chat/messages", h.SendChatMessage)
	chatSend.POST("/chat/messages/async", h.SendChatMessageAsync)

	authGroup.GET("/chat/sessions", h.ListChatSessions)
	authGroup.GET("/chat/sessions/:session_id/messages", h.ListChatMessages)
	authGroup.GET("/chat/jobs/:job_id", h.GetChatJob)

	// cart + purchases
	authGroup.GET("/cart", h.GetCart)
	authGroup.POST("/cart/items", h.AddCartItem)
	authGroup.PUT("/cart/items/:item_id", h.UpdateCartItem)
	authGroup.DELETE("/cart/items/:item_id", h.DeleteCartItem)
	authGroup.DELETE("/cart", h.ClearCart)
	authGroup.POST("/checkout", h.Checkout)
	authGroup.GET("/purchases", h.GetPurchaseHistory)

	return r, nil
}
