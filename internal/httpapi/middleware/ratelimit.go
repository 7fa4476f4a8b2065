package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/shopchat/internal/common"
	"github.com/suPer8Hu/shopchat/internal/store/redisstore"
)

// ChatRateLimit caps chat sends per user per minute. Redis failures fail
// open: the chat turn is more important than the limiter.
func ChatRateLimit(rds *redisstore.Store, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(UserIDKey)
		if !ok {
			c.Next()
			return
		}
		uid, ok := v.(uint64)
		if !ok {
			c.Next()
			return
		}

		allowed, err := rds.AllowChatSend(c.Request.Context(), uid, perMinute, time.Minute)
		if err != nil {
			log.Printf("[ChatRateLimit] redis error user=%d err=%v", uid, err)
			c.Next()
			return
		}
		if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42901, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
