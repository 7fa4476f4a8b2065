package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/shopchat/internal/common"
)

func (h *Handler) Ping(c *gin.Context) {
	status := gin.H{"db": "ok", "redis": "ok"}

	sqlDB, err := h.DB.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["db"] = "down"
	}
	if h.Redis == nil || h.Redis.Ping(c.Request.Context()) != nil {
		status["redis"] = "down"
	}

	if status["db"] != "ok" {
		common.Fail(c, http.StatusServiceUnavailable, 50300, "unhealthy")
		return
	}
	common.OK(c, status)
}
