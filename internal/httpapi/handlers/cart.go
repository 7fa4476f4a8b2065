package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/cart"
	"github.com/suPer8Hu/shopchat/internal/catalog"
	"github.com/suPer8Hu/shopchat/internal/common"
)

func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	items, err := h.CartRepo.CartItems(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to load cart")
		return
	}

	total := 0.0
	for _, it := range items {
		total += it.Total
	}
	common.OK(c, gin.H{"items": items, "total": total})
}

type addCartItemReq struct {
	Product  catalog.ProductRef `json:"product" binding:"required"`
	Quantity int                `json:"quantity"`
}

func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Product.ID == "" || req.Product.Title == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "product id and title required")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	item, err := h.CartRepo.UpsertCartItem(c.Request.Context(), uid, req.Product, req.Quantity)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to add to cart")
		return
	}
	common.OK(c, gin.H{"item": item})
}

type setQuantityReq struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid item id")
		return
	}

	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	item, err := h.CartRepo.SetQuantity(c.Request.Context(), uid, itemID, req.Quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "cart item not found")
			return
		}
		common.Fail(c, http.StatusBadRequest, 10004, "failed to update quantity")
		return
	}
	common.OK(c, gin.H{"item": item})
}

func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid item id")
		return
	}

	if err := h.CartRepo.DeleteCartItem(c.Request.Context(), uid, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "cart item not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to delete cart item")
		return
	}
	common.OK(c, gin.H{"deleted": itemID})
}

func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.CartRepo.ClearCart(c.Request.Context(), uid); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to clear cart")
		return
	}
	common.OK(c, gin.H{"cleared": true})
}

func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	orderID, purchases, err := h.CartRepo.Checkout(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			common.Fail(c, http.StatusBadRequest, 10005, "cart is empty")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "checkout failed")
		return
	}

	total := 0.0
	for _, p := range purchases {
		total += p.Total
	}
	common.OK(c, gin.H{
		"order_id":  orderID,
		"purchases": purchases,
		"total":     total,
	})
}

func (h *Handler) GetPurchaseHistory(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	purchases, err := h.CartRepo.PurchaseHistory(c.Request.Context(), uid, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to load purchase history")
		return
	}
	common.OK(c, gin.H{"purchases": purchases})
}
