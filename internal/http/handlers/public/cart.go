package public

import (
	"strconv"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest cart line request
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

func (h *Handler) requireCartService(c *gin.Context) bool {
	if h.CartService == nil {
		respondError(c, response.CodeInternal, "cart unavailable", service.ErrCartStoreUnavailable)
		return false
	}
	return true
}

// GetCart returns the priced snapshot of the caller's cart
func (h *Handler) GetCart(c *gin.Context) {
	if !h.requireCartService(c) {
		return
	}
	key, ok := cartKeyForRequest(c)
	if !ok {
		return
	}

	snapshot, err := h.CartService.Snapshot(c.Request.Context(), key)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// AddCartItem adds quantity to a cart line, creating it when absent
func (h *Handler) AddCartItem(c *gin.Context) {
	if !h.requireCartService(c) {
		return
	}
	key, ok := cartKeyForRequest(c)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	quantity, err := h.CartService.AddItem(c.Request.Context(), key, req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": req.ProductID, "quantity": quantity})
}

// UpdateCartItem sets a cart line to an absolute quantity; zero or
// negative removes the line
func (h *Handler) UpdateCartItem(c *gin.Context) {
	if !h.requireCartService(c) {
		return
	}
	key, ok := cartKeyForRequest(c)
	if !ok {
		return
	}

	productID, perr := parseProductIDParam(c)
	if perr != nil {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.CartService.UpdateItem(c.Request.Context(), key, productID, req.Quantity); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem removes a cart line
func (h *Handler) DeleteCartItem(c *gin.Context) {
	if !h.requireCartService(c) {
		return
	}
	key, ok := cartKeyForRequest(c)
	if !ok {
		return
	}

	productID, perr := parseProductIDParam(c)
	if perr != nil {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	if err := h.CartService.RemoveItem(c.Request.Context(), key, productID); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart drops the caller's whole cart
func (h *Handler) ClearCart(c *gin.Context) {
	if !h.requireCartService(c) {
		return
	}
	key, ok := cartKeyForRequest(c)
	if !ok {
		return
	}

	if err := h.CartService.Clear(c.Request.Context(), key); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

func parseProductIDParam(c *gin.Context) (uint, error) {
	raw := c.Param("product_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
