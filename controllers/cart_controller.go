package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
)

// AddToCartRequest represents the request body for adding an item to the cart
type AddToCartRequest struct {
	VariationID uint `json:"variation_id" binding:"required"`
	Quantity    int  `json:"quantity" binding:"required,gt=0"`
}

// CartController manages the actor's open cart
type CartController struct {
	manager *checkout.Manager
}

// NewCartController creates a cart controller
func NewCartController(manager *checkout.Manager) *CartController {
	return &CartController{manager: manager}
}

// GetCart handles GET /cart
func (ctl *CartController) GetCart(c *gin.Context) {
	order, err := ctl.manager.CurrentCart(c.Request.Context(), middleware.GetActor(c))
	if errors.Is(err, checkout.ErrOrderNotFound) {
		respondError(c, http.StatusNotFound, "CART_EMPTY", "There is no open cart")
		return
	}
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AddItem handles POST /cart/items
func (ctl *CartController) AddItem(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := ctl.manager.AddToCart(c.Request.Context(), middleware.GetActor(c), req.VariationID, req.Quantity)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// RemoveItem handles DELETE /cart/items/:item_id
func (ctl *CartController) RemoveItem(c *gin.Context) {
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	order, err := ctl.manager.RemoveFromCart(c.Request.Context(), middleware.GetActor(c), itemID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
