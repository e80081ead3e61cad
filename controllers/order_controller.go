package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
)

// OrderController exposes order operations outside the checkout steps
type OrderController struct {
	manager *checkout.Manager
}

// NewOrderController creates an order controller
func NewOrderController(manager *checkout.Manager) *OrderController {
	return &OrderController{manager: manager}
}

// GetOrderLog handles GET /orders/:id/log
func (ctl *OrderController) GetOrderLog(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	entries, err := ctl.manager.OrderLog(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// GetReceipt handles GET /orders/:id/receipt and returns a time-limited
// download link
func (ctl *OrderController) GetReceipt(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	url, err := ctl.manager.ReceiptURL(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"url": url,
		},
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (ctl *OrderController) CancelOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctl.manager.Cancel(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// FulfillOrder handles POST /orders/:id/fulfill
func (ctl *OrderController) FulfillOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctl.manager.Fulfill(c.Request.Context(), middleware.GetActor(c), orderID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
