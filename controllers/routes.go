package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
)

// RegisterShopRoutes mounts the checkout, cart and order endpoints. The
// group must already resolve the actor of each request.
func RegisterShopRoutes(r gin.IRouter, manager *checkout.Manager) {
	checkoutController := NewCheckoutController(manager)
	cartController := NewCartController(manager)
	orderController := NewOrderController(manager)

	r.GET("/checkout/:order_id", checkoutController.ShowStep)
	r.GET("/checkout/:order_id/:step", checkoutController.ShowStep)
	r.POST("/checkout/:order_id/:step", checkoutController.SubmitStep)

	r.GET("/cart", cartController.GetCart)
	r.POST("/cart/items", cartController.AddItem)
	r.DELETE("/cart/items/:item_id", cartController.RemoveItem)

	r.GET("/orders/:id/log", orderController.GetOrderLog)
	r.GET("/orders/:id/receipt", orderController.GetReceipt)
	r.POST("/orders/:id/cancel", orderController.CancelOrder)
	r.POST("/orders/:id/fulfill", middleware.RequireScope(checkout.ScopeAdministerOrder), orderController.FulfillOrder)
}
