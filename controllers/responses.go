package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/workflow"
	"github.com/rs/zerolog"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondCheckoutError maps checkout errors onto HTTP responses. Anything
// not recognized is logged and reported as a 500.
func respondCheckoutError(c *gin.Context, err error) {
	var (
		verr     *checkout.ValidationError
		rejected *workflow.GuardRejectedError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "The submitted values are not valid",
				"fields":  verr.Errors,
			},
		})
	case errors.Is(err, checkout.ErrAccessDenied):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
	case errors.Is(err, checkout.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.Is(err, checkout.ErrStepNotFound):
		respondError(c, http.StatusNotFound, "STEP_NOT_FOUND", "Checkout step not found")
	case errors.Is(err, checkout.ErrVariationNotFound):
		respondError(c, http.StatusNotFound, "VARIATION_NOT_FOUND", "Product variation not found")
	case errors.Is(err, checkout.ErrItemNotFound):
		respondError(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Order item not found in the cart")
	case errors.Is(err, checkout.ErrReceiptNotFound):
		respondError(c, http.StatusNotFound, "RECEIPT_NOT_FOUND", "No receipt has been archived for this order")
	case errors.Is(err, checkout.ErrConflict):
		respondError(c, http.StatusConflict, "CONFLICT", "The order was modified concurrently, please retry")
	case errors.As(err, &rejected):
		respondError(c, http.StatusConflict, "CANNOT_PROCEED", rejected.Reason)
	case errors.Is(err, workflow.ErrInvalidTransition):
		respondError(c, http.StatusConflict, "CANNOT_PROCEED", "The order cannot make this change in its current state")
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Checkout request failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "A valid "+name+" is required")
		return 0, false
	}
	return uint(id), true
}
