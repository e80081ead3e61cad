package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
)

// CheckoutController serves the checkout steps of an order
type CheckoutController struct {
	manager *checkout.Manager
}

// NewCheckoutController creates a checkout controller
func NewCheckoutController(manager *checkout.Manager) *CheckoutController {
	return &CheckoutController{manager: manager}
}

// ShowStep handles GET /checkout/:order_id and GET /checkout/:order_id/:step
func (ctl *CheckoutController) ShowStep(c *gin.Context) {
	orderID, ok := parseID(c, "order_id")
	if !ok {
		return
	}

	outcome, err := ctl.manager.View(c.Request.Context(), middleware.GetActor(c), orderID, c.Param("step"))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	if outcome.Redirect != "" {
		redirectToStep(c, orderID, outcome)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    outcome.View,
	})
}

// SubmitStep handles POST /checkout/:order_id/:step. Values are read from a
// form body keyed "{pane}.{field}", or from a flat JSON object.
func (ctl *CheckoutController) SubmitStep(c *gin.Context) {
	orderID, ok := parseID(c, "order_id")
	if !ok {
		return
	}

	values, err := submittedValues(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Could not read the submitted values")
		return
	}

	outcome, err := ctl.manager.Submit(c.Request.Context(), middleware.GetActor(c), orderID, c.Param("step"), values)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	redirectToStep(c, orderID, outcome)
}

func submittedValues(c *gin.Context) (checkout.Values, error) {
	values := checkout.Values{}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if c.Request.ContentLength == 0 {
			return values, nil
		}
		err := c.ShouldBindJSON(&values)
		return values, err
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for key, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			values[key] = vs[0]
		}
	}
	return values, nil
}

func redirectToStep(c *gin.Context, orderID uint, outcome *checkout.Outcome) {
	location := fmt.Sprintf("/checkout/%d/%s", orderID, outcome.Redirect)
	c.Header("Location", location)
	c.JSON(http.StatusFound, gin.H{
		"success": true,
		"data": gin.H{
			"redirect": location,
			"step":     outcome.Redirect,
			"replayed": outcome.Replayed,
		},
	})
}
