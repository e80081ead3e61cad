package authtest

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, scopes []string) {
	claims := MockValidatedClaims(userID, issuer, scopes)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
}

// MockAuthMiddleware authenticates every request as subject with the scopes
// given. An empty subject leaves the request anonymous.
func MockAuthMiddleware(subject string, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject != "" {
			SetMockAuthContext(c, subject, "https://test.auth0.com/", scopes)
		}
		c.Next()
	}
}

// HeaderAuthMiddleware authenticates requests from the X-Test-Subject and
// X-Test-Scopes headers, so one router can serve several actors
func HeaderAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject := c.GetHeader("X-Test-Subject"); subject != "" {
			SetMockAuthContext(c, subject, "https://test.auth0.com/", strings.Fields(c.GetHeader("X-Test-Scopes")))
		}
		c.Next()
	}
}
