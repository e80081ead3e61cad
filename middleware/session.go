package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionTokenKey = "session_token"

// sessionMaxAge keeps the guest session cookie for 30 days
const sessionMaxAge = 30 * 24 * 60 * 60

// GuestSession gives every visitor a session token, kept in a cookie, that
// identifies the anonymous orders they may check out
func GuestSession(cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(token) != nil {
			token = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, token, sessionMaxAge, "/", "", secure, true)
		}

		c.Set(sessionTokenKey, token)
		c.Next()
	}
}

// GetSessionToken returns the guest session token of the request
func GetSessionToken(c *gin.Context) string {
	return c.GetString(sessionTokenKey)
}
