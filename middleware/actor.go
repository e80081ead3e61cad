package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/checkout-flow-api/checkout"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const actorKey = "checkout_actor"

// SubjectLookup finds the account provisioned for a JWT subject
type SubjectLookup interface {
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
}

// ResolveActor turns the validated token and guest session of a request
// into a checkout.Actor. A token whose subject has no account yet leaves
// the actor anonymous until the account is created.
func ResolveActor(accounts SubjectLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := checkout.Actor{SessionToken: GetSessionToken(c)}

		if subject, err := GetUserID(c); err == nil {
			user, err := accounts.FindBySubject(c.Request.Context(), subject)
			switch {
			case err == nil:
				actor.UserID = user.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				zerolog.Ctx(c.Request.Context()).Debug().Str("subject", subject).Msg("No account provisioned for subject")
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "DATABASE_ERROR",
						"message": "Failed to load user account",
					},
				})
				c.Abort()
				return
			}

			if claims, err := GetCustomClaims(c); err == nil {
				actor.Scopes = claims.Scopes()
			}
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// GetActor returns the actor resolved for the request. Requests that did
// not pass through ResolveActor are anonymous.
func GetActor(c *gin.Context) checkout.Actor {
	if actor, ok := c.Get(actorKey); ok {
		if a, ok := actor.(checkout.Actor); ok {
			return a
		}
	}
	return checkout.Actor{SessionToken: GetSessionToken(c)}
}
