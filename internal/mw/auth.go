package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
)

const actorKey = "actor"

// UserResolver loads the current state of an authenticated user.
type UserResolver interface {
	Lookup(ctx context.Context, userID string) (model.User, error)
}

// ActorFrom returns the authenticated actor of the request.
func ActorFrom(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}

// RequireAuth validates the bearer token and stores the actor in the context.
// The role is read from the directory, not the token, so a changed or removed
// user takes effect immediately.
func RequireAuth(tokens *identity.TokenManager, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthenticated(c, identity.ErrMissingToken)
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortUnauthenticated(c, identity.ErrInvalidToken)
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			abortUnauthenticated(c, err)
			return
		}

		user, err := users.Lookup(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				abortUnauthenticated(c, identity.ErrInvalidToken)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(actorKey, identity.ActorOf(user))
		c.Next()
	}
}

// Require rejects requests whose actor lacks capability cap.
func Require(cap identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abortUnauthenticated(c, identity.ErrMissingToken)
			return
		}
		if !actor.Can(cap) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": model.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}
