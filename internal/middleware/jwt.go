package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookbot/internal/pkg/authz"
	"github.com/xxxsen/bookbot/internal/pkg/errcode"
	"github.com/xxxsen/bookbot/internal/pkg/jwt"
	"github.com/xxxsen/bookbot/internal/pkg/response"
)

const ContextActorIDKey = "actor_id"

func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, errcode.ErrUnauthorized, "missing authorization")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, errcode.ErrUnauthorized, "invalid authorization")
			return
		}
		claims, err := jwt.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			response.Abort(c, errcode.ErrUnauthorized, "invalid token")
			return
		}
		c.Set(ContextActorIDKey, claims.ActorID)
		c.Next()
	}
}

// AdminOnly rejects actors the authorizer does not know. It must run after
// JWTAuth.
func AdminOnly(az authz.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetString(ContextActorIDKey)
		if actorID == "" {
			response.Abort(c, errcode.ErrUnauthorized, "missing actor")
			return
		}
		if az == nil || !az.IsAuthorized(actorID) {
			response.Abort(c, errcode.ErrForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
