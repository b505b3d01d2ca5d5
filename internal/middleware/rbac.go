package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/models"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/response"
)

// RequireAdmin restricts a route to staff tokens with one of the given
// roles. With no roles listed, any staff role passes.
func RequireAdmin(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Subject != models.SubjectAdmin {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[claims.Role]; !ok {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireSelfOrAdmin allows a student acting on their own resource (the :id
// route parameter) or any staff token.
func RequireSelfOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Subject == models.SubjectAdmin {
			c.Next()
			return
		}
		if targetID := c.Param("id"); targetID != "" && targetID == claims.AccountID {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

func claimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
