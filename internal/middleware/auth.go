package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/logger"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated principal.
const ContextPrincipalKey = "principal"

// TokenValidator resolves a bearer token to a live principal.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*models.Principal, error)
}

// Authenticate attaches the principal when an Authorization header is sent.
// Requests without the header continue anonymously; a malformed or invalid
// token is rejected even on public routes.
func Authenticate(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		principal, err := validator.Validate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.PrincipalKey, string(principal.Role)+":"+principal.Email)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal or nil.
func PrincipalFrom(c *gin.Context) *models.Principal {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}
