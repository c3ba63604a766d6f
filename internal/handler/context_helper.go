package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/middleware"
	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

// currentPrincipal returns the caller or writes 401 and returns nil.
func currentPrincipal(c *gin.Context) *models.Principal {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return principal
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func param(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}

// currentPrincipalOrNil is used by routes that also serve anonymous callers.
func currentPrincipalOrNil(c *gin.Context) *models.Principal {
	return middleware.PrincipalFrom(c)
}
