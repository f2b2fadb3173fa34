package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/middleware"
	apperrors "github.com/okastudio/platewatch/pkg/errors"
)

// currentUserID returns the authenticated caller or an unauthorized error.
func currentUserID(c *gin.Context) (string, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}
