package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/okastudio/platewatch/pkg/errors"
	"github.com/okastudio/platewatch/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
func bindAndValidate[T any](c *gin.Context) (*T, error) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, apperrors.NewBadRequest("invalid request body")
	}
	if err := validator.ValidateStruct(&payload); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}
	return &payload, nil
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolQuery(c *gin.Context, key string) bool {
	value, _ := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return value
}
