package api

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SuccessResponse envelopes handler output the way the teacher's
// helpers.go does, so every 2xx body has the same {"data": ...} shape.
type SuccessResponse struct {
	Data any `json:"data"`
}

func respondJSON(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	respondAPIError(c, NewAPIError("ERROR", message, status))
}

func respondAPIError(c *gin.Context, err *APIError) {
	if err == nil {
		err = ErrInternalServer
	}
	c.AbortWithStatusJSON(err.HTTPStatus, err)
}

// bindJSON decodes the request body into obj, translating validator field
// errors into a single human-readable APIError the way the teacher's
// bindJSON does for its request DTOs.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
			respondAPIError(c, NewAPIError("VALIDATION_FAILED", msg, 400))
			return err
		}
		respondAPIError(c, ErrInvalidJSON)
		return err
	}
	return nil
}

func getParam(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		respondAPIError(c, ErrMissingParameter)
		return "", false
	}
	return value, true
}

func getQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
