package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/service"
	"pulse-server/internal/store"
	"pulse-server/internal/utils"
)

const dateLayout = "2006-01-02"

// respondError maps service and store errors onto the response envelope.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error, notFound, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.NotFound(c, notFound)
	case errors.Is(err, service.ErrValidation):
		utils.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		log.Error(action+" failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.InternalServerError(c, "Failed to "+action)
	}
}

// parseDate reads an optional YYYY-MM-DD value as a UTC day.
func parseDate(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
