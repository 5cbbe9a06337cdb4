package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simplysydnee/icanswimbeta-sub004/internal/middleware"
	"github.com/simplysydnee/icanswimbeta-sub004/internal/models"
	appErrors "github.com/simplysydnee/icanswimbeta-sub004/pkg/errors"
	"github.com/simplysydnee/icanswimbeta-sub004/pkg/response"
)

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.ActorFromContext(c)
}

// bindJSON decodes the body into dest and writes a validation error when it cannot.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func bulkMeta(succeeded, failed int) map[string]interface{} {
	return map[string]interface{}{"succeeded": succeeded, "failed": failed}
}
