package handler

import (
	"errors"
	"net/http"

	"reportflow/internal/workflow"
	"reportflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps workflow sentinel errors to HTTP status codes. Anything
// unrecognized is a 500 with the message passed through.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrEditNotAllowed),
		errors.Is(err, workflow.ErrConcurrencyConflict):
		status = http.StatusConflict
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	return s
}

func currentUserRole(c *gin.Context) string {
	v, _ := c.Get("userRole")
	s, _ := v.(string)
	return s
}

func currentUserDepartment(c *gin.Context) string {
	v, _ := c.Get("userDepartment")
	s, _ := v.(string)
	return s
}
