package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/caseflow-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps the application error taxonomy to HTTP statuses.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrNotFound:
		status = http.StatusNotFound
	case errors.ErrBadRequest:
		status = http.StatusBadRequest
	case errors.ErrConflict:
		status = http.StatusConflict
	case errors.ErrStorageUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, NewErrorResponse(err.Error()))
}
