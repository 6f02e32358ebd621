package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/caseflow-api/internal/handler"
	"github.com/caseflow/caseflow-api/internal/service/activity"
)

const defaultLimit = 20

type Handler struct {
	service *activity.Service
}

func NewHandler(service *activity.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/activity", h.ListActivity)
}

func (h *Handler) ListActivity(c *gin.Context) {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
			return
		}
		limit = n
	}

	entries, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}
