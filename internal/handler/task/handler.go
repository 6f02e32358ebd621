package task

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caseflow/caseflow-api/internal/handler"
	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/service/task"
	"github.com/caseflow/caseflow-api/internal/service/verification"
)

type Handler struct {
	service  *task.Service
	verifier *verification.Service
}

func NewHandler(service *task.Service, verifier *verification.Service) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tasks := r.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.GET("/:id", h.GetTask)
		tasks.POST("/:id/completion", h.CompleteTask)
	}
}

func (h *Handler) ListTasks(c *gin.Context) {
	filters := &model.TaskFilters{}
	if t := c.Query("type"); t != "" {
		tt := model.TaskType(t)
		if !tt.Valid() {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task type"))
			return
		}
		filters.Type = &tt
	}
	if s := c.Query("status"); s != "" {
		ts := model.TaskStatus(s)
		filters.Status = &ts
	}

	tasks, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tasks))
}

func (h *Handler) GetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(t))
}

// CompleteTask runs the verification engine. A rejected verification is
// not an HTTP error path in the usual sense: the reasons come back as
// data so the operator can correct every problem in one round-trip.
func (h *Handler) CompleteTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	var req model.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	req.TaskID = id

	result, err := h.verifier.Complete(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if !result.Verified {
		c.JSON(http.StatusUnprocessableEntity, &handler.Response{
			Status:  "rejected",
			Message: "verification failed",
			Data:    result,
		})
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
