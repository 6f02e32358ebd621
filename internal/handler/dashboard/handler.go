package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/caseflow/caseflow-api/internal/handler"
	"github.com/caseflow/caseflow-api/internal/model"
	"github.com/caseflow/caseflow-api/internal/repository"
)

const statsCacheKey = "dashboard_stats"

// Handler serves the dashboard counters behind a short-lived cache so a
// busy dashboard does not hammer the store.
type Handler struct {
	patients repository.PatientRepository
	tasks    repository.TaskRepository
	cache    *gocache.Cache
}

func NewHandler(patients repository.PatientRepository, tasks repository.TaskRepository, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Handler{
		patients: patients,
		tasks:    tasks,
		cache:    gocache.New(ttl, 10*ttl),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/stats", h.GetStats)
}

func (h *Handler) GetStats(c *gin.Context) {
	if cached, ok := h.cache.Get(statsCacheKey); ok {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(cached))
		return
	}

	ctx := c.Request.Context()
	total, err := h.patients.Count(ctx)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	pending, err := h.tasks.CountByStatus(ctx, model.TaskStatusPending)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	completed, err := h.tasks.CountByStatus(ctx, model.TaskStatusCompleted)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	stats := &model.DashboardStats{
		TotalPatients:  total,
		PendingTasks:   pending,
		CompletedTasks: completed,
	}
	h.cache.Set(statsCacheKey, stats, gocache.DefaultExpiration)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
