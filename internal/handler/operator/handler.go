package operator

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/caseflow-api/internal/handler"
	"github.com/caseflow/caseflow-api/internal/registry"
)

// Handler exposes the static operator directory (credential hashes are
// never serialized) so clients can populate operator pickers.
type Handler struct {
	directory *registry.OperatorDirectory
}

func NewHandler(directory *registry.OperatorDirectory) *Handler {
	return &Handler{directory: directory}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/operators", h.ListOperators)
}

func (h *Handler) ListOperators(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.directory.List()))
}
