package applications

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/server/respond"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes the tracker endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler and registers the tracker's validation
// tags with gin's binding validator.
func NewHandler(svc *Service) *Handler {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidators(v)
	}
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/applications", h.list)
	rg.POST("/applications", h.add)
	rg.GET("/applications/stats", h.stats)
	rg.GET("/applications/export.xlsx", h.export)
	rg.GET("/applications/:id", h.get)
	rg.PATCH("/applications/:id", h.updateStatus)
	rg.DELETE("/applications/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	apps, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"applications": apps})
}

func (h *Handler) add(c *gin.Context) {
	var req NewApplication
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	app, err := h.Svc.Add(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, app)
}

func (h *Handler) get(c *gin.Context) {
	app, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, app)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,application_status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status must be one of "+strings.Join(Statuses, ", "), nil)
		return
	}
	app, err := h.Svc.UpdateStatus(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, app)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, st)
}

func (h *Handler) export(c *gin.Context) {
	data, filename, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
