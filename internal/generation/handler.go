package generation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/server/respond"
)

// Handler exposes document generation endpoints.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/generate", h.generate)
	rg.POST("/documents", h.save)
	rg.GET("/documents", h.latest)
	rg.POST("/documents/apply", h.apply)
}

type generateRequest struct {
	JobDescription string `json:"jobDescription"`
	Save           bool   `json:"save"`
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	docs, err := h.Svc.Generate(c.Request.Context(), userID, req.JobDescription)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	if req.Save {
		if err := h.Svc.Save(c.Request.Context(), userID, docs); err != nil {
			respond.FromError(c, err)
			return
		}
	}
	respond.OK(c, gin.H{"documents": docs, "saved": req.Save})
}

func (h *Handler) save(c *gin.Context) {
	var docs Documents
	if err := c.ShouldBindJSON(&docs); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), docs); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"saved": true})
}

func (h *Handler) latest(c *gin.Context) {
	docs, err := h.Svc.Latest(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"documents": docs})
}

func (h *Handler) apply(c *gin.Context) {
	var job JobPosting
	if err := c.ShouldBindJSON(&job); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Svc.ApplyWithAI(c.Request.Context(), middleware.UserIDFromContext(c), job)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, res)
}
