package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/shared/apperr"
	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/server/respond"
)

// Handler exposes plan endpoints.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/plans", h.plans)
	rg.GET("/plan", h.status)
	rg.POST("/plan/upgrade", h.upgrade)
}

func (h *Handler) plans(c *gin.Context) {
	respond.OK(c, gin.H{"plans": Plans()})
}

func (h *Handler) status(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	st, err := h.Svc.Status(c.Request.Context(), userID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	active, err := h.Svc.SubscriptionActive(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, apperr.ErrCheckoutNotConfigured) {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"plan":               st.Plan,
		"applicationsCount":  st.ApplicationsCount,
		"limit":              st.Limit,
		"unlimited":          st.Unlimited,
		"limitReached":       st.LimitReached,
		"subscriptionActive": active,
	})
}

type upgradeRequest struct {
	Plan string `json:"plan" binding:"required"`
}

func (h *Handler) upgrade(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "plan is required", nil)
		return
	}
	res, err := h.Svc.Upgrade(c.Request.Context(), userID, req.Plan, middleware.UserEmailFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, res)
}
