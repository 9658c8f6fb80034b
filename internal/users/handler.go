package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.POST("/auth/logout", h.logout)
}

// me returns the stored profile, or the token claims for users who have
// not been stored yet.
func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			respond.FromError(c, err)
			return
		}
		respond.OK(c, gin.H{
			"id":         userID,
			"email":      middleware.UserEmailFromContext(c),
			"fullName":   middleware.UserNameFromContext(c),
			"pictureUrl": middleware.UserPictureFromContext(c),
			"stored":     false,
		})
		return
	}
	respond.OK(c, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"fullName":   user.FullName,
		"pictureUrl": user.PictureURL,
		"createdAt":  user.CreatedAt,
		"stored":     true,
	})
}

// logout is stateless: tokens are dropped by the client.
func (h *Handler) logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
