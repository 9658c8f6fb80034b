package resumes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/extract"
	"jobassist-backend/internal/record"
	"jobassist-backend/internal/shared/server/middleware"
	"jobassist-backend/internal/shared/server/respond"
	"jobassist-backend/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadSize}
}

// RegisterRoutes attaches résumé routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resume/parse", h.parse)
	rg.POST("/resume", h.save)
	rg.GET("/resume", h.current)
}

type parseResponse struct {
	Resume *record.Record `json:"resume"`
	Saved  bool           `json:"saved"`
	Mode   string         `json:"mode"`
}

func (h *Handler) parse(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = maxUploadSize
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"upload exceeds "+sizeLabel(limit), gin.H{"limitBytes": limit})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	save := parseBool(c.PostForm("save")) || parseBool(c.Query("save"))
	c.Set("parserMode", string(h.Svc.Mode))

	result, err := h.Svc.Parse(c.Request.Context(), userID, extract.Upload{
		Data:      data,
		MediaType: strings.TrimSpace(fileHeader.Header.Get("Content-Type")),
		FileName:  fileName,
	}, save)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	respond.OK(c, parseResponse{
		Resume: result.Record,
		Saved:  result.Saved,
		Mode:   string(result.Mode),
	})
}

type saveRequest struct {
	Resume *record.Record `json:"resume" binding:"required"`
}

func (h *Handler) save(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume object is required", nil)
		return
	}
	if err := h.Svc.Save(c.Request.Context(), userID, req.Resume); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"saved": true})
}

func (h *Handler) current(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	rec, err := h.Svc.Current(c.Request.Context(), userID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"resume": rec})
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
