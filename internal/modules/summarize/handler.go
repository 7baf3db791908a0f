package summarize

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/notebrief/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/summarize")
	g.POST("", h.createSummary)
	g.POST("/download", h.downloadSummary)
	g.GET("/models", h.getModels)
}

// POST /summarize, multipart field "file"
func (h *Handler) createSummary(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			response.PayloadTooLarge(c, h.uploadLimitMessage())
			return
		}
		response.BadRequest(c, `a document upload in the multipart field "file" is required`)
		return
	}
	if fileHeader.Size > h.svc.cfg.Upload.MaxSizeBytes() {
		response.PayloadTooLarge(c, h.uploadLimitMessage())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.SummarizeUpload(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	response.OK(c, result)
}

// POST /summarize/download echoes the summary the client already
// holds back as a .txt attachment. Nothing is looked up server-side.
func (h *Handler) downloadSummary(c *gin.Context) {
	var dto downloadSummaryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	name := sanitizeFilename(filepath.Base(strings.TrimSpace(dto.DownloadName)))
	if name == "" || name == "." {
		name = "summarized_notes.txt"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".txt") {
		name += ".txt"
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(dto.Summary))
}

// GET /summarize/models?refresh=true
func (h *Handler) getModels(c *gin.Context) {
	refresh := c.Query("refresh") == "true"
	response.OK(c, h.svc.ListModels(c.Request.Context(), refresh))
}

func (h *Handler) uploadLimitMessage() string {
	return fmt.Sprintf("file exceeds the %d MB upload limit", h.svc.cfg.Upload.MaxSizeMB)
}

func writePipelineError(c *gin.Context, err error) {
	var perr *pipelineError
	if !errors.As(err, &perr) {
		response.InternalError(c, err.Error())
		return
	}
	switch perr.kind {
	case failUnsupportedFormat, failInvalidInput:
		response.BadRequest(c, perr.Error())
	case failExtraction, failNoContent:
		response.UnprocessableEntity(c, perr.Error())
	case failAPI:
		response.BadGateway(c, perr.Error())
	case failMissingCredential:
		response.ServiceUnavailable(c, perr.Error())
	default:
		response.InternalError(c, perr.Error())
	}
}
