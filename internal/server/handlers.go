// Package server exposes the Cortex over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mednerd/internal/logging"
	"mednerd/internal/perception"
	"mednerd/internal/types"
)

// Resolver is the inbound operation surface served over HTTP.
type Resolver interface {
	ResolveByQuery(ctx context.Context, text string) types.AnalysisResponse
	ResolveByDocument(ctx context.Context, filename, text string) types.AnalysisResponse
	ResolveByFilename(ctx context.Context, filename string) types.AnalysisResponse
	Conditions() []string
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// KnowledgeResponse lists the known conditions.
type KnowledgeResponse struct {
	Count      int      `json:"count"`
	Conditions []string `json:"conditions"`
}

// symptomsRequest binds the symptoms query parameter.
type symptomsRequest struct {
	Symptoms string `form:"symptoms" binding:"required"`
}

// Handlers serves the HTTP routes.
type Handlers struct {
	resolver      Resolver
	maxUploadSize int64
}

// NewHandlers creates handlers. Uploads larger than maxUploadSize are rejected.
func NewHandlers(resolver Resolver, maxUploadSize int64) *Handlers {
	if maxUploadSize <= 0 {
		maxUploadSize = 20 << 20
	}
	return &Handlers{resolver: resolver, maxUploadSize: maxUploadSize}
}

// HandleRoot reports that the service is up.
func (h *Handlers) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "mednerd clinical assistant (web-connected) is online"})
}

// HandleHealth is the liveness probe.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "conditions": len(h.resolver.Conditions())})
}

// HandleKnowledge lists condition names in knowledge base order.
func (h *Handlers) HandleKnowledge(c *gin.Context) {
	names := h.resolver.Conditions()
	c.JSON(http.StatusOK, KnowledgeResponse{Count: len(names), Conditions: names})
}

// HandleAnalyzeSymptoms resolves ?symptoms=.
//
//	200 OK: AnalysisResponse
//	400 Bad Request: symptoms missing
func (h *Handlers) HandleAnalyzeSymptoms(c *gin.Context) {
	var req symptomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "symptoms parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	c.JSON(http.StatusOK, h.resolver.ResolveByQuery(c.Request.Context(), req.Symptoms))
}

// HandleAnalyzeReport extracts the uploaded document's text and resolves it.
//
//	200 OK: AnalysisResponse
//	400 Bad Request: file missing
//	413 Request Entity Too Large: file over the upload limit
func (h *Handlers) HandleAnalyzeReport(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	text := perception.ExtractText(filename, data)
	logging.Get(logging.CategoryAPI).Debug("report %s: %d bytes, %d chars of text", filename, len(data), len(text))
	c.JSON(http.StatusOK, h.resolver.ResolveByDocument(c.Request.Context(), filename, text))
}

// HandleAnalyzeImage resolves an uploaded image by its filename.
//
//	200 OK: AnalysisResponse
//	400 Bad Request: file missing
func (h *Handlers) HandleAnalyzeImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required", Code: "MISSING_FILE"})
		return
	}
	c.JSON(http.StatusOK, h.resolver.ResolveByFilename(c.Request.Context(), fh.Filename))
}

var errTooLarge = errors.New("upload too large")

func (h *Handlers) readUpload(c *gin.Context) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(c)
			return "", nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required", Code: "MISSING_FILE"})
		return "", nil, false
	}
	if fh.Size > h.maxUploadSize {
		h.tooLarge(c)
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("cannot open upload: %v", err), Code: "BAD_UPLOAD"})
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadSize))
	if err != nil {
		// Unreadable content resolves on the filename alone.
		logging.Get(logging.CategoryAPI).Warn("failed to read upload %s: %v", fh.Filename, err)
		data = nil
	}
	return fh.Filename, data, true
}

func (h *Handlers) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error: fmt.Sprintf("%v: limit is %d bytes", errTooLarge, h.maxUploadSize),
		Code:  "UPLOAD_TOO_LARGE",
	})
}
