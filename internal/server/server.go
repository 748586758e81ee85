// Package server exposes the analysis pipeline over HTTP: a multipart upload
// endpoint returning the composite result as JSON.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KaramelBytes/reviewloom-cli/internal/ingest"
	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/KaramelBytes/reviewloom-cli/internal/verbatim"
)

// UploadField is the multipart form field carrying the review export.
const UploadField = "csv_file"

// maxUploadMemory bounds the in-memory part of a multipart upload.
const maxUploadMemory = 32 << 20

// SummarizeFunc produces summary bullets for a finished analysis.
type SummarizeFunc func(ctx context.Context, res *pipeline.Result) ([]string, error)

// Server serves the upload endpoint.
type Server struct {
	Pipeline  pipeline.Options
	UploadDir string
	// Summarize backs ?summarize=true; nil disables it.
	Summarize SummarizeFunc
}

// Router builds the gin engine with logging, recovery and request IDs.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadMemory
	r.Use(gin.Logger(), gin.Recovery(), RequestID())
	r.GET("/healthz", s.handleHealth)
	r.POST("/analyze", s.handleAnalyze)
	return r
}

// RequestID tags each request with X-Request-ID, generating one if absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	fh, err := c.FormFile(UploadField)
	if err != nil {
		// A part with an empty filename is parsed as a plain form value.
		if form := c.Request.MultipartForm; form != nil {
			if _, ok := form.Value[UploadField]; ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Empty filename"})
				return
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	name := filepath.Base(fh.Filename)
	if fh.Filename == "" || name == "." || name == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty filename"})
		return
	}
	if !ingest.Supported(name) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": ingest.ErrUnsupportedFormat.Error()})
		return
	}

	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		log.Printf("[analyze] create upload dir: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store upload"})
		return
	}
	dst := filepath.Join(s.UploadDir, uuid.NewString()+"_"+name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		log.Printf("[analyze] save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store upload"})
		return
	}
	defer os.Remove(dst)

	res, err := pipeline.Run(c.Request.Context(), dst, s.Pipeline)
	if err != nil {
		status := statusFor(err)
		log.Printf("[analyze] %s (request %s): %v", name, c.GetString("request_id"), err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	res.Source = name

	body := gin.H{"analysis_results": res}
	if want, _ := strconv.ParseBool(c.Query("summarize")); want && s.Summarize != nil {
		points, err := s.Summarize(c.Request.Context(), res)
		if err != nil {
			log.Printf("[analyze] summary for %s: %v", name, err)
			body["summary_error"] = err.Error()
		} else {
			res.Summary = points
		}
	}
	c.JSON(http.StatusOK, body)
}

// statusFor maps pipeline failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, verbatim.ErrNoClassifiedReviews):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
