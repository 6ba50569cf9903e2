package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-analyzer/constants"
	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OptionsResponse lists what the form can select.
type OptionsResponse struct {
	Languages      []string `json:"languages"`
	Models         []string `json:"models"`
	DefaultModel   string   `json:"default_model"`
	MetadataFields []string `json:"metadata_fields"`
}

type pageData struct {
	Options  OptionsResponse
	Document string
	Result   *pipeline.Result
	Error    string
}

func (s *Server) options() OptionsResponse {
	return OptionsResponse{
		Languages:      s.store.Languages(),
		Models:         s.settings.ModelLabels(),
		DefaultModel:   s.settings.DefaultModel,
		MetadataFields: s.store.MetadataToExtract(),
	}
}

// Options returns the selectable languages, models and metadata fields.
func (s *Server) Options(c *gin.Context) {
	c.JSON(http.StatusOK, s.options())
}

// Index renders the empty form.
func (s *Server) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "page", pageData{Options: s.options()})
}

// Analyze runs the uploaded document through the pipeline and renders the
// three outputs, as JSON when the client asks for it.
func (s *Server) Analyze(c *gin.Context) {
	doc, res, err := s.runUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, res)
		return
	}
	c.HTML(http.StatusOK, "page", pageData{Options: s.options(), Document: doc, Result: &res})
}

// Export runs the pipeline like Analyze and returns the result as XLSX.
func (s *Server) Export(c *gin.Context) {
	doc, res, err := s.runUpload(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := s.exporter.ResultXLSX(c.Request.Context(), doc, res)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %w", common.ErrInternal, err))
		return
	}
	name := strings.TrimSuffix(doc, filepath.Ext(doc)) + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// runUpload stores the multipart "document" under the upload dir, runs the
// pipeline on it and removes it again.
func (s *Server) runUpload(c *gin.Context) (string, pipeline.Result, error) {
	fh, err := c.FormFile("document")
	if err != nil {
		return "", pipeline.Result{}, common.InvalidInputErrorf("document image is required")
	}
	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	if !constants.IsAllowedImageExt(ext) {
		return "", pipeline.Result{}, common.InvalidInputErrorf("unsupported image type %q", filepath.Ext(fh.Filename))
	}

	allowed := s.store.MetadataToExtract()
	var fields []string
	for _, f := range c.PostFormArray("fields") {
		if !slices.Contains(allowed, f) {
			return "", pipeline.Result{}, common.InvalidInputErrorf("unknown metadata field %q", f)
		}
		// a repeated checkbox value selects the field once
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", pipeline.Result{}, fmt.Errorf("%w: create upload dir: %w", common.ErrInternal, err)
	}
	dst := filepath.Join(s.uploadDir, uuid.New().String()+"."+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", pipeline.Result{}, fmt.Errorf("%w: store upload: %w", common.ErrInternal, err)
	}
	defer func() {
		if err := os.Remove(dst); err != nil {
			s.logger.Warn("server.upload.cleanup_error", "path", dst, "error", err)
		}
	}()

	res, err := s.analyzer.Run(c.Request.Context(), pipeline.Request{
		Language:       c.PostForm("language"),
		DocumentPath:   dst,
		MetadataFields: fields,
		Model:          c.PostForm("model"),
	})
	return filepath.Base(fh.Filename), res, err
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	rid := common.RequestIDFromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("server.request.failed", "req_id", rid, "status", status, "error", err)
	} else {
		s.logger.Warn("server.request.rejected", "req_id", rid, "status", status, "error", err)
	}
	msg := publicMessage(err)
	if wantsJSON(c) {
		c.JSON(status, gin.H{"error": msg, "request_id": rid})
		return
	}
	c.HTML(status, "page", pageData{Options: s.options(), Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code == common.CodeInvalidInput {
		return appErr.Message
	}
	if errors.Is(err, common.ErrUpstream) {
		return "the model API request failed"
	}
	return "internal error"
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
