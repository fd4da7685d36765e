package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/geniuspost/internal/service"
)

// ExportHandler turns the authoring page's HTML into a PDF.
type ExportHandler struct {
	export *service.ExportService
	logger *slog.Logger
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(export *service.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{export: export, logger: logger}
}

// ExportRequest is the body of /generate-pdf.
type ExportRequest struct {
	Content  string `json:"content"`
	Template string `json:"template"`
	Styles   string `json:"styles"`
}

// ExportResponse is the body of a successful /generate-pdf.
type ExportResponse struct {
	Success  bool   `json:"success"`
	PDFData  string `json:"pdf_data"` // base64
	Filename string `json:"filename"`
}

// HandleExport renders the posted document.
//
// HTTP: POST /generate-pdf {"content": "<h1>..</h1>", "template": "dark", "styles": "..."}
//
//	200 {"success": true, "pdf_data": "JVBERi0...", "filename": "geniuspost-dark-20260117-093015.pdf"}
//	400 {"success": false, "error": "content is required"}
//	500 {"success": false, "error": "<renderer error>"}
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}

	result, err := h.export.ExportPDF(r.Context(), service.ExportRequest{
		Content:  req.Content,
		Template: req.Template,
		Styles:   req.Styles,
		BaseURL:  baseURL(r),
	})
	if err != nil {
		h.logger.Warn("pdf export failed", slog.String("error", err.Error()))
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{
		Success:  true,
		PDFData:  result.PDFData,
		Filename: result.Filename,
	})
}
