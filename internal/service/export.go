package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/geniuspost/internal/apperror"
	"github.com/sakif/geniuspost/internal/document"
	"github.com/sakif/geniuspost/internal/renderer"
)

// filenameTimeLayout stamps export filenames, e.g. 20260117-093015.
const filenameTimeLayout = "20060102-150405"

// ExportRequest is one PDF export as submitted by the authoring page.
type ExportRequest struct {
	Content  string // HTML fragment
	Template string // theme name, unknown names fall back to the default
	Styles   string // captured CSS, applied last
	BaseURL  string // resolves relative images and links
}

// ExportResult carries the rendered PDF, base64-encoded for JSON transport.
type ExportResult struct {
	PDFData  string
	Filename string
	Theme    string
}

// ExportService runs the export pipeline:
//
//	Preprocess → Assemble → Renderer.Render → base64
type ExportService struct {
	renderer renderer.Renderer
	fonts    document.FontSet
	now      func() time.Time
	logger   *slog.Logger
}

// NewExportService creates an ExportService. fonts is resolved once at
// startup so every export embeds the same files.
func NewExportService(r renderer.Renderer, fonts document.FontSet, logger *slog.Logger) *ExportService {
	return &ExportService{
		renderer: r,
		fonts:    fonts,
		now:      time.Now,
		logger:   logger,
	}
}

// ExportPDF renders req into a PDF.
func (s *ExportService) ExportPDF(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}

	theme := document.ResolveTheme(req.Template)
	content, err := document.Preprocess(req.Content)
	if err != nil {
		s.logger.Warn("content preprocessing failed, using original", slog.String("error", err.Error()))
	}
	html := document.Assemble(content, theme, req.Styles, s.fonts)

	start := time.Now()
	pdf, err := s.renderer.Render(ctx, html, req.BaseURL)
	if err != nil {
		s.logger.Error("pdf render failed", slog.String("theme", theme), slog.String("error", err.Error()))
		return nil, apperror.Upstream("pdf", err)
	}

	s.logger.Info("pdf rendered",
		slog.String("theme", theme),
		slog.Int("bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)),
	)

	return &ExportResult{
		PDFData:  base64.StdEncoding.EncodeToString(pdf),
		Filename: fmt.Sprintf("geniuspost-%s-%s.pdf", theme, s.now().Format(filenameTimeLayout)),
		Theme:    theme,
	}, nil
}
