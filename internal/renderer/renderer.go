// Package renderer turns an assembled HTML document into PDF bytes with the
// WeasyPrint engine.
package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// Renderer renders a complete HTML document. baseURL resolves relative
// links and images in the document.
type Renderer interface {
	Render(ctx context.Context, document, baseURL string) ([]byte, error)
	// Ready reports whether the engine can be used.
	Ready(ctx context.Context) error
	Close() error
}

// Job is one render's pair of temporary files inside a work directory.
type Job struct {
	HTMLPath string
	PDFPath  string
}

// NewJob writes document to a uniquely named HTML file in workDir and
// reserves a matching PDF path. cleanup removes both files and is safe to
// call whether or not the PDF was produced.
func NewJob(workDir, document string) (job *Job, cleanup func(), err error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, func() {}, fmt.Errorf("renderer: creating work dir: %w", err)
	}

	base := filepath.Join(workDir, "export-"+xid.New().String())
	job = &Job{HTMLPath: base + ".html", PDFPath: base + ".pdf"}
	cleanup = func() {
		_ = os.Remove(job.HTMLPath)
		_ = os.Remove(job.PDFPath)
	}

	// The engine may run as another user inside a container.
	if err := os.WriteFile(job.HTMLPath, []byte(document), 0o644); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("renderer: writing document: %w", err)
	}
	return job, cleanup, nil
}

// Args returns the WeasyPrint command-line arguments for job.
func (j *Job) Args(baseURL string) []string {
	args := []string{"--presentational-hints"}
	if baseURL != "" {
		args = append(args, "--base-url", baseURL)
	}
	return append(args, j.HTMLPath, j.PDFPath)
}

// ReadPDF returns the rendered output, failing if the engine produced none.
func (j *Job) ReadPDF() ([]byte, error) {
	pdf, err := os.ReadFile(j.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("renderer: reading output: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("renderer: engine produced an empty file")
	}
	return pdf, nil
}
