package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single local render.
const DefaultTimeout = 60 * time.Second

// maxOutput caps the engine output kept for error messages.
const maxOutput = 4096

// WeasyPrint runs the weasyprint binary on the host.
type WeasyPrint struct {
	bin     string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
}

var _ Renderer = (*WeasyPrint)(nil)

// NewWeasyPrint returns a renderer that runs bin with temp files in workDir.
func NewWeasyPrint(bin, workDir string, logger *slog.Logger) *WeasyPrint {
	return &WeasyPrint{
		bin:     bin,
		workDir: workDir,
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// Ready checks that the binary is on PATH and the work dir is writable.
func (w *WeasyPrint) Ready(ctx context.Context) error {
	if _, err := exec.LookPath(w.bin); err != nil {
		return fmt.Errorf("renderer: missing required binary %q in PATH: %w", w.bin, err)
	}
	if err := os.MkdirAll(w.workDir, 0o755); err != nil {
		return fmt.Errorf("renderer: creating work dir: %w", err)
	}
	return nil
}

// Render writes document to a temp file, runs the engine and returns the
// PDF. Both temp files are removed before Render returns.
func (w *WeasyPrint) Render(ctx context.Context, document, baseURL string) ([]byte, error) {
	if _, err := exec.LookPath(w.bin); err != nil {
		return nil, fmt.Errorf("renderer: %s not found in PATH: %w", w.bin, err)
	}

	job, cleanup, err := NewJob(w.workDir, document)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, w.bin, job.Args(baseURL)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("renderer: %s failed: %w; out=%s", w.bin, err, truncate(out))
	}

	pdf, err := job.ReadPDF()
	if err != nil {
		return nil, err
	}

	w.logger.Debug("weasyprint finished",
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(pdf)),
	)
	return pdf, nil
}

// Close is a no-op; the local renderer holds no resources.
func (w *WeasyPrint) Close() error { return nil }

func truncate(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxOutput {
		return s[:maxOutput] + "..."
	}
	return s
}
