// Package docker renders PDFs with weasyprint inside pre-warmed,
// network-less containers. Each container serves one render and is then
// discarded.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/geniuspost/internal/renderer"
)

// Renderer implements renderer.Renderer using Docker.
type Renderer struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

var _ renderer.Renderer = (*Renderer)(nil)

// New connects to the Docker daemon, makes sure the image is present and
// starts the container pool.
func New(cfg Config, logger *slog.Logger) (*Renderer, error) {
	if cfg.WorkDir == "" || cfg.FontDir == "" {
		return nil, errors.New("docker renderer: work and font directories are required")
	}
	for _, dir := range []string{cfg.WorkDir, cfg.FontDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("docker renderer: creating %s: %w", dir, err)
		}
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := ensureImage(ctx, cli, cfg.Image, logger); err != nil {
		cli.Close()
		return nil, err
	}

	r := &Renderer{
		cli:    cli,
		config: cfg,
		logger: logger,
	}
	r.pool = NewPool(cli, cfg, logger)
	r.pool.Start()

	return r, nil
}

// ensureImage pulls the image unless it already exists locally. Locally
// built images cannot be pulled.
func ensureImage(ctx context.Context, cli *client.Client, ref string, logger *slog.Logger) error {
	if _, err := cli.ImageInspect(ctx, ref); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to inspect image: %w", err)
	}

	logger.Info("pulling render image", slog.String("image", ref))
	reader, err := cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Reading to EOF blocks until the pull completes.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	logger.Info("render image is ready", slog.String("image", ref))
	return nil
}

// Ready checks that the daemon answers.
func (r *Renderer) Ready(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker renderer: daemon unreachable: %w", err)
	}
	return nil
}

// Close shuts down the pool and the docker client.
func (r *Renderer) Close() error {
	r.pool.Stop()
	return r.cli.Close()
}

// Render runs weasyprint in a pooled container. The temp files live in the
// shared work directory and are removed before Render returns.
func (r *Renderer) Render(ctx context.Context, document, baseURL string) ([]byte, error) {
	start := time.Now()

	job, cleanup, err := renderer.NewJob(r.config.WorkDir, document)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	renderCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	containerID, err := r.pool.GetContainer(renderCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}
	defer r.pool.removeContainer(containerID)

	execResp, err := r.cli.ContainerExecCreate(renderCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          append([]string{"weasyprint"}, job.Args(baseURL)...),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := r.cli.ContainerExecAttach(renderCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
	case <-renderCtx.Done():
		return nil, fmt.Errorf("weasyprint in container: %w", renderCtx.Err())
	}

	inspect, err := r.cli.ContainerExecInspect(renderCtx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}
	if inspect.ExitCode != 0 {
		return nil, fmt.Errorf("weasyprint in container exited with code %d: %s",
			inspect.ExitCode, strings.TrimSpace(stderr.String()))
	}

	pdf, err := job.ReadPDF()
	if err != nil {
		return nil, err
	}

	r.logger.Debug("container render finished",
		slog.String("container", containerID[:min(12, len(containerID))]),
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(pdf)),
	)
	return pdf, nil
}
