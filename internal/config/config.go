// Package config loads the server configuration from the environment.
//
// Required settings (OAuth credentials, session secret, database, LLM key)
// are checked together so a misconfigured deployment reports every missing
// variable at once and refuses to start.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Renderer backends for PDF export.
const (
	RendererLocal  = "local"
	RendererDocker = "docker"
)

// Config holds everything the server needs to start.
type Config struct {
	Port int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	SecretKey   string
	DatabaseURL string

	LLMAPIKey  string
	LLMOrg     string
	LLMProject string
	LLMBaseURL string

	TemplateDir string
	StaticDir   string
	FontDir     string

	PDFRenderer   string
	WeasyPrintBin string
	PDFWorkDir    string

	// Used only when PDFRenderer is RendererDocker.
	PDFDockerImage    string
	PDFDockerPoolSize int

	// Origins allowed to call the JSON endpoints cross-site. "*" allows
	// any origin without credentials.
	CORSAllowedOrigins []string

	LogLevel slog.Level
}

// SecureCookies reports whether session cookies should carry the Secure
// flag. The OAuth redirect URI tells us whether the site is served over TLS.
func (c Config) SecureCookies() bool {
	u, err := url.Parse(c.GoogleRedirectURI)
	return err == nil && u.Scheme == "https"
}

// Load reads the configuration with getenv (os.Getenv in production).
func Load(getenv func(string) string) (Config, error) {
	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	optional := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		GoogleClientID:     required("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: required("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  required("GOOGLE_REDIRECT_URI"),
		SecretKey:          required("SECRET_KEY"),
		DatabaseURL:        required("DATABASE_URL"),
		LLMAPIKey:          required("GPT_APIKEY"),
		LLMOrg:             optional("GPT_ORG", ""),
		LLMProject:         optional("GPT_PROJECT", ""),
		LLMBaseURL:         strings.TrimRight(optional("LLM_BASE_URL", "https://api.openai.com"), "/"),
		TemplateDir:        optional("TEMPLATE_DIR", "web/templates"),
		StaticDir:          optional("STATIC_DIR", "web/static"),
		PDFRenderer:        strings.ToLower(optional("PDF_RENDERER", RendererLocal)),
		WeasyPrintBin:      optional("WEASYPRINT_BIN", "weasyprint"),
		PDFWorkDir:         optional("PDF_WORK_DIR", filepath.Join(os.TempDir(), "geniuspost-pdf")),
		PDFDockerImage:     optional("PDF_DOCKER_IMAGE", "geniuspost-weasyprint:latest"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.FontDir = optional("FONT_DIR", filepath.Join(cfg.StaticDir, "fonts"))

	for _, origin := range strings.Split(optional("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	var errs []error

	cfg.Port = 8000
	if portStr := getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("invalid PORT value %q", portStr))
		}
		cfg.Port = port
	}

	cfg.PDFDockerPoolSize = 2
	if sizeStr := getenv("PDF_DOCKER_POOL_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			errs = append(errs, fmt.Errorf("invalid PDF_DOCKER_POOL_SIZE value %q", sizeStr))
		}
		cfg.PDFDockerPoolSize = size
	}

	if len(cfg.SecretKey) < 16 {
		errs = append(errs, errors.New("SECRET_KEY must be at least 16 characters"))
	}

	if u, err := url.Parse(cfg.GoogleRedirectURI); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("GOOGLE_REDIRECT_URI must be an absolute URL, got %q", cfg.GoogleRedirectURI))
	}

	switch cfg.PDFRenderer {
	case RendererLocal, RendererDocker:
	default:
		errs = append(errs, fmt.Errorf("PDF_RENDERER must be %q or %q, got %q", RendererLocal, RendererDocker, cfg.PDFRenderer))
	}

	level, err := parseLevel(optional("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = level

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	// Absolute asset paths: the PDF engine resolves file:// font URLs and
	// the docker renderer bind-mounts these directories.
	for _, dir := range []*string{&cfg.TemplateDir, &cfg.StaticDir, &cfg.FontDir, &cfg.PDFWorkDir} {
		if abs, err := filepath.Abs(*dir); err == nil {
			*dir = abs
		}
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
