// Package handler contains the HTTP handlers of the GeniusPost server.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (query params, body, cookies)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business logic. Errors from services are translated to
// status codes in one place, response.go.
package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/geniuspost/internal/auth"
	"github.com/sakif/geniuspost/internal/document"
	"github.com/sakif/geniuspost/internal/model"
	"github.com/sakif/geniuspost/internal/repository"
)

// pageFiles lists the content templates rendered inside base.html.
var pageFiles = []string{"home.html", "geniuspost.html", "pricing.html"}

// PageHandler serves the server-rendered HTML pages.
//
// TEMPLATE COMPOSITION:
// Each page is parsed together with base.html into its own template set:
//   - base.html defines the layout with a {{template "content" .}} slot
//   - home.html, geniuspost.html, ... each {{define "content"}}
//
// Separate sets are needed because every page defines the same "content"
// block name. Templates are parsed once at startup.
type PageHandler struct {
	pages  map[string]*template.Template
	users  repository.UserRepository
	logger *slog.Logger
}

// PageData is what every template receives.
type PageData struct {
	Title  string
	User   *model.User // nil for anonymous visitors
	Themes []string
}

// NewPageHandler parses the templates in templateDir.
func NewPageHandler(templateDir string, users repository.UserRepository, logger *slog.Logger) (*PageHandler, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := template.ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, name),
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &PageHandler{pages: pages, users: users, logger: logger}, nil
}

// HandleHome serves the landing page. GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home.html", "GeniusPost: AI posts for social media")
}

// HandleAuthoring serves the editor. GET /geniuspost (session required)
func (h *PageHandler) HandleAuthoring(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "geniuspost.html", "GeniusPost")
}

// HandlePricing serves the pricing page. GET /pricing
func (h *PageHandler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pricing.html", "GeniusPost: Pricing")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page, title string) {
	data := PageData{
		Title:  title,
		User:   h.currentUser(r),
		Themes: document.ThemeNames(),
	}

	// Set content type header BEFORE writing the body
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// currentUser loads the session user for the page header. Pages still
// render when the lookup fails, just without the user.
func (h *PageHandler) currentUser(r *http.Request) *model.User {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("session user lookup failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return user
}
