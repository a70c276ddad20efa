// Package site renders the operator dashboard as server-side HTML.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/okian/sentivision/internal/adapters/http/api"
	"github.com/okian/sentivision/internal/adapters/repository"
	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
	"github.com/okian/sentivision/pkg/logger"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrRender   = errors.New("site render failed")
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// pages lists every page template. Each is parsed together with the layout.
var pages = []string{ //nolint:gochecknoglobals // static list
	"dashboard.html",
	"clients.html",
	"client.html",
	"client_form.html",
	"sources.html",
	"tags.html",
	"tag_preview.html",
	"articles.html",
	"article.html",
	"diagnostics.html",
	"error.html",
}

// Dependencies are the service operations the pages use.
type Dependencies interface {
	Dashboard(ctx context.Context, tiers scoring.TierSet) (service.Dashboard, error)
	ClientDetail(ctx context.Context, id int64, q service.DetailQuery) (service.ClientDetail, error)

	ListClients(ctx context.Context) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (model.Client, error)
	CreateClient(ctx context.Context, c model.Client) (model.Client, error)
	UpdateClient(ctx context.Context, c model.Client) (model.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	ListSources(ctx context.Context) (service.SourceList, error)
	ClientSources(ctx context.Context, clientID int64) ([]model.Source, error)
	CreateSource(ctx context.Context, src model.Source) (model.Source, error)
	ToggleSource(ctx context.Context, id int64, enabled bool) error
	DeleteSource(ctx context.Context, id int64) error

	ListTags(ctx context.Context, f repository.TagFilter) ([]model.Tag, error)
	CreateTag(ctx context.Context, t model.Tag) (model.Tag, error)
	UpdateTag(ctx context.Context, id int64, p repository.TagPatch) (model.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
	TagPreview(ctx context.Context, tagID int64) (service.TagPreview, error)

	Articles(ctx context.Context, q service.ArticleListQuery) (service.ArticleList, error)
	Article(ctx context.Context, id int64) (service.ArticleDetail, error)

	Diagnostics(ctx context.Context) service.Diagnostics
	ExportClients(ctx context.Context) (service.ExportResult, error)
}

// Site holds the parsed templates and serves the HTML pages.
type Site struct {
	deps   Dependencies
	pages  map[string]*template.Template
	logger logger.Logger
}

// Option applies a configuration option to the Site.
type Option func(*Site)

// WithLogger sets the logger render failures are reported to.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.logger = l
		}
	}
}

// New parses the embedded templates.
func New(deps Dependencies, opts ...Option) (*Site, error) {
	s := &Site{deps: deps, pages: make(map[string]*template.Template, len(pages)), logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range pages {
		t, err := template.New(p).Funcs(funcs()).ParseFS(templateFS, "templates/layout.html", "templates/"+p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplate, p, err)
		}
		s.pages[p] = t
	}
	return s, nil
}

// Register attaches the page routes to mux.
func (s *Site) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		static = staticFS
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, api.MetricsMiddleware(h, endpoint))
	}
	route("GET /{$}", "page_dashboard", s.handleDashboard)

	route("GET /clients", "page_clients", s.handleClients)
	route("GET /clients/new", "page_client_new", s.handleClientNew)
	route("POST /clients", "page_client_create", s.handleClientCreate)
	route("GET /clients/{id}", "page_client", s.handleClient)
	route("GET /clients/{id}/edit", "page_client_edit", s.handleClientEdit)
	route("POST /clients/{id}", "page_client_update", s.handleClientUpdate)
	route("POST /clients/{id}/delete", "page_client_delete", s.handleClientDelete)

	route("GET /sources", "page_sources", s.handleSources)
	route("POST /sources", "page_source_create", s.handleSourceCreate)
	route("POST /sources/{id}/toggle", "page_source_toggle", s.handleSourceToggle)
	route("POST /sources/{id}/delete", "page_source_delete", s.handleSourceDelete)

	route("GET /tags", "page_tags", s.handleTags)
	route("POST /tags", "page_tag_create", s.handleTagCreate)
	route("POST /tags/{id}", "page_tag_update", s.handleTagUpdate)
	route("POST /tags/{id}/delete", "page_tag_delete", s.handleTagDelete)
	route("GET /tags/{id}/preview", "page_tag_preview", s.handleTagPreview)

	route("GET /articles", "page_articles", s.handleArticles)
	route("GET /articles/{id}", "page_article", s.handleArticle)

	route("GET /diagnostics", "page_diagnostics", s.handleDiagnostics)
	route("POST /diagnostics/export", "page_export", s.handleExport)
}

// view is the data every page template receives.
type view struct {
	Title  string
	Nav    string
	Tiers  scoring.TierSet
	Notice string
	Error  string
	Data   any
}

// render executes a page into a buffer first so template failures never
// produce half a page.
func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	t, ok := s.pages[page]
	if !ok {
		s.logger.Error(r.Context(), "unknown page template", logger.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if v.Notice == "" {
		v.Notice = notices[r.URL.Query().Get("notice")]
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		s.logger.Error(r.Context(), "render page", logger.String("page", page), logger.Error(fmt.Errorf("%w: %w", ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Heading string
	Message string
}

// fail renders the error page for err. Store outages get the dedicated
// 503 message.
func (s *Site) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := api.StatusFor(err)
	p := errorPage{Status: status, Heading: http.StatusText(status), Message: err.Error()}
	switch {
	case errors.Is(err, service.ErrAggregationUnavailable):
		p.Heading = "Sentiment data unavailable"
		p.Message = "The article store could not be read. Try again shortly."
	case status >= http.StatusInternalServerError:
		p.Message = "Something went wrong while handling this request."
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "page request failed", logger.String("path", r.URL.Path), logger.Error(err))
	}
	s.render(w, r, status, "error.html", view{Title: p.Heading, Data: p})
}

// notices are the messages a redirect can ask the next page to show.
var notices = map[string]string{ //nolint:gochecknoglobals // static table
	"saved":         "Saved.",
	"deleted":       "Deleted.",
	"exported":      "Clients file exported.",
	"export_failed": "Saved, but the clients file could not be rewritten. Check the diagnostics page.",
}

// redirect sends a 303 to path. An export failure after a successful
// write replaces the notice instead of producing an error page.
func redirect(w http.ResponseWriter, r *http.Request, path, notice string, err error) {
	if errors.Is(err, service.ErrExportFailed) {
		notice = "export_failed"
	}
	if notice != "" {
		path += "?notice=" + notice
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
