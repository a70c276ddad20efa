package site

import (
	"net/http"
	"strings"

	"github.com/okian/sentivision/internal/adapters/http/api"
	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/pkg/logger"
)

func (s *Site) handleDashboard(w http.ResponseWriter, r *http.Request) {
	tiers := api.Tiers(r)
	d, err := s.deps.Dashboard(r.Context(), tiers)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", view{Title: "Dashboard", Nav: "dashboard", Tiers: tiers, Data: d})
}

func (s *Site) handleClient(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tiers := api.Tiers(r)
	d, err := s.deps.ClientDetail(r.Context(), id, service.DetailQuery{
		Tiers:       tiers,
		Label:       api.Label(r),
		DirectPage:  api.PageParam(r, "direct_page"),
		ContextPage: api.PageParam(r, "context_page"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "client.html", view{Title: d.Client.Name, Nav: "clients", Tiers: tiers, Data: d})
}

func (s *Site) handleArticles(w http.ResponseWriter, r *http.Request) {
	clientID, err := api.OptionalID(r, "client")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tiers := api.Tiers(r)
	list, err := s.deps.Articles(r.Context(), service.ArticleListQuery{
		ClientID: clientID,
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Tiers:    tiers,
		Label:    api.Label(r),
		Page:     api.PageParam(r, "page"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "articles.html", view{Title: "Articles", Nav: "articles", Tiers: tiers, Data: list})
}

func (s *Site) handleArticle(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.deps.Article(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "article.html", view{Title: a.Title, Nav: "articles", Data: a})
}

func (s *Site) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	d := s.deps.Diagnostics(r.Context())
	s.render(w, r, http.StatusOK, "diagnostics.html", view{Title: "Diagnostics", Nav: "diagnostics", Data: d})
}

func (s *Site) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.ExportClients(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "clients file export failed", logger.Error(err))
		redirect(w, r, "/diagnostics", "", err)
		return
	}
	s.logger.Info(r.Context(), "clients file exported from diagnostics", logger.Int("clients", res.Clients))
	redirect(w, r, "/diagnostics", "exported", nil)
}
