package api

import (
	"net/http"
	"strings"

	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/domain/types"
	"github.com/okian/sentivision/pkg/logger"
)

// ArticlesHandler serves the article browser endpoints.
type ArticlesHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewArticlesHandler creates a new articles handler.
func NewArticlesHandler(deps Dependencies, l logger.Logger) *ArticlesHandler {
	return &ArticlesHandler{deps: deps, logger: l}
}

// HandleList handles GET /api/articles with client, q, tier, label and
// page parameters.
func (h *ArticlesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clientID, err := OptionalID(r, "client")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := h.deps.Articles(r.Context(), service.ArticleListQuery{
		ClientID: clientID,
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Tiers:    Tiers(r),
		Label:    Label(r),
		Page:     PageParam(r, "page"),
	})
	if err != nil {
		fail(r.Context(), h.logger, w, "api.articles", err)
		return
	}
	items := make([]types.Article, 0, len(list.Page.Items))
	for _, v := range list.Page.Items {
		items = append(items, types.NewArticle(v.Article, v.ClientName))
	}
	writeJSON(w, http.StatusOK, types.Page[types.Article]{
		Items:      items,
		Page:       list.Page.Number,
		PageSize:   list.Page.Size,
		Total:      list.Page.Total,
		TotalPages: list.Page.TotalPages,
	})
}

type articleResponse struct {
	types.Article
	Body string      `json:"body"`
	Tags []types.Tag `json:"tags"`
}

// HandleGet handles GET /api/articles/{id}.
func (h *ArticlesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	a, err := h.deps.Article(r.Context(), id)
	if err != nil {
		fail(r.Context(), h.logger, w, "api.article", err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{
		Article: types.NewArticle(a.Article, a.ClientName),
		Body:    a.Body,
		Tags:    types.NewTags(a.Tags),
	})
}
