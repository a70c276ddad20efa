package api

import (
	"net/http"

	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/domain/grouping"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/types"
	"github.com/okian/sentivision/pkg/logger"
)

// SentimentHandler serves the aggregate endpoints.
type SentimentHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewSentimentHandler creates a new sentiment handler.
func NewSentimentHandler(deps Dependencies, l logger.Logger) *SentimentHandler {
	return &SentimentHandler{deps: deps, logger: l}
}

type tileResponse struct {
	Client   types.Client      `json:"client"`
	Direct   service.ScopeView `json:"direct"`
	Articles int               `json:"article_count"`
}

type dashboardResponse struct {
	Tiers         []model.Tier   `json:"tiers"`
	Clients       []tileResponse `json:"clients"`
	TotalArticles     int            `json:"total_articles"`
	TotalScored       int            `json:"total_scored"`
	TotalDirect       int            `json:"total_direct"`
	TotalDirectScored int            `json:"total_direct_scored"`
}

// HandleDashboard handles GET /api/dashboard?tier=N.
func (h *SentimentHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Dashboard(r.Context(), Tiers(r))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.dashboard", err)
		return
	}
	out := dashboardResponse{
		Tiers:         d.Tiers.Slice(),
		Clients:       make([]tileResponse, 0, len(d.Tiles)),
		TotalArticles:     d.TotalArticles,
		TotalScored:       d.TotalScored,
		TotalDirect:       d.TotalDirect,
		TotalDirectScored: d.TotalDirectScored,
	}
	for _, t := range d.Tiles {
		out.Clients = append(out.Clients, tileResponse{Client: types.NewClient(t.Client), Direct: t.Direct, Articles: t.Articles})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleClients handles GET /api/clients.
func (h *SentimentHandler) HandleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.deps.ListClients(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, "api.clients", err)
		return
	}
	out := make([]types.Client, 0, len(clients))
	for _, c := range clients {
		out = append(out, types.NewClient(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type sentimentResponse struct {
	Client     types.Client      `json:"client"`
	Tiers      []model.Tier      `json:"tiers"`
	Direct     service.ScopeView `json:"direct"`
	Industry   service.ScopeView `json:"industry"`
	Competitor service.ScopeView `json:"competitor"`
}

func newSentimentResponse(s service.Sentiment) sentimentResponse {
	return sentimentResponse{
		Client:     types.NewClient(s.Client),
		Tiers:      s.Tiers,
		Direct:     s.Direct,
		Industry:   s.Industry,
		Competitor: s.Competitor,
	}
}

// HandleSentiment handles GET /api/clients/{id}/sentiment?tier=N.
func (h *SentimentHandler) HandleSentiment(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	s, err := h.deps.ClientSentiment(r.Context(), id, Tiers(r))
	if err != nil {
		fail(r.Context(), h.logger, w, "api.client_sentiment", err)
		return
	}
	writeJSON(w, http.StatusOK, newSentimentResponse(s))
}

type clientArticlesResponse struct {
	sentimentResponse
	Label           string                    `json:"label,omitempty"`
	DirectArticles  types.Page[types.Article] `json:"direct_articles"`
	ContextArticles types.Page[types.Article] `json:"context_articles"`
}

// HandleClientArticles handles GET /api/clients/{id}/articles with tier,
// label, direct_page and context_page parameters.
func (h *SentimentHandler) HandleClientArticles(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	d, err := h.deps.ClientDetail(r.Context(), id, service.DetailQuery{
		Tiers:       Tiers(r),
		Label:       Label(r),
		DirectPage:  PageParam(r, "direct_page"),
		ContextPage: PageParam(r, "context_page"),
	})
	if err != nil {
		fail(r.Context(), h.logger, w, "api.client_articles", err)
		return
	}
	writeJSON(w, http.StatusOK, clientArticlesResponse{
		sentimentResponse: newSentimentResponse(d.Sentiment),
		Label:             string(d.Label),
		DirectArticles:    articlePage(d.Groups.Direct, d.Client.Name),
		ContextArticles:   articlePage(d.Groups.Context, d.Client.Name),
	})
}

func articlePage(p grouping.Page[model.Article], clientName string) types.Page[types.Article] {
	return types.Page[types.Article]{
		Items:      types.NewArticles(p.Items, clientName),
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}
