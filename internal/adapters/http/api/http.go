// Package api serves the JSON endpoints, health and metrics, and the
// middleware shared with the HTML site.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
	"github.com/okian/sentivision/pkg/logger"
	"github.com/okian/sentivision/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Dashboard(ctx context.Context, tiers scoring.TierSet) (service.Dashboard, error)
	ClientSentiment(ctx context.Context, id int64, tiers scoring.TierSet) (service.Sentiment, error)
	ClientDetail(ctx context.Context, id int64, q service.DetailQuery) (service.ClientDetail, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	Articles(ctx context.Context, q service.ArticleListQuery) (service.ArticleList, error)
	Article(ctx context.Context, id int64) (service.ArticleDetail, error)
	ExportClients(ctx context.Context) (service.ExportResult, error)
	Healthy(ctx context.Context) error
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	healthHandler    *HealthHandler
	sentimentHandler *SentimentHandler
	articlesHandler  *ArticlesHandler
	exportHandler    *ExportHandler
	logger           logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger handlers report failures to.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.sentimentHandler = NewSentimentHandler(deps, s.logger)
	s.articlesHandler = NewArticlesHandler(deps, s.logger)
	s.exportHandler = NewExportHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/dashboard", MetricsMiddleware(s.sentimentHandler.HandleDashboard, "api_dashboard"))
	mux.HandleFunc("GET /api/clients", MetricsMiddleware(s.sentimentHandler.HandleClients, "api_clients"))
	mux.HandleFunc("GET /api/clients/{id}/sentiment", MetricsMiddleware(s.sentimentHandler.HandleSentiment, "api_client_sentiment"))
	mux.HandleFunc("GET /api/clients/{id}/articles", MetricsMiddleware(s.sentimentHandler.HandleClientArticles, "api_client_articles"))
	mux.HandleFunc("POST /api/clients/export", MetricsMiddleware(s.exportHandler.HandleExport, "api_clients_export"))
	mux.HandleFunc("GET /api/articles", MetricsMiddleware(s.articlesHandler.HandleList, "api_articles"))
	mux.HandleFunc("GET /api/articles/{id}", MetricsMiddleware(s.articlesHandler.HandleGet, "api_article"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status StatusFor picks. Server side failures
// are logged.
func fail(ctx context.Context, l logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		metrics.RecordErrorByComponent("api", code)
	}
	writeError(w, status, code, err)
}
