// Package service computes the dashboard views over the shared store and
// keeps the clients file in step with client and source edits.
package service

import (
	"context"
	"fmt"

	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/grouping"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/pkg/logger"
)

// Store is the persistence the service reads and writes.
type Store interface {
	Ping(ctx context.Context) error
	Driver() string
	Migrate(ctx context.Context) error

	ListClients(ctx context.Context) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (model.Client, error)
	CreateClient(ctx context.Context, c model.Client) (model.Client, error)
	UpdateClient(ctx context.Context, c model.Client) (model.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	ListSources(ctx context.Context, clientID *int64) ([]model.Source, error)
	GetSource(ctx context.Context, id int64) (model.Source, error)
	CreateSource(ctx context.Context, src model.Source) (model.Source, error)
	UpdateSource(ctx context.Context, src model.Source) (model.Source, error)
	SetSourceEnabled(ctx context.Context, id int64, enabled bool) error
	DeleteSource(ctx context.Context, id int64) error

	ListTags(ctx context.Context, f repository.TagFilter) ([]model.Tag, error)
	GetTag(ctx context.Context, id int64) (model.Tag, error)
	CreateTag(ctx context.Context, t model.Tag) (model.Tag, error)
	UpdateTag(ctx context.Context, id int64, p repository.TagPatch) (model.Tag, error)
	DeleteTag(ctx context.Context, id int64) error

	ArticlesForClient(ctx context.Context, clientID int64, tiers []model.Tier) ([]model.Article, error)
	ListArticles(ctx context.Context, q repository.ArticleQuery) ([]model.Article, error)
	CountArticles(ctx context.Context, q repository.ArticleQuery) (int, error)
	GetArticle(ctx context.Context, id int64) (model.Article, error)
	ArticleTags(ctx context.Context, articleID int64) ([]model.TagMatch, error)

	TableCounts(ctx context.Context) ([]repository.TableCount, error)
	RecentFetchLogs(ctx context.Context, limit int) ([]model.FetchLog, error)
}

const (
	defaultPreviewSample = 50
	defaultFetchLogLimit = 25
)

// Service implements the dashboard operations. It holds no state between
// requests; every view is recomputed from a fresh store snapshot.
type Service struct {
	store          Store
	clientsFile    string
	settingsFile   string
	pageSize       int
	previewSample  int
	fetchLogLimit  int
	migrateOnStart bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClientsFile sets the clients YAML path rewritten after client and
// source edits. An empty path disables the export.
func WithClientsFile(path string) Option {
	return func(s *Service) {
		s.clientsFile = path
	}
}

// WithSettingsFile sets the pipeline settings path holding global sources.
func WithSettingsFile(path string) Option {
	return func(s *Service) {
		s.settingsFile = path
	}
}

// WithPageSize sets the article list page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPreviewSample sets how many recent articles a tag preview scans.
func WithPreviewSample(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.previewSample = n
		}
	}
}

// WithMigrateOnStart makes Start apply schema migrations.
func WithMigrateOnStart(enabled bool) Option {
	return func(s *Service) {
		s.migrateOnStart = enabled
	}
}

// New constructs a Service over store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		pageSize:      grouping.DefaultPageSize,
		previewSample: defaultPreviewSample,
		fetchLogLimit: defaultFetchLogLimit,
		logger:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start verifies the store is reachable and applies migrations when enabled.
func (s *Service) Start(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	if s.migrateOnStart {
		if err := s.store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Info(ctx, "sentiment service started",
		logger.String("driver", s.store.Driver()),
		logger.String("clientsFile", s.clientsFile),
		logger.Int("pageSize", s.pageSize),
	)
	return nil
}

// PageSize returns the configured article page size.
func (s *Service) PageSize() int { return s.pageSize }

// Healthy reports whether the store answers pings.
func (s *Service) Healthy(ctx context.Context) error {
	return s.store.Ping(ctx)
}
