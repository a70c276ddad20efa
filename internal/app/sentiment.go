package service

import (
	"context"

	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/grouping"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
	"github.com/okian/sentivision/pkg/logger"
	"github.com/okian/sentivision/pkg/metrics"
)

// ScopeView is one aggregate together with its gauge.
type ScopeView struct {
	Result scoring.Result `json:"result"`
	Gauge  scoring.Gauge  `json:"gauge"`
}

func newScopeView(r scoring.Result) ScopeView {
	return ScopeView{Result: r, Gauge: scoring.ToGauge(r.WeightedMean)}
}

// Tile is a client's summary on the dashboard.
type Tile struct {
	Client   model.Client `json:"client"`
	Direct   ScopeView    `json:"direct"`
	Articles int          `json:"articles"`
}

// Dashboard is the overview of every client. TotalArticles and TotalScored
// cover every article in the tier selection; the Direct totals only the
// articles that name their client.
type Dashboard struct {
	Tiers             scoring.TierSet `json:"-"`
	Tiles             []Tile          `json:"tiles"`
	TotalArticles     int             `json:"total_articles"`
	TotalScored       int             `json:"total_scored"`
	TotalDirect       int             `json:"total_direct"`
	TotalDirectScored int             `json:"total_direct_scored"`
}

// Dashboard aggregates direct-mention sentiment for every client within tiers.
func (s *Service) Dashboard(ctx context.Context, tiers scoring.TierSet) (Dashboard, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return Dashboard{}, unavailable("dashboard", err)
	}
	metrics.UpdateClientsTotal(len(clients))

	d := Dashboard{Tiers: tiers, Tiles: make([]Tile, 0, len(clients))}
	for _, c := range clients {
		items, err := s.store.ArticlesForClient(ctx, c.ID, tiers.Slice())
		if err != nil {
			return Dashboard{}, unavailable("dashboard", err)
		}
		direct := scoring.Aggregate(items, scoring.DirectMention(c), tiers)
		s.recordAggregation(ctx, metrics.ScopeDirect, direct)

		d.Tiles = append(d.Tiles, Tile{Client: c, Direct: newScopeView(direct), Articles: len(items)})
		d.TotalArticles += len(items)
		d.TotalDirect += direct.Total
		d.TotalDirectScored += direct.Scored
		for _, a := range items {
			if a.SentimentScore != nil {
				d.TotalScored++
			}
		}
	}
	return d, nil
}

// Sentiment holds the three scope aggregates of one client.
type Sentiment struct {
	Client     model.Client    `json:"client"`
	Tiers      []model.Tier    `json:"tiers"`
	Direct     ScopeView       `json:"direct"`
	Industry   ScopeView       `json:"industry"`
	Competitor ScopeView       `json:"competitor"`
	tierSet    scoring.TierSet
}

// TierSet returns the tier selection the aggregates were computed under.
func (v Sentiment) TierSet() scoring.TierSet { return v.tierSet }

// ClientSentiment computes the direct, industry and competitor aggregates
// for a client from one snapshot of its articles.
func (s *Service) ClientSentiment(ctx context.Context, clientID int64, tiers scoring.TierSet) (Sentiment, error) {
	c, items, err := s.snapshot(ctx, clientID, tiers)
	if err != nil {
		return Sentiment{}, err
	}
	return s.sentiment(ctx, c, items, tiers), nil
}

// DetailQuery selects the client detail view.
type DetailQuery struct {
	Tiers       scoring.TierSet
	Label       model.Label
	DirectPage  int
	ContextPage int
}

// ClientDetail is the full client page: aggregates plus grouped articles.
type ClientDetail struct {
	Sentiment
	Label  model.Label     `json:"label,omitempty"`
	Groups grouping.Groups `json:"groups"`
	Tags   []model.Tag     `json:"-"`
}

// ClientDetail computes the client page. Aggregates and groups come from
// the same snapshot so their counts agree.
func (s *Service) ClientDetail(ctx context.Context, clientID int64, q DetailQuery) (ClientDetail, error) {
	c, items, err := s.snapshot(ctx, clientID, q.Tiers)
	if err != nil {
		return ClientDetail{}, err
	}
	groups := grouping.Group(items, scoring.DirectMention(c), grouping.Request{
		Filter:      grouping.Filter{Tiers: q.Tiers, Label: q.Label},
		PageSize:    s.pageSize,
		DirectPage:  q.DirectPage,
		ContextPage: q.ContextPage,
	})
	tags, err := s.tagsForClient(ctx, c.ID)
	if err != nil {
		s.logger.Warn(ctx, "client tags unavailable", logger.Int64("client", c.ID), logger.Error(err))
	}
	return ClientDetail{
		Sentiment: s.sentiment(ctx, c, items, q.Tiers),
		Label:     q.Label,
		Groups:    groups,
		Tags:      tags,
	}, nil
}

func (s *Service) snapshot(ctx context.Context, clientID int64, tiers scoring.TierSet) (model.Client, []model.Article, error) {
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return model.Client{}, nil, unavailable("client snapshot", err)
	}
	items, err := s.store.ArticlesForClient(ctx, c.ID, tiers.Slice())
	if err != nil {
		return model.Client{}, nil, unavailable("client snapshot", err)
	}
	return c, items, nil
}

func (s *Service) sentiment(ctx context.Context, c model.Client, items []model.Article, tiers scoring.TierSet) Sentiment {
	scopes := scoring.AggregateScopes(c, items, tiers)
	s.recordAggregation(ctx, metrics.ScopeDirect, scopes.Direct)
	s.recordAggregation(ctx, metrics.ScopeIndustry, scopes.Industry)
	s.recordAggregation(ctx, metrics.ScopeCompetitor, scopes.Competitor)
	return Sentiment{
		Client:     c,
		Tiers:      tiers.Slice(),
		Direct:     newScopeView(scopes.Direct),
		Industry:   newScopeView(scopes.Industry),
		Competitor: newScopeView(scopes.Competitor),
		tierSet:    tiers,
	}
}

func (s *Service) recordAggregation(ctx context.Context, scope string, r scoring.Result) {
	if err := metrics.RecordAggregation(scope, r.Total); err != nil {
		s.logger.Debug(ctx, "aggregation metric skipped", logger.Error(err))
	}
}

func (s *Service) tagsForClient(ctx context.Context, clientID int64) ([]model.Tag, error) {
	global, err := s.store.ListTags(ctx, repository.TagFilter{Scope: model.ScopeGlobal})
	if err != nil {
		return nil, classify("list tags", err)
	}
	own, err := s.store.ListTags(ctx, repository.TagFilter{Scope: model.ScopeClient, ClientID: &clientID})
	if err != nil {
		return nil, classify("list tags", err)
	}
	return append(global, own...), nil
}
