package service

import (
	"context"
	"strings"

	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/grouping"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
	"github.com/okian/sentivision/pkg/logger"
)

// ArticleView is an article with its client name and badge.
type ArticleView struct {
	model.Article
	ClientName string        `json:"client_name"`
	Badge      scoring.Badge `json:"badge"`
}

// ArticleListQuery selects a page of the article browser.
type ArticleListQuery struct {
	ClientID *int64
	Search   string
	Tiers    scoring.TierSet
	Label    model.Label
	Page     int
}

// ArticleList is one page of the article browser.
type ArticleList struct {
	Query   ArticleListQuery
	Page    grouping.Page[ArticleView]
	Clients []model.Client
}

// Articles pages through all articles newest first. Search is a
// case-sensitive substring over title and body.
func (s *Service) Articles(ctx context.Context, q ArticleListQuery) (ArticleList, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return ArticleList{}, unavailable("articles", err)
	}
	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	rq := repository.ArticleQuery{ClientID: q.ClientID, Label: q.Label}
	if !q.Tiers.All() {
		rq.Tiers = q.Tiers.Slice()
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		rq.Mention = &repository.Mention{Patterns: []string{search}}
	}
	if q.Tiers.Empty() {
		// An empty tier selection matches nothing.
		return ArticleList{Query: q, Page: grouping.NewPage[ArticleView](nil, q.Page, s.pageSize, 0), Clients: clients}, nil
	}

	total, err := s.store.CountArticles(ctx, rq)
	if err != nil {
		return ArticleList{}, unavailable("articles", err)
	}
	page := grouping.ClampPage(q.Page)
	var views []ArticleView
	if grouping.Offset(page, s.pageSize) < total {
		rq.Limit = s.pageSize
		rq.Offset = grouping.Offset(page, s.pageSize)
		items, err := s.store.ListArticles(ctx, rq)
		if err != nil {
			return ArticleList{}, unavailable("articles", err)
		}
		views = make([]ArticleView, 0, len(items))
		for _, a := range items {
			views = append(views, ArticleView{Article: a, ClientName: names[a.ClientID], Badge: scoring.BadgeFor(a)})
		}
	}
	return ArticleList{
		Query:   q,
		Page:    grouping.NewPage(views, page, s.pageSize, total),
		Clients: clients,
	}, nil
}

// ArticleDetail is a single article with its tags.
type ArticleDetail struct {
	ArticleView
	Tags []model.TagMatch `json:"tags"`
}

// Article loads one article, its client name and its tags.
func (s *Service) Article(ctx context.Context, id int64) (ArticleDetail, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return ArticleDetail{}, unavailable("article", err)
	}
	view := ArticleView{Article: a, Badge: scoring.BadgeFor(a)}
	if c, err := s.store.GetClient(ctx, a.ClientID); err == nil {
		view.ClientName = c.Name
	} else {
		s.logger.Warn(ctx, "article client unavailable", logger.Int64("article", id), logger.Error(err))
	}
	tags, err := s.store.ArticleTags(ctx, id)
	if err != nil {
		return ArticleDetail{}, unavailable("article tags", err)
	}
	return ArticleDetail{ArticleView: view, Tags: tags}, nil
}
