package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/okian/sentivision/internal/domain/model"
)

// Mention restricts articles to those whose title or body contains any of
// Patterns as a case-sensitive substring. An empty pattern list matches
// nothing. Negate selects the complement.
type Mention struct {
	Patterns []string
	Negate   bool
}

// ArticleQuery selects articles for the browser and per-client snapshots.
// Zero-valued fields do not constrain the result.
type ArticleQuery struct {
	ClientID *int64
	Mention  *Mention
	Tiers    []model.Tier
	Label    model.Label
	Limit    int
	Offset   int
}

// ArticlesForClient returns the client's articles within tiers, newest
// fetched first. It is the snapshot sentiment is computed from.
func (s *Store) ArticlesForClient(ctx context.Context, clientID int64, tiers []model.Tier) ([]model.Article, error) {
	return s.ListArticles(ctx, ArticleQuery{ClientID: &clientID, Tiers: tiers})
}

// ListArticles returns articles matching q ordered by fetch time, newest first.
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) (out []model.Article, err error) {
	defer s.observe(ctx, "list_articles", time.Now(), &err)

	where, args := s.articleWhere(q)
	query := "SELECT " + articleColumns + " FROM articles" + where + " ORDER BY fetched_at DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, max(0, q.Offset))
	}
	query, args, err = s.expand(query, args)
	if err != nil {
		return nil, err
	}

	var rows []articleRow
	if err = s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	out = make([]model.Article, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// CountArticles returns the number of articles matching q, ignoring paging.
func (s *Store) CountArticles(ctx context.Context, q ArticleQuery) (n int, err error) {
	defer s.observe(ctx, "count_articles", time.Now(), &err)

	where, args := s.articleWhere(q)
	query, args, err := s.expand("SELECT COUNT(*) FROM articles"+where, args)
	if err != nil {
		return 0, err
	}
	if err = s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// GetArticle loads one article. Returns ErrNotFound for unknown ids.
func (s *Store) GetArticle(ctx context.Context, id int64) (a model.Article, err error) {
	defer s.observe(ctx, "get_article", time.Now(), &err)

	var r articleRow
	if err = s.db.GetContext(ctx, &r, s.rebind("SELECT "+articleColumns+" FROM articles WHERE id = ?"), id); err != nil {
		return model.Article{}, fmt.Errorf("get article %d: %w", id, translate(err))
	}
	return r.model(), nil
}

// ArticleTags returns the tags the pipeline attached to an article.
func (s *Store) ArticleTags(ctx context.Context, articleID int64) (out []model.TagMatch, err error) {
	defer s.observe(ctx, "article_tags", time.Now(), &err)

	var rows []struct {
		TagID          int64    `db:"tag_id"`
		Name           string   `db:"name"`
		TagType        string   `db:"tag_type"`
		Color          *string  `db:"color"`
		MatchedKeyword *string  `db:"matched_keyword"`
		Confidence     *float64 `db:"confidence"`
	}
	q := s.rebind(`SELECT t.id AS tag_id, t.name, t.tag_type, t.color, at.matched_keyword, at.confidence
		FROM article_tags at JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id = ? ORDER BY t.tag_type, t.name`)
	if err = s.db.SelectContext(ctx, &rows, q, articleID); err != nil {
		return nil, fmt.Errorf("article %d tags: %w", articleID, err)
	}
	out = make([]model.TagMatch, 0, len(rows))
	for _, r := range rows {
		m := model.TagMatch{TagID: r.TagID, Name: r.Name, Type: model.TagType(r.TagType), Color: model.DefaultTagColor, Confidence: 1}
		if r.Color != nil && *r.Color != "" {
			m.Color = *r.Color
		}
		if r.MatchedKeyword != nil {
			m.MatchedKeyword = *r.MatchedKeyword
		}
		if r.Confidence != nil {
			m.Confidence = *r.Confidence
		}
		out = append(out, m)
	}
	return out, nil
}

// articleWhere builds the WHERE clause for q using '?' placeholders. Tier
// lists are left as a single slice argument for sqlx.In to expand.
func (s *Store) articleWhere(q ArticleQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.ClientID != nil {
		conds = append(conds, "client_id = ?")
		args = append(args, *q.ClientID)
	}
	if len(q.Tiers) > 0 {
		tiers := make([]int, 0, len(q.Tiers))
		for _, t := range q.Tiers {
			tiers = append(tiers, int(t))
		}
		conds = append(conds, "media_tier IN (?)")
		args = append(args, tiers)
	}
	if q.Label != model.LabelNone {
		conds = append(conds, "sentiment_label = ?")
		args = append(args, string(q.Label))
	}
	if q.Mention != nil {
		cond, margs := s.mentionCond(*q.Mention)
		if cond != "" {
			conds = append(conds, cond)
			args = append(args, margs...)
		}
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// mentionCond renders a case-sensitive substring test. LIKE is avoided
// because sqlite compares ASCII case-insensitively; mysql compares with a
// binary cast since its default collations ignore case.
func (s *Store) mentionCond(m Mention) (string, []any) {
	contains := "instr(COALESCE(%s, ''), ?) > 0"
	switch s.driver {
	case DriverPostgres:
		contains = "strpos(COALESCE(%s, ''), ?) > 0"
	case DriverMySQL:
		contains = "INSTR(CAST(COALESCE(%s, '') AS BINARY), CAST(? AS BINARY)) > 0"
	}
	var (
		parts []string
		args  []any
	)
	for _, p := range m.Patterns {
		if p == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(contains, "title"), fmt.Sprintf(contains, "content_text"))
		args = append(args, p, p)
	}
	if len(parts) == 0 {
		if m.Negate {
			return "", nil
		}
		return "1 = 0", nil
	}
	cond := "(" + strings.Join(parts, " OR ") + ")"
	if m.Negate {
		cond = "NOT " + cond
	}
	return cond, args
}

// expand applies sqlx.In for slice arguments and rebinds placeholders.
func (s *Store) expand(query string, args []any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand query: %w", err)
	}
	return s.rebind(query), args, nil
}
