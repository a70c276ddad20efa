package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/sentivision/internal/domain/model"
)

type clientRow struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Industries  string    `db:"industries"`
	Competitors string    `db:"competitors"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const clientColumns = "id, name, industries, competitors, created_at, updated_at"

func (r clientRow) model() (model.Client, error) {
	industries, err := decodeList(r.Industries)
	if err != nil {
		return model.Client{}, fmt.Errorf("client %d industries: %w", r.ID, err)
	}
	competitors, err := decodeList(r.Competitors)
	if err != nil {
		return model.Client{}, fmt.Errorf("client %d competitors: %w", r.ID, err)
	}
	return model.Client{
		ID:          r.ID,
		Name:        r.Name,
		Industries:  industries,
		Competitors: competitors,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type sourceRow struct {
	ID         int64         `db:"id"`
	ClientID   sql.NullInt64 `db:"client_id"`
	Name       string        `db:"name"`
	SourceType string        `db:"source_type"`
	URL        string        `db:"url"`
	Enabled    bool          `db:"enabled"`
	MediaTier  int           `db:"media_tier"`
	IsGlobal   bool          `db:"is_global"`
	CreatedAt  time.Time     `db:"created_at"`
}

const sourceColumns = "id, client_id, name, source_type, url, enabled, media_tier, is_global, created_at"

func (r sourceRow) model() model.Source {
	return model.Source{
		ID:        r.ID,
		ClientID:  nullInt(r.ClientID),
		Name:      r.Name,
		Type:      model.SourceType(r.SourceType),
		URL:       r.URL,
		Enabled:   r.Enabled,
		MediaTier: model.Tier(r.MediaTier),
		Global:    r.IsGlobal,
		CreatedAt: r.CreatedAt,
	}
}

type articleRow struct {
	ID             int64           `db:"id"`
	ClientID       int64           `db:"client_id"`
	SourceID       sql.NullInt64   `db:"source_id"`
	URL            string          `db:"url"`
	Title          sql.NullString  `db:"title"`
	Author         sql.NullString  `db:"author"`
	PublishedDate  sql.NullTime    `db:"published_date"`
	FetchedAt      time.Time       `db:"fetched_at"`
	ContentText    sql.NullString  `db:"content_text"`
	Summary        sql.NullString  `db:"summary"`
	SentimentScore sql.NullFloat64 `db:"sentiment_score"`
	SentimentLabel sql.NullString  `db:"sentiment_label"`
	ScoreMethod    sql.NullString  `db:"score_method"`
	MediaTier      int             `db:"media_tier"`
}

const articleColumns = "id, client_id, source_id, url, title, author, published_date, fetched_at, " +
	"content_text, summary, sentiment_score, sentiment_label, score_method, media_tier"

func (r articleRow) model() model.Article {
	a := model.Article{
		ID:             r.ID,
		ClientID:       r.ClientID,
		SourceID:       nullInt(r.SourceID),
		URL:            r.URL,
		Title:          r.Title.String,
		Body:           r.ContentText.String,
		Summary:        r.Summary.String,
		Author:         r.Author.String,
		SentimentLabel: model.ParseLabel(r.SentimentLabel.String),
		ScoreMethod:    r.ScoreMethod.String,
		MediaTier:      model.Tier(r.MediaTier),
		FetchedAt:      r.FetchedAt,
	}
	if r.SentimentScore.Valid {
		v := r.SentimentScore.Float64
		a.SentimentScore = &v
	}
	if r.PublishedDate.Valid {
		t := r.PublishedDate.Time
		a.PublishedAt = &t
	}
	return a
}

type tagRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	TagType     string         `db:"tag_type"`
	Scope       string         `db:"scope"`
	ClientID    sql.NullInt64  `db:"client_id"`
	Keywords    string         `db:"keywords"`
	MatchMethod string         `db:"match_method"`
	Color       sql.NullString `db:"color"`
	Enabled     bool           `db:"enabled"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

const tagColumns = "id, name, tag_type, scope, client_id, keywords, match_method, color, enabled, created_at, updated_at"

func (r tagRow) model() (model.Tag, error) {
	keywords, err := decodeList(r.Keywords)
	if err != nil {
		return model.Tag{}, fmt.Errorf("tag %d keywords: %w", r.ID, err)
	}
	color := r.Color.String
	if color == "" {
		color = model.DefaultTagColor
	}
	return model.Tag{
		ID:          r.ID,
		Name:        r.Name,
		Type:        model.TagType(r.TagType),
		Scope:       model.TagScope(r.Scope),
		ClientID:    nullInt(r.ClientID),
		Keywords:    keywords,
		MatchMethod: r.MatchMethod,
		Color:       color,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type fetchLogRow struct {
	ID            int64          `db:"id"`
	SourceID      int64          `db:"source_id"`
	SourceName    sql.NullString `db:"source_name"`
	RunStartedAt  time.Time      `db:"run_started_at"`
	RunFinishedAt sql.NullTime   `db:"run_finished_at"`
	ArticlesFound sql.NullInt64  `db:"articles_found"`
	ArticlesNew   sql.NullInt64  `db:"articles_new"`
	Status        string         `db:"status"`
	ErrorMessage  sql.NullString `db:"error_message"`
}

func (r fetchLogRow) model() model.FetchLog {
	l := model.FetchLog{
		ID:            r.ID,
		SourceID:      r.SourceID,
		SourceName:    r.SourceName.String,
		StartedAt:     r.RunStartedAt,
		ArticlesFound: int(r.ArticlesFound.Int64),
		ArticlesNew:   int(r.ArticlesNew.Int64),
		Status:        r.Status,
		Error:         r.ErrorMessage.String,
	}
	if r.RunFinishedAt.Valid {
		t := r.RunFinishedAt.Time
		l.FinishedAt = &t
	}
	return l
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// encodeList stores keyword lists as JSON arrays, the format the fetch
// pipeline reads.
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
