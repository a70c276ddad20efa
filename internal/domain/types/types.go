// Package types contains the JSON shapes shared by the API and the CLI.
package types

import (
	"time"

	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
)

// Client is the wire form of a monitored client.
type Client struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Industries  []string `json:"industries"`
	Competitors []string `json:"competitors"`
}

// NewClient converts a stored client.
func NewClient(c model.Client) Client {
	return Client{
		ID:          c.ID,
		Name:        c.Name,
		Industries:  nonNil(c.Industries),
		Competitors: nonNil(c.Competitors),
	}
}

// Article is the wire form of an article with its badge.
type Article struct {
	ID             int64         `json:"id"`
	ClientID       int64         `json:"client_id"`
	ClientName     string        `json:"client_name,omitempty"`
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	Summary        string        `json:"summary,omitempty"`
	Author         string        `json:"author,omitempty"`
	SentimentScore *float64      `json:"sentiment_score"`
	SentimentLabel string        `json:"sentiment_label,omitempty"`
	MediaTier      model.Tier    `json:"media_tier"`
	PublishedAt    *time.Time    `json:"published_at,omitempty"`
	FetchedAt      time.Time     `json:"fetched_at"`
	Badge          scoring.Badge `json:"badge"`
}

// NewArticle converts a stored article. The badge is derived from its score.
func NewArticle(a model.Article, clientName string) Article {
	return Article{
		ID:             a.ID,
		ClientID:       a.ClientID,
		ClientName:     clientName,
		URL:            a.URL,
		Title:          a.Title,
		Summary:        a.Summary,
		Author:         a.Author,
		SentimentScore: a.SentimentScore,
		SentimentLabel: string(a.SentimentLabel),
		MediaTier:      a.MediaTier,
		PublishedAt:    a.PublishedAt,
		FetchedAt:      a.FetchedAt,
		Badge:          scoring.BadgeFor(a),
	}
}

// NewArticles converts a list of articles owned by one client.
func NewArticles(items []model.Article, clientName string) []Article {
	out := make([]Article, 0, len(items))
	for _, a := range items {
		out = append(out, NewArticle(a, clientName))
	}
	return out
}

// Tag is a tag attached to an article.
type Tag struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Color          string  `json:"color"`
	MatchedKeyword string  `json:"matched_keyword,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// NewTags converts article tag links.
func NewTags(in []model.TagMatch) []Tag {
	out := make([]Tag, 0, len(in))
	for _, t := range in {
		out = append(out, Tag{
			ID:             t.TagID,
			Name:           t.Name,
			Type:           string(t.Type),
			Color:          t.Color,
			MatchedKeyword: t.MatchedKeyword,
			Confidence:     t.Confidence,
		})
	}
	return out
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
