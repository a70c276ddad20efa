package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Validation errors for configuration entities.
var (
	ErrNameRequired    = errors.New("name is required")
	ErrURLRequired     = errors.New("url is required")
	ErrInvalidType     = errors.New("invalid source type")
	ErrInvalidTier     = errors.New("tier must be 1-4")
	ErrInvalidScope    = errors.New("invalid tag scope")
	ErrInvalidTagType  = errors.New("invalid tag type")
	ErrInvalidColor    = errors.New("color must be #rrggbb")
	ErrKeywordsMissing = errors.New("at least one keyword is required")
	ErrClientRequired  = errors.New("client is required for non-global sources")
)

// Client is a monitored company.
type Client struct {
	ID          int64
	Name        string
	Industries  []string
	Competitors []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks required fields.
func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// SourceType describes how the batch pipeline fetches a source.
type SourceType string

// Supported source types.
const (
	SourceRSS    SourceType = "rss"
	SourceHTML   SourceType = "html"
	SourceSearch SourceType = "search"
)

// Valid reports whether t is a supported source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceRSS, SourceHTML, SourceSearch:
		return true
	}
	return false
}

// Source is a content feed. Global sources have no owning client.
type Source struct {
	ID        int64
	ClientID  *int64
	Name      string
	Type      SourceType
	URL       string
	Enabled   bool
	MediaTier Tier
	Global    bool
	CreatedAt time.Time
}

// Validate checks required fields and enumerations.
func (s Source) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return ErrNameRequired
	case strings.TrimSpace(s.URL) == "":
		return ErrURLRequired
	case !s.Type.Valid():
		return ErrInvalidType
	case !s.MediaTier.Valid():
		return ErrInvalidTier
	case !s.Global && s.ClientID == nil:
		return ErrClientRequired
	}
	return nil
}

// TagScope controls which clients' articles a tag applies to.
type TagScope string

// Tag scopes.
const (
	ScopeGlobal TagScope = "global"
	ScopeClient TagScope = "client"
)

// TagType separates ESG classification tags from operator defined ones.
type TagType string

// Tag types.
const (
	TagESG    TagType = "esg"
	TagCustom TagType = "custom"
)

// DefaultTagColor is used when no color is given.
const DefaultTagColor = "#6366f1"

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Tag is a keyword-based article classifier.
type Tag struct {
	ID          int64
	Name        string
	Type        TagType
	Scope       TagScope
	ClientID    *int64
	Keywords    []string
	MatchMethod string
	Color       string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks required fields and enumerations.
func (t Tag) Validate() error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return ErrNameRequired
	case t.Type != TagESG && t.Type != TagCustom:
		return ErrInvalidTagType
	case t.Scope != ScopeGlobal && t.Scope != ScopeClient:
		return ErrInvalidScope
	case t.Scope == ScopeClient && t.ClientID == nil:
		return ErrInvalidScope
	case !colorRe.MatchString(t.Color):
		return ErrInvalidColor
	case len(CleanKeywords(t.Keywords)) == 0:
		return ErrKeywordsMissing
	}
	return nil
}

// TagMatch links an article to a tag that matched it.
type TagMatch struct {
	TagID          int64
	Name           string
	Type           TagType
	Color          string
	MatchedKeyword string
	Confidence     float64
}

// FetchLog is one fetch attempt recorded by the batch pipeline.
type FetchLog struct {
	ID            int64
	SourceID      int64
	SourceName    string
	StartedAt     time.Time
	FinishedAt    *time.Time
	ArticlesFound int
	ArticlesNew   int
	Status        string
	Error         string
}

// CleanKeywords trims entries and drops empties and duplicates, keeping order.
func CleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// SplitKeywords parses a comma or newline separated keyword list from a form field.
func SplitKeywords(s string) []string {
	return CleanKeywords(strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }))
}
