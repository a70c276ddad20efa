// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Tier is a discrete source-quality classification.
type Tier int

// Media tiers, best first.
const (
	TierMajor    Tier = 1 // major/national outlets
	TierBusiness Tier = 2 // business and trade press
	TierIndustry Tier = 3 // industry trades
	TierVendor   Tier = 4 // vendor and marketing content
)

// DefaultTier is assigned to sources that do not declare one.
const DefaultTier = TierIndustry

// AllTiers lists every known tier in ascending order.
var AllTiers = []Tier{TierMajor, TierBusiness, TierIndustry, TierVendor}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool { return t >= TierMajor && t <= TierVendor }

// Name returns the human readable tier description.
func (t Tier) Name() string {
	switch t {
	case TierMajor:
		return "Major / national"
	case TierBusiness:
		return "Business / trade"
	case TierIndustry:
		return "Industry trade"
	case TierVendor:
		return "Vendor / marketing"
	default:
		return "Unknown"
	}
}

// Label is the categorical sentiment assigned by the upstream scorer.
// The empty label means the article has not been labelled.
type Label string

// Sentiment labels as stored by the scoring pipeline.
const (
	LabelNone     Label = ""
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// ParseLabel normalizes a user supplied label. Unknown values map to LabelNone.
func ParseLabel(s string) Label {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case LabelPositive:
		return LabelPositive
	case LabelNeutral:
		return LabelNeutral
	case LabelNegative:
		return LabelNegative
	default:
		return LabelNone
	}
}

// Article is a single piece of monitored content. It is written by the
// external fetch pipeline and only read by this service.
type Article struct {
	ID             int64
	ClientID       int64
	SourceID       *int64
	URL            string
	Title          string
	Body           string
	Summary        string
	Author         string
	SentimentScore *float64
	SentimentLabel Label
	ScoreMethod    string
	MediaTier      Tier
	PublishedAt    *time.Time
	FetchedAt      time.Time
}

// Scored reports whether the upstream scorer produced a numeric score.
func (a Article) Scored() bool { return a.SentimentScore != nil }
