package scoring

import (
	"strings"

	"github.com/okian/sentivision/internal/domain/model"
)

// Predicate selects the articles that belong to an aggregation scope.
type Predicate func(model.Article) bool

// MentionsAny matches articles whose title or body contains any of the
// patterns as a case-sensitive substring. Matching is not tokenized, so a
// pattern also matches inside longer words. Blank patterns are ignored and
// an empty pattern list matches nothing.
func MentionsAny(patterns ...string) Predicate {
	ps := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			ps = append(ps, p)
		}
	}
	return func(a model.Article) bool {
		for _, p := range ps {
			if strings.Contains(a.Title, p) || strings.Contains(a.Body, p) {
				return true
			}
		}
		return false
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(a model.Article) bool { return !p(a) }
}

// DirectMention matches articles that name the client.
func DirectMention(c model.Client) Predicate { return MentionsAny(c.Name) }

// IndustryMention matches articles that mention any industry keyword of the client.
func IndustryMention(c model.Client) Predicate { return MentionsAny(c.Industries...) }

// CompetitorMention matches articles that mention any competitor of the client.
func CompetitorMention(c model.Client) Predicate { return MentionsAny(c.Competitors...) }

// Result is a derived aggregate over one scope. It is recomputed per request.
//
// Positive+Neutral+Negative <= Scored <= Total always holds.
type Result struct {
	WeightedMean *float64 `json:"weighted_mean_score"`
	Total        int      `json:"total_count"`
	Scored       int      `json:"scored_count"`
	Positive     int      `json:"positive_count"`
	Neutral      int      `json:"neutral_count"`
	Negative     int      `json:"negative_count"`
}

// Aggregate computes the tier-weighted mean score and label counts of the
// items selected by member whose tier is active. Degenerate input yields a
// zero result with a nil mean rather than an error.
func Aggregate(items []model.Article, member Predicate, tiers TierSet) Result {
	var (
		res       Result
		weighted  float64
		weightSum float64
	)
	for _, a := range items {
		if !tiers.Contains(a.MediaTier) || !member(a) {
			continue
		}
		res.Total++
		if a.SentimentScore == nil {
			continue
		}
		res.Scored++
		w := Weight(a.MediaTier)
		weighted += *a.SentimentScore * w
		weightSum += w

		switch a.SentimentLabel {
		case model.LabelPositive:
			res.Positive++
		case model.LabelNeutral:
			res.Neutral++
		case model.LabelNegative:
			res.Negative++
		}
	}
	if res.Scored > 0 && weightSum > 0 {
		mean := weighted / weightSum
		res.WeightedMean = &mean
	}
	return res
}

// Scopes holds the three per-client aggregates.
type Scopes struct {
	Direct     Result `json:"direct"`
	Industry   Result `json:"industry"`
	Competitor Result `json:"competitor"`
}

// AggregateScopes computes the direct, industry and competitor aggregates of a
// client's articles with the same tier selection.
func AggregateScopes(c model.Client, items []model.Article, tiers TierSet) Scopes {
	return Scopes{
		Direct:     Aggregate(items, DirectMention(c), tiers),
		Industry:   Aggregate(items, IndustryMention(c), tiers),
		Competitor: Aggregate(items, CompetitorMention(c), tiers),
	}
}
