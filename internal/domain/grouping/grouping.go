package grouping

import (
	"sort"

	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
)

// Filter narrows both groups. An empty Label means any label.
type Filter struct {
	Tiers scoring.TierSet
	Label model.Label
}

func (f Filter) match(a model.Article) bool {
	if !f.Tiers.Contains(a.MediaTier) {
		return false
	}
	return f.Label == model.LabelNone || a.SentimentLabel == f.Label
}

// Request selects page size and the independent page numbers of both lists.
type Request struct {
	Filter      Filter
	PageSize    int
	DirectPage  int
	ContextPage int
}

// Groups holds the direct mentions and their complement.
type Groups struct {
	Direct  Page[model.Article] `json:"direct"`
	Context Page[model.Article] `json:"context"`
}

// Group partitions items into those matching member and the rest, applies
// the filter to both, orders each by fetch time (newest first) and paginates
// them independently.
func Group(items []model.Article, member scoring.Predicate, req Request) Groups {
	direct := selectWhere(items, req.Filter, member)
	context := selectWhere(items, req.Filter, scoring.Not(member))
	sortNewestFirst(direct)
	sortNewestFirst(context)
	return Groups{
		Direct:  Paginate(direct, req.DirectPage, req.PageSize),
		Context: Paginate(context, req.ContextPage, req.PageSize),
	}
}

func selectWhere(items []model.Article, f Filter, keep scoring.Predicate) []model.Article {
	var out []model.Article
	for _, a := range items {
		if f.match(a) && keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func sortNewestFirst(items []model.Article) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].FetchedAt.Equal(items[j].FetchedAt) {
			return items[i].FetchedAt.After(items[j].FetchedAt)
		}
		return items[i].ID > items[j].ID
	})
}
