package site

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
)

func funcs() template.FuncMap {
	caser := cases.Title(language.English)
	return template.FuncMap{
		"title":    func(s any) string { return caser.String(fmt.Sprint(s)) },
		"allTiers": func() []model.Tier { return model.AllTiers },
		"hasTier":  func(set scoring.TierSet, t model.Tier) bool { return set.Contains(t) },
		"link":     link,
		"score":    formatScore,
		"date":     formatTime,
		"dateptr":  formatTimePtr,
		"join":     func(list []string) string { return strings.Join(list, ", ") },
		"lines":    func(list []string) string { return strings.Join(list, "\n") },
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"deref":    deref,
		"labels":   func() []model.Label { return []model.Label{model.LabelPositive, model.LabelNeutral, model.LabelNegative} },
		"badgeFor": scoring.BadgeFor,
		"types":    func() []model.SourceType { return []model.SourceType{model.SourceRSS, model.SourceHTML, model.SourceSearch} },
	}
}

// link builds path with the tier selection and extra key/value pairs.
// A full selection is left out of the query; empty values are dropped.
func link(path string, tiers scoring.TierSet, pairs ...any) string {
	v := url.Values{}
	if !tiers.All() {
		v = tiers.Query()
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprint(pairs[i])
		val := fmt.Sprint(pairs[i+1])
		if val == "" || val == "0" {
			continue
		}
		v.Set(key, val)
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func formatScore(s *float64) string {
	if s == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*s, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
