// Package tagmatch matches article text against keyword tags.
package tagmatch

import (
	"regexp"
	"strings"

	"github.com/okian/sentivision/internal/domain/model"
)

// shortKeywordLen is the longest keyword that must match on word boundaries.
const shortKeywordLen = 3

// Match is a tag that matched a text.
type Match struct {
	TagID          int64
	TagName        string
	TagType        model.TagType
	MatchedKeyword string
}

// Matcher holds compiled keyword tags.
type Matcher struct {
	tags []compiledTag
}

type compiledTag struct {
	tag      model.Tag
	keywords []keyword
}

type keyword struct {
	raw   string
	lower string
	re    *regexp.Regexp
}

// New compiles enabled keyword tags. Tags using another match method are skipped.
func New(tags []model.Tag) *Matcher {
	m := &Matcher{}
	for _, t := range tags {
		if !t.Enabled || (t.MatchMethod != "" && t.MatchMethod != "keyword") {
			continue
		}
		ct := compiledTag{tag: t}
		for _, k := range t.Keywords {
			lower := strings.ToLower(strings.TrimSpace(k))
			if lower == "" {
				continue
			}
			kw := keyword{raw: k, lower: lower}
			if len([]rune(lower)) <= shortKeywordLen {
				kw.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(lower) + `\b`)
			}
			ct.keywords = append(ct.keywords, kw)
		}
		if len(ct.keywords) > 0 {
			m.tags = append(m.tags, ct)
		}
	}
	return m
}

// Match returns the tags matching text, case-insensitively. Each tag
// reports the first keyword that matched.
func (m *Matcher) Match(text string) []Match {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var out []Match
	for _, ct := range m.tags {
		for _, kw := range ct.keywords {
			var hit bool
			if kw.re != nil {
				hit = kw.re.MatchString(lower)
			} else {
				hit = strings.Contains(lower, kw.lower)
			}
			if hit {
				out = append(out, Match{
					TagID:          ct.tag.ID,
					TagName:        ct.tag.Name,
					TagType:        ct.tag.Type,
					MatchedKeyword: kw.raw,
				})
				break
			}
		}
	}
	return out
}

// MatchArticle matches against the article title and body.
func (m *Matcher) MatchArticle(a model.Article) []Match {
	return m.Match(strings.TrimSpace(a.Title + " " + a.Body))
}
