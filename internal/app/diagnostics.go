package service

import (
	"context"
	"errors"
	"os"

	"github.com/okian/sentivision/internal/adapters/clientsfile"
	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/tagmatch"
)

// TagPreviewMatch is a recent article a tag would match.
type TagPreviewMatch struct {
	Article        ArticleView
	MatchedKeyword string
}

// TagPreview reports how a tag would classify recent articles.
type TagPreview struct {
	Tag     model.Tag
	Scanned int
	Matches []TagPreviewMatch
}

// TagPreview runs a tag's keywords over the latest articles in its scope.
// Disabled tags are previewed as if enabled.
func (s *Service) TagPreview(ctx context.Context, tagID int64) (TagPreview, error) {
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return TagPreview{}, classify("tag preview", err)
	}
	q := repository.ArticleQuery{Limit: s.previewSample}
	if tag.Scope == model.ScopeClient && tag.ClientID != nil {
		q.ClientID = tag.ClientID
	}
	items, err := s.store.ListArticles(ctx, q)
	if err != nil {
		return TagPreview{}, classify("tag preview", err)
	}

	candidate := tag
	candidate.Enabled = true
	m := tagmatch.New([]model.Tag{candidate})
	out := TagPreview{Tag: tag, Scanned: len(items)}
	for _, a := range items {
		hits := m.MatchArticle(a)
		if len(hits) == 0 {
			continue
		}
		out.Matches = append(out.Matches, TagPreviewMatch{
			Article:        ArticleView{Article: a},
			MatchedKeyword: hits[0].MatchedKeyword,
		})
	}
	return out, nil
}

// ClientsFileStatus describes the clients file on disk.
type ClientsFileStatus struct {
	Path    string
	Exists  bool
	Clients int
	Sources int
	Error   string
}

// Diagnostics summarizes store and configuration health.
type Diagnostics struct {
	Driver      string
	StoreOK     bool
	StoreError  string
	Tables      []repository.TableCount
	FetchLogs   []model.FetchLog
	ClientsFile ClientsFileStatus
}

// Diagnostics collects store reachability, table sizes, recent fetch runs
// and the state of the clients file. Failures are reported in the result.
func (s *Service) Diagnostics(ctx context.Context) Diagnostics {
	d := Diagnostics{Driver: s.store.Driver(), ClientsFile: s.clientsFileStatus()}
	if err := s.store.Ping(ctx); err != nil {
		d.StoreError = err.Error()
		return d
	}
	d.StoreOK = true

	tables, err := s.store.TableCounts(ctx)
	if err != nil {
		d.StoreError = err.Error()
		return d
	}
	d.Tables = tables
	logs, err := s.store.RecentFetchLogs(ctx, s.fetchLogLimit)
	if err != nil {
		d.StoreError = err.Error()
		return d
	}
	d.FetchLogs = logs
	return d
}

func (s *Service) clientsFileStatus() ClientsFileStatus {
	st := ClientsFileStatus{Path: s.clientsFile}
	if s.clientsFile == "" {
		return st
	}
	f, err := clientsfile.Load(s.clientsFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return st
	case err != nil:
		st.Exists = true
		st.Error = err.Error()
		return st
	}
	st.Exists = true
	st.Clients = len(f.Clients)
	for _, c := range f.Clients {
		st.Sources += len(c.FetchSources())
	}
	return st
}
