package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/model"
)

var errStoreDown = errors.New("connection refused")

// fakeStore is an in-memory Store. Setting fail makes every call error.
type fakeStore struct {
	fail     bool
	nextID   int64
	clients  map[int64]model.Client
	sources  map[int64]model.Source
	tags     map[int64]model.Tag
	articles []model.Article
	tagLinks map[int64][]model.TagMatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   100,
		clients:  map[int64]model.Client{},
		sources:  map[int64]model.Source{},
		tags:     map[int64]model.Tag{},
		tagLinks: map[int64][]model.TagMatch{},
	}
}

func (f *fakeStore) id() int64 { f.nextID++; return f.nextID }

func (f *fakeStore) check() error {
	if f.fail {
		return errStoreDown
	}
	return nil
}

func (f *fakeStore) Ping(context.Context) error    { return f.check() }
func (f *fakeStore) Driver() string                { return "fake" }
func (f *fakeStore) Migrate(context.Context) error { return f.check() }

func (f *fakeStore) ListClients(context.Context) ([]model.Client, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetClient(_ context.Context, id int64) (model.Client, error) {
	if err := f.check(); err != nil {
		return model.Client{}, err
	}
	c, ok := f.clients[id]
	if !ok {
		return model.Client{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateClient(_ context.Context, c model.Client) (model.Client, error) {
	if err := f.check(); err != nil {
		return model.Client{}, err
	}
	if err := c.Validate(); err != nil {
		return model.Client{}, err
	}
	for _, existing := range f.clients {
		if existing.Name == c.Name {
			return model.Client{}, repository.ErrConflict
		}
	}
	c.ID = f.id()
	f.clients[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateClient(_ context.Context, c model.Client) (model.Client, error) {
	if err := f.check(); err != nil {
		return model.Client{}, err
	}
	if _, ok := f.clients[c.ID]; !ok {
		return model.Client{}, repository.ErrNotFound
	}
	f.clients[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteClient(_ context.Context, id int64) error {
	if err := f.check(); err != nil {
		return err
	}
	for _, a := range f.articles {
		if a.ClientID == id {
			return repository.ErrConflict
		}
	}
	if _, ok := f.clients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeStore) ListSources(_ context.Context, clientID *int64) ([]model.Source, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []model.Source
	for _, s := range f.sources {
		if clientID != nil && (s.ClientID == nil || *s.ClientID != *clientID) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetSource(_ context.Context, id int64) (model.Source, error) {
	if err := f.check(); err != nil {
		return model.Source{}, err
	}
	s, ok := f.sources[id]
	if !ok {
		return model.Source{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) CreateSource(_ context.Context, s model.Source) (model.Source, error) {
	if err := f.check(); err != nil {
		return model.Source{}, err
	}
	if s.MediaTier == 0 {
		s.MediaTier = model.DefaultTier
	}
	if err := s.Validate(); err != nil {
		return model.Source{}, err
	}
	s.ID = f.id()
	f.sources[s.ID] = s
	return s, nil
}

func (f *fakeStore) UpdateSource(_ context.Context, s model.Source) (model.Source, error) {
	if err := f.check(); err != nil {
		return model.Source{}, err
	}
	if _, ok := f.sources[s.ID]; !ok {
		return model.Source{}, repository.ErrNotFound
	}
	f.sources[s.ID] = s
	return s, nil
}

func (f *fakeStore) SetSourceEnabled(_ context.Context, id int64, enabled bool) error {
	if err := f.check(); err != nil {
		return err
	}
	s, ok := f.sources[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Enabled = enabled
	f.sources[id] = s
	return nil
}

func (f *fakeStore) DeleteSource(_ context.Context, id int64) error {
	if err := f.check(); err != nil {
		return err
	}
	if _, ok := f.sources[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.sources, id)
	return nil
}

func (f *fakeStore) ListTags(_ context.Context, filter repository.TagFilter) ([]model.Tag, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []model.Tag
	for _, t := range f.tags {
		switch {
		case filter.Scope == model.ScopeGlobal && t.Scope != model.ScopeGlobal:
			continue
		case filter.Scope == model.ScopeClient && (t.Scope != model.ScopeClient || t.ClientID == nil || filter.ClientID == nil || *t.ClientID != *filter.ClientID):
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetTag(_ context.Context, id int64) (model.Tag, error) {
	if err := f.check(); err != nil {
		return model.Tag{}, err
	}
	t, ok := f.tags[id]
	if !ok {
		return model.Tag{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateTag(_ context.Context, t model.Tag) (model.Tag, error) {
	if err := f.check(); err != nil {
		return model.Tag{}, err
	}
	if t.Color == "" {
		t.Color = model.DefaultTagColor
	}
	if err := t.Validate(); err != nil {
		return model.Tag{}, err
	}
	t.ID = f.id()
	f.tags[t.ID] = t
	return t, nil
}

func (f *fakeStore) UpdateTag(_ context.Context, id int64, p repository.TagPatch) (model.Tag, error) {
	if err := f.check(); err != nil {
		return model.Tag{}, err
	}
	t, ok := f.tags[id]
	if !ok {
		return model.Tag{}, repository.ErrNotFound
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Keywords != nil {
		t.Keywords = model.CleanKeywords(p.Keywords)
	}
	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if err := t.Validate(); err != nil {
		return model.Tag{}, err
	}
	f.tags[id] = t
	return t, nil
}

func (f *fakeStore) DeleteTag(_ context.Context, id int64) error {
	if err := f.check(); err != nil {
		return err
	}
	if _, ok := f.tags[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tags, id)
	return nil
}

func (f *fakeStore) ArticlesForClient(ctx context.Context, clientID int64, tiers []model.Tier) ([]model.Article, error) {
	return f.ListArticles(ctx, repository.ArticleQuery{ClientID: &clientID, Tiers: tiers})
}

func (f *fakeStore) filter(q repository.ArticleQuery) []model.Article {
	var out []model.Article
	for _, a := range f.articles {
		if q.ClientID != nil && a.ClientID != *q.ClientID {
			continue
		}
		if len(q.Tiers) > 0 && !containsTier(q.Tiers, a.MediaTier) {
			continue
		}
		if q.Label != model.LabelNone && a.SentimentLabel != q.Label {
			continue
		}
		if q.Mention != nil {
			hit := false
			for _, p := range q.Mention.Patterns {
				if p != "" && (strings.Contains(a.Title, p) || strings.Contains(a.Body, p)) {
					hit = true
				}
			}
			if hit == q.Mention.Negate {
				continue
			}
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	return out
}

func (f *fakeStore) ListArticles(_ context.Context, q repository.ArticleQuery) ([]model.Article, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	out := f.filter(q)
	if q.Limit > 0 {
		start := min(q.Offset, len(out))
		end := min(start+q.Limit, len(out))
		out = out[start:end]
	}
	return out, nil
}

func (f *fakeStore) CountArticles(_ context.Context, q repository.ArticleQuery) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return len(f.filter(q)), nil
}

func (f *fakeStore) GetArticle(_ context.Context, id int64) (model.Article, error) {
	if err := f.check(); err != nil {
		return model.Article{}, err
	}
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Article{}, repository.ErrNotFound
}

func (f *fakeStore) ArticleTags(_ context.Context, articleID int64) ([]model.TagMatch, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.tagLinks[articleID], nil
}

func (f *fakeStore) TableCounts(context.Context) ([]repository.TableCount, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return []repository.TableCount{
		{Table: "clients", Rows: int64(len(f.clients))},
		{Table: "articles", Rows: int64(len(f.articles))},
	}, nil
}

func (f *fakeStore) RecentFetchLogs(context.Context, int) ([]model.FetchLog, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return []model.FetchLog{{ID: 1, SourceName: "Feed", Status: "success"}}, nil
}

func containsTier(tiers []model.Tier, t model.Tier) bool {
	for _, x := range tiers {
		if x == t {
			return true
		}
	}
	return false
}
