package service

import (
	"context"
	"fmt"

	"github.com/okian/sentivision/internal/adapters/clientsfile"
	"github.com/okian/sentivision/internal/adapters/repository"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/pkg/logger"
	"github.com/okian/sentivision/pkg/metrics"
)

// ListClients returns every client ordered by name.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	clients, err := s.store.ListClients(ctx)
	return clients, classify("list clients", err)
}

// GetClient loads one client.
func (s *Service) GetClient(ctx context.Context, id int64) (model.Client, error) {
	c, err := s.store.GetClient(ctx, id)
	return c, classify("get client", err)
}

// CreateClient stores a new client and re-exports the clients file.
// An export failure is reported with ErrExportFailed after the store
// change has been kept.
func (s *Service) CreateClient(ctx context.Context, c model.Client) (model.Client, error) {
	created, err := s.store.CreateClient(ctx, c)
	if err != nil {
		return model.Client{}, classify("create client", err)
	}
	s.logger.Info(ctx, "client created", logger.Int64("id", created.ID), logger.String("name", created.Name))
	return created, s.afterConfigChange(ctx)
}

// UpdateClient replaces a client's name and keyword lists.
func (s *Service) UpdateClient(ctx context.Context, c model.Client) (model.Client, error) {
	updated, err := s.store.UpdateClient(ctx, c)
	if err != nil {
		return model.Client{}, classify("update client", err)
	}
	return updated, s.afterConfigChange(ctx)
}

// DeleteClient removes a client that has no articles.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return classify("delete client", err)
	}
	s.logger.Info(ctx, "client deleted", logger.Int64("id", id))
	return s.afterConfigChange(ctx)
}

// SourceList groups sources for the sources page.
type SourceList struct {
	Global   []model.Source
	ByClient map[int64][]model.Source
	Clients  []model.Client
	// Declared lists the global feeds of the settings file. It stays empty
	// when no settings file is configured.
	Declared []clientsfile.GlobalSource
}

// ListSources returns every source grouped by owner.
func (s *Service) ListSources(ctx context.Context) (SourceList, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return SourceList{}, classify("list sources", err)
	}
	sources, err := s.store.ListSources(ctx, nil)
	if err != nil {
		return SourceList{}, classify("list sources", err)
	}
	out := SourceList{ByClient: make(map[int64][]model.Source), Clients: clients}
	for _, src := range sources {
		if src.Global || src.ClientID == nil {
			out.Global = append(out.Global, src)
			continue
		}
		out.ByClient[*src.ClientID] = append(out.ByClient[*src.ClientID], src)
	}
	if s.settingsFile != "" {
		declared, err := clientsfile.LoadGlobalSources(s.settingsFile)
		if err != nil {
			s.logger.Warn(ctx, "settings file unreadable", logger.String("path", s.settingsFile), logger.Error(err))
		}
		out.Declared = declared
	}
	return out, nil
}

// ClientSources returns the sources owned by one client.
func (s *Service) ClientSources(ctx context.Context, clientID int64) ([]model.Source, error) {
	sources, err := s.store.ListSources(ctx, &clientID)
	return sources, classify("client sources", err)
}

// GetSource loads one source.
func (s *Service) GetSource(ctx context.Context, id int64) (model.Source, error) {
	src, err := s.store.GetSource(ctx, id)
	return src, classify("get source", err)
}

// CreateSource stores a new source and re-exports the clients file.
func (s *Service) CreateSource(ctx context.Context, src model.Source) (model.Source, error) {
	created, err := s.store.CreateSource(ctx, src)
	if err != nil {
		return model.Source{}, classify("create source", err)
	}
	return created, s.afterConfigChange(ctx)
}

// UpdateSource replaces a source's editable fields.
func (s *Service) UpdateSource(ctx context.Context, src model.Source) (model.Source, error) {
	updated, err := s.store.UpdateSource(ctx, src)
	if err != nil {
		return model.Source{}, classify("update source", err)
	}
	return updated, s.afterConfigChange(ctx)
}

// ToggleSource enables or disables a source. The clients file does not
// carry enablement, so it is not rewritten.
func (s *Service) ToggleSource(ctx context.Context, id int64, enabled bool) error {
	return classify("toggle source", s.store.SetSourceEnabled(ctx, id, enabled))
}

// DeleteSource removes a source that no article references.
func (s *Service) DeleteSource(ctx context.Context, id int64) error {
	if err := s.store.DeleteSource(ctx, id); err != nil {
		return classify("delete source", err)
	}
	return s.afterConfigChange(ctx)
}

// ListTags returns tags filtered by scope.
func (s *Service) ListTags(ctx context.Context, f repository.TagFilter) ([]model.Tag, error) {
	tags, err := s.store.ListTags(ctx, f)
	return tags, classify("list tags", err)
}

// GetTag loads one tag.
func (s *Service) GetTag(ctx context.Context, id int64) (model.Tag, error) {
	t, err := s.store.GetTag(ctx, id)
	return t, classify("get tag", err)
}

// CreateTag stores a new tag. New tags start enabled.
func (s *Service) CreateTag(ctx context.Context, t model.Tag) (model.Tag, error) {
	t.Enabled = true
	created, err := s.store.CreateTag(ctx, t)
	return created, classify("create tag", err)
}

// UpdateTag applies a partial tag update.
func (s *Service) UpdateTag(ctx context.Context, id int64, p repository.TagPatch) (model.Tag, error) {
	t, err := s.store.UpdateTag(ctx, id, p)
	return t, classify("update tag", err)
}

// DeleteTag removes a tag.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	return classify("delete tag", s.store.DeleteTag(ctx, id))
}

// ExportResult describes one clients file export.
type ExportResult struct {
	Path    string   `json:"path"`
	Clients int      `json:"clients"`
	Skipped []string `json:"skipped,omitempty"`
}

// ExportClients rewrites the clients file from the store.
func (s *Service) ExportClients(ctx context.Context) (ExportResult, error) {
	if s.clientsFile == "" {
		return ExportResult{}, fmt.Errorf("%w: no clients file configured", ErrExportFailed)
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	sources, err := s.store.ListSources(ctx, nil)
	if err != nil {
		return ExportResult{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	doc, skipped := clientsfile.FromStore(clients, sources)
	err = clientsfile.Save(ctx, s.clientsFile, doc)
	metrics.RecordClientsFileWrite(err)
	if err != nil {
		return ExportResult{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if len(skipped) > 0 {
		s.logger.Warn(ctx, "clients without sources left out of clients file", logger.Any("clients", skipped))
	}
	s.logger.Info(ctx, "clients file exported", logger.String("path", s.clientsFile), logger.Int("clients", len(doc.Clients)))
	return ExportResult{Path: s.clientsFile, Clients: len(doc.Clients), Skipped: skipped}, nil
}

func (s *Service) afterConfigChange(ctx context.Context) error {
	if s.clientsFile == "" {
		return nil
	}
	if _, err := s.ExportClients(ctx); err != nil {
		s.logger.Error(ctx, "clients file export failed", logger.Error(err))
		return err
	}
	return nil
}
