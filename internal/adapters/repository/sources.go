package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sentivision/internal/domain/model"
)

// ListSources returns sources ordered by global flag, client and name.
// A nil clientID lists every source; otherwise only that client's.
func (s *Store) ListSources(ctx context.Context, clientID *int64) (out []model.Source, err error) {
	defer s.observe(ctx, "list_sources", time.Now(), &err)

	q := "SELECT " + sourceColumns + " FROM sources"
	var args []any
	if clientID != nil {
		q += " WHERE client_id = ?"
		args = append(args, *clientID)
	}
	q += " ORDER BY is_global DESC, client_id, name, id"

	var rows []sourceRow
	if err = s.db.SelectContext(ctx, &rows, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	out = make([]model.Source, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// GetSource loads one source. Returns ErrNotFound for unknown ids.
func (s *Store) GetSource(ctx context.Context, id int64) (src model.Source, err error) {
	defer s.observe(ctx, "get_source", time.Now(), &err)

	var r sourceRow
	if err = s.db.GetContext(ctx, &r, s.rebind("SELECT "+sourceColumns+" FROM sources WHERE id = ?"), id); err != nil {
		return model.Source{}, fmt.Errorf("get source %d: %w", id, translate(err))
	}
	return r.model(), nil
}

// CreateSource inserts src. Global sources are stored without a client.
func (s *Store) CreateSource(ctx context.Context, src model.Source) (out model.Source, err error) {
	defer s.observe(ctx, "create_source", time.Now(), &err)

	src = normalizeSource(src)
	if err = src.Validate(); err != nil {
		return model.Source{}, err
	}

	id, err := s.insertID(ctx,
		`INSERT INTO sources (client_id, name, source_type, url, enabled, media_tier, is_global, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(src.ClientID), src.Name, string(src.Type), src.URL, src.Enabled, int(src.MediaTier), src.Global, s.now(),
	)
	if err != nil {
		return model.Source{}, fmt.Errorf("insert source %q: %w", src.URL, translate(err))
	}
	return s.GetSource(ctx, id)
}

// UpdateSource replaces the editable fields of a source.
func (s *Store) UpdateSource(ctx context.Context, src model.Source) (out model.Source, err error) {
	defer s.observe(ctx, "update_source", time.Now(), &err)

	src = normalizeSource(src)
	if err = src.Validate(); err != nil {
		return model.Source{}, err
	}
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE sources SET client_id = ?, name = ?, source_type = ?, url = ?, enabled = ?,
			media_tier = ?, is_global = ? WHERE id = ?`),
		nullableID(src.ClientID), src.Name, string(src.Type), src.URL, src.Enabled, int(src.MediaTier), src.Global, src.ID,
	)
	if err != nil {
		return model.Source{}, fmt.Errorf("update source %d: %w", src.ID, translate(err))
	}
	if err = requireAffected(res, "source", src.ID); err != nil {
		return model.Source{}, err
	}
	return s.GetSource(ctx, src.ID)
}

// SetSourceEnabled toggles whether the fetch pipeline polls a source.
func (s *Store) SetSourceEnabled(ctx context.Context, id int64, enabled bool) (err error) {
	defer s.observe(ctx, "set_source_enabled", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE sources SET enabled = ? WHERE id = ?"), enabled, id)
	if err != nil {
		return fmt.Errorf("toggle source %d: %w", id, translate(err))
	}
	return requireAffected(res, "source", id)
}

// DeleteSource removes a source and its fetch history. Sources referenced
// by articles yield ErrConflict.
func (s *Store) DeleteSource(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "delete_source", time.Now(), &err)

	n, err := s.countWhere(ctx, "articles", "source_id = ?", id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: source %d is referenced by %d articles", ErrConflict, id, n)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete source: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err = tx.ExecContext(ctx, s.rebind("DELETE FROM fetch_log WHERE source_id = ?"), id); err != nil {
		return fmt.Errorf("delete source %d history: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM sources WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete source %d: %w", id, translate(err))
	}
	if err = requireAffected(res, "source", id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete source %d: %w", id, err)
	}
	return nil
}

func normalizeSource(src model.Source) model.Source {
	if src.MediaTier == 0 {
		src.MediaTier = model.DefaultTier
	}
	if src.Global {
		src.ClientID = nil
	}
	return src
}
