package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sentivision/internal/domain/model"
)

// ListClients returns every client ordered by name.
func (s *Store) ListClients(ctx context.Context) (out []model.Client, err error) {
	defer s.observe(ctx, "list_clients", time.Now(), &err)

	var rows []clientRow
	if err = s.db.SelectContext(ctx, &rows, "SELECT "+clientColumns+" FROM clients ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out = make([]model.Client, 0, len(rows))
	for _, r := range rows {
		c, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetClient loads one client. Returns ErrNotFound for unknown ids.
func (s *Store) GetClient(ctx context.Context, id int64) (c model.Client, err error) {
	defer s.observe(ctx, "get_client", time.Now(), &err)

	var r clientRow
	if err = s.db.GetContext(ctx, &r, s.rebind("SELECT "+clientColumns+" FROM clients WHERE id = ?"), id); err != nil {
		return model.Client{}, fmt.Errorf("get client %d: %w", id, translate(err))
	}
	return r.model()
}

// CreateClient inserts c and returns it with its id and timestamps.
// A duplicate name yields ErrConflict.
func (s *Store) CreateClient(ctx context.Context, c model.Client) (out model.Client, err error) {
	defer s.observe(ctx, "create_client", time.Now(), &err)

	if err = c.Validate(); err != nil {
		return model.Client{}, err
	}
	industries, err := encodeList(model.CleanKeywords(c.Industries))
	if err != nil {
		return model.Client{}, err
	}
	competitors, err := encodeList(model.CleanKeywords(c.Competitors))
	if err != nil {
		return model.Client{}, err
	}
	now := s.now()

	id, err := s.insertID(ctx,
		`INSERT INTO clients (name, industries, competitors, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
		c.Name, industries, competitors, now, now,
	)
	if err != nil {
		return model.Client{}, fmt.Errorf("insert client %q: %w", c.Name, translate(err))
	}
	return s.GetClient(ctx, id)
}

// UpdateClient replaces the name and keyword lists of an existing client.
func (s *Store) UpdateClient(ctx context.Context, c model.Client) (out model.Client, err error) {
	defer s.observe(ctx, "update_client", time.Now(), &err)

	if err = c.Validate(); err != nil {
		return model.Client{}, err
	}
	industries, err := encodeList(model.CleanKeywords(c.Industries))
	if err != nil {
		return model.Client{}, err
	}
	competitors, err := encodeList(model.CleanKeywords(c.Competitors))
	if err != nil {
		return model.Client{}, err
	}

	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE clients SET name = ?, industries = ?, competitors = ?, updated_at = ? WHERE id = ?`),
		c.Name, industries, competitors, s.now(), c.ID,
	)
	if err != nil {
		return model.Client{}, fmt.Errorf("update client %d: %w", c.ID, translate(err))
	}
	if err = requireAffected(res, "client", c.ID); err != nil {
		return model.Client{}, err
	}
	return s.GetClient(ctx, c.ID)
}

// DeleteClient removes a client together with its sources, their fetch
// history and its scoped tags. Clients that still own articles cannot be
// deleted and yield ErrConflict.
func (s *Store) DeleteClient(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "delete_client", time.Now(), &err)

	n, err := s.countWhere(ctx, "articles", "client_id = ?", id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: client %d still has %d articles", ErrConflict, id, n)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete client: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmts := []string{
		"DELETE FROM fetch_log WHERE source_id IN (SELECT id FROM sources WHERE client_id = ?)",
		"DELETE FROM sources WHERE client_id = ?",
		"DELETE FROM tags WHERE client_id = ?",
	}
	for _, q := range stmts {
		if _, err = tx.ExecContext(ctx, s.rebind(q), id); err != nil {
			return fmt.Errorf("delete client %d: %w", id, translate(err))
		}
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM clients WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete client %d: %w", id, translate(err))
	}
	if err = requireAffected(res, "client", id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete client %d: %w", id, err)
	}
	return nil
}

// CountClientArticles returns how many articles belong to a client.
func (s *Store) CountClientArticles(ctx context.Context, id int64) (n int64, err error) {
	defer s.observe(ctx, "count_client_articles", time.Now(), &err)
	return s.countWhere(ctx, "articles", "client_id = ?", id)
}

func (s *Store) countWhere(ctx context.Context, table, where string, args ...any) (int64, error) {
	var n int64
	q := s.rebind("SELECT COUNT(*) FROM " + table + " WHERE " + where)
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(res rowsAffecter, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
