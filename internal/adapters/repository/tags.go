package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/sentivision/internal/domain/model"
)

// TagFilter narrows ListTags. The zero value lists every tag.
type TagFilter struct {
	Scope    model.TagScope
	ClientID *int64
}

// TagPatch carries a partial tag update. Nil fields are left unchanged.
type TagPatch struct {
	Name     *string
	Keywords []string
	Enabled  *bool
	Color    *string
}

// Empty reports whether the patch changes nothing.
func (p TagPatch) Empty() bool {
	return p.Name == nil && p.Keywords == nil && p.Enabled == nil && p.Color == nil
}

// ListTags returns tags ordered by scope, type and name.
func (s *Store) ListTags(ctx context.Context, f TagFilter) (out []model.Tag, err error) {
	defer s.observe(ctx, "list_tags", time.Now(), &err)

	q := "SELECT " + tagColumns + " FROM tags"
	var args []any
	switch {
	case f.Scope == model.ScopeGlobal:
		q += " WHERE scope = 'global' ORDER BY tag_type, name"
	case f.Scope == model.ScopeClient && f.ClientID != nil:
		q += " WHERE scope = 'client' AND client_id = ? ORDER BY tag_type, name"
		args = append(args, *f.ClientID)
	default:
		q += " ORDER BY scope, tag_type, name"
	}

	var rows []tagRow
	if err = s.db.SelectContext(ctx, &rows, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out = make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		t, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTag loads one tag. Returns ErrNotFound for unknown ids.
func (s *Store) GetTag(ctx context.Context, id int64) (t model.Tag, err error) {
	defer s.observe(ctx, "get_tag", time.Now(), &err)

	var r tagRow
	if err = s.db.GetContext(ctx, &r, s.rebind("SELECT "+tagColumns+" FROM tags WHERE id = ?"), id); err != nil {
		return model.Tag{}, fmt.Errorf("get tag %d: %w", id, translate(err))
	}
	return r.model()
}

// CreateTag inserts t. A duplicate name within the same client yields ErrConflict.
func (s *Store) CreateTag(ctx context.Context, t model.Tag) (out model.Tag, err error) {
	defer s.observe(ctx, "create_tag", time.Now(), &err)

	if t.Color == "" {
		t.Color = model.DefaultTagColor
	}
	if t.MatchMethod == "" {
		t.MatchMethod = "keyword"
	}
	if t.Scope == model.ScopeGlobal {
		t.ClientID = nil
	}
	t.Keywords = model.CleanKeywords(t.Keywords)
	if err = t.Validate(); err != nil {
		return model.Tag{}, err
	}
	keywords, err := encodeList(t.Keywords)
	if err != nil {
		return model.Tag{}, err
	}
	now := s.now()

	id, err := s.insertID(ctx,
		`INSERT INTO tags (name, tag_type, scope, client_id, keywords, match_method, color, enabled, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, string(t.Type), string(t.Scope), nullableID(t.ClientID), keywords, t.MatchMethod, t.Color, t.Enabled, now, now,
	)
	if err != nil {
		return model.Tag{}, fmt.Errorf("insert tag %q: %w", t.Name, translate(err))
	}
	return s.GetTag(ctx, id)
}

// UpdateTag applies a partial update and returns the stored tag.
func (s *Store) UpdateTag(ctx context.Context, id int64, p TagPatch) (out model.Tag, err error) {
	defer s.observe(ctx, "update_tag", time.Now(), &err)

	current, err := s.GetTag(ctx, id)
	if err != nil {
		return model.Tag{}, err
	}
	if p.Empty() {
		return current, nil
	}

	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		current.Name = *p.Name
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Keywords != nil {
		current.Keywords = model.CleanKeywords(p.Keywords)
		encoded, err := encodeList(current.Keywords)
		if err != nil {
			return model.Tag{}, err
		}
		sets = append(sets, "keywords = ?")
		args = append(args, encoded)
	}
	if p.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, *p.Enabled)
	}
	if p.Color != nil {
		current.Color = *p.Color
		sets = append(sets, "color = ?")
		args = append(args, *p.Color)
	}
	if err = current.Validate(); err != nil {
		return model.Tag{}, err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now(), id)

	q := "UPDATE tags SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err = s.db.ExecContext(ctx, s.rebind(q), args...); err != nil {
		return model.Tag{}, fmt.Errorf("update tag %d: %w", id, translate(err))
	}
	return s.GetTag(ctx, id)
}

// DeleteTag removes a tag and its article links.
func (s *Store) DeleteTag(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "delete_tag", time.Now(), &err)

	if _, err = s.db.ExecContext(ctx, s.rebind("DELETE FROM article_tags WHERE tag_id = ?"), id); err != nil {
		return fmt.Errorf("delete tag %d links: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM tags WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, translate(err))
	}
	return requireAffected(res, "tag", id)
}
