package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sentivision/internal/domain/model"
)

// Tables lists the tables shared with the fetch pipeline in display order.
var Tables = []string{"clients", "sources", "articles", "fetch_log", "tags", "article_tags"} //nolint:gochecknoglobals // static list

// TableCount is the row count of one table.
type TableCount struct {
	Table string
	Rows  int64
}

// TableCounts returns the row count of every shared table.
func (s *Store) TableCounts(ctx context.Context) (out []TableCount, err error) {
	defer s.observe(ctx, "table_counts", time.Now(), &err)

	out = make([]TableCount, 0, len(Tables))
	for _, t := range Tables {
		var n int64
		if err = s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+t); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out = append(out, TableCount{Table: t, Rows: n})
	}
	return out, nil
}

// RecentFetchLogs returns the latest fetch attempts, newest first.
func (s *Store) RecentFetchLogs(ctx context.Context, limit int) (out []model.FetchLog, err error) {
	defer s.observe(ctx, "recent_fetch_logs", time.Now(), &err)

	if limit <= 0 {
		limit = 50
	}
	var rows []fetchLogRow
	q := s.rebind(`SELECT f.id, f.source_id, s.name AS source_name, f.run_started_at, f.run_finished_at,
			f.articles_found, f.articles_new, f.status, f.error_message
		FROM fetch_log f LEFT JOIN sources s ON s.id = f.source_id
		ORDER BY f.run_started_at DESC, f.id DESC LIMIT ?`)
	if err = s.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("recent fetch logs: %w", err)
	}
	out = make([]model.FetchLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}
