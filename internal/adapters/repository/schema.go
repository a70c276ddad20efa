package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/sentivision/pkg/logger"
)

type migration struct {
	version    string
	statements []string
}

// migrations create the tables shared with the fetch pipeline. Column
// types are written with dialect tokens expanded by dialectReplacer.
var migrations = []migration{ //nolint:gochecknoglobals // static schema
	{
		version: "0001_init",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS clients (
				id          {{pk}},
				name        TEXT NOT NULL UNIQUE,
				industries  TEXT NOT NULL DEFAULT '[]',
				competitors TEXT NOT NULL DEFAULT '[]',
				created_at  {{ts}} NOT NULL,
				updated_at  {{ts}} NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS sources (
				id          {{pk}},
				client_id   {{ref}} REFERENCES clients(id),
				name        TEXT NOT NULL,
				source_type TEXT NOT NULL CHECK (source_type IN ('rss', 'html', 'search')),
				url         TEXT NOT NULL,
				enabled     {{bool}} NOT NULL DEFAULT {{true}},
				media_tier  INTEGER NOT NULL DEFAULT 3,
				is_global   {{bool}} NOT NULL DEFAULT {{false}},
				created_at  {{ts}} NOT NULL,
				UNIQUE (client_id, url)
			)`,
			`CREATE TABLE IF NOT EXISTS articles (
				id              {{pk}},
				client_id       {{ref}} NOT NULL REFERENCES clients(id),
				source_id       {{ref}} REFERENCES sources(id),
				url             TEXT NOT NULL,
				title           TEXT,
				author          TEXT,
				published_date  {{ts}},
				fetched_at      {{ts}} NOT NULL,
				content_text    TEXT,
				summary         TEXT,
				sentiment_score {{real}},
				sentiment_label TEXT,
				score_method    TEXT,
				media_tier      INTEGER NOT NULL DEFAULT 3,
				UNIQUE (client_id, url)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_articles_client_fetched ON articles (client_id, fetched_at)`,
			`CREATE TABLE IF NOT EXISTS fetch_log (
				id              {{pk}},
				source_id       {{ref}} NOT NULL REFERENCES sources(id),
				run_started_at  {{ts}} NOT NULL,
				run_finished_at {{ts}},
				articles_found  INTEGER DEFAULT 0,
				articles_new    INTEGER DEFAULT 0,
				status          TEXT NOT NULL,
				error_message   TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS tags (
				id           {{pk}},
				name         TEXT NOT NULL,
				tag_type     TEXT NOT NULL DEFAULT 'custom',
				scope        TEXT NOT NULL DEFAULT 'global',
				client_id    {{ref}} REFERENCES clients(id) ON DELETE CASCADE,
				keywords     TEXT NOT NULL,
				match_method TEXT NOT NULL DEFAULT 'keyword',
				color        TEXT DEFAULT '#6366f1',
				enabled      {{bool}} NOT NULL DEFAULT {{true}},
				created_at   {{ts}} NOT NULL,
				updated_at   {{ts}} NOT NULL,
				UNIQUE (name, client_id)
			)`,
			`CREATE TABLE IF NOT EXISTS article_tags (
				id              {{pk}},
				article_id      {{ref}} NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
				tag_id          {{ref}} NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				confidence      {{real}} DEFAULT 1.0,
				matched_keyword TEXT,
				match_method    TEXT NOT NULL DEFAULT 'keyword',
				UNIQUE (article_id, tag_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_article_tags_article ON article_tags (article_id)`,
			`CREATE INDEX IF NOT EXISTS idx_article_tags_tag ON article_tags (tag_id)`,
		},
	},
}

func (s *Store) dialectReplacer() *strings.Replacer {
	if s.driver == DriverPostgres {
		return strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{ref}}", "BIGINT",
			"{{ts}}", "TIMESTAMPTZ",
			"{{bool}}", "BOOLEAN",
			"{{true}}", "TRUE",
			"{{false}}", "FALSE",
			"{{real}}", "DOUBLE PRECISION",
		)
	}
	return strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{ts}}", "DATETIME",
		"{{bool}}", "BOOLEAN",
		"{{true}}", "1",
		"{{false}}", "0",
		"{{real}}", "REAL",
	)
}

// Migrate creates missing tables and records applied versions in
// schema_migrations. It is safe to run repeatedly. On mysql the fetch
// pipeline owns the schema and Migrate leaves it untouched.
func (s *Store) Migrate(ctx context.Context) (err error) {
	defer s.observe(ctx, "migrate", time.Now(), &err)

	if s.driver == DriverMySQL {
		s.log.Info(ctx, "schema managed by the fetch pipeline", logger.String("driver", s.driver))
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	r := s.dialectReplacer()
	for _, m := range migrations {
		var count int
		if err := tx.GetContext(ctx, &count, s.rebind("SELECT COUNT(1) FROM schema_migrations WHERE version = ?"), m.version); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, r.Replace(stmt)); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		s.log.Info(ctx, "migration applied", logger.String("version", m.version))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
