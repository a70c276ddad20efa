// Package repository persists clients, sources and tags and reads the
// articles written by the fetch pipeline from the shared relational store.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/sentivision/pkg/logger"
	"github.com/okian/sentivision/pkg/metrics"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const defaultMaxOpenConns = 10

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{ //nolint:gochecknoglobals // static pragma list
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
}

// Store is a sqlx-backed repository over sqlite, postgres or mysql.
type Store struct {
	db           *sqlx.DB
	driver       string
	maxOpenConns int
	log          logger.Logger
	now          func() time.Time
}

// Open connects to the database identified by driver and dsn.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		driver:       driver,
		maxOpenConns: defaultMaxOpenConns,
		log:          logger.Discard(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	switch driver {
	case DriverSQLite:
		dsn = withSQLitePragmas(dsn)
	case DriverPostgres:
	case DriverMySQL:
		var err error
		if dsn, err = withMySQLParams(dsn); err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(max(1, s.maxOpenConns/2))
	db.SetConnMaxLifetime(5 * time.Minute)
	s.db = db

	s.log.Info(ctx, "store connected", logger.String("driver", driver))
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string { return s.driver }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) (err error) {
	defer s.observe(ctx, "ping", time.Now(), &err)
	if err = s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// observe records latency and failures of one store operation.
func (s *Store) observe(ctx context.Context, op string, start time.Time, errp *error) {
	metrics.RecordStoreQuery(op, float64(time.Since(start).Microseconds())/1000)
	if errp == nil || *errp == nil {
		return
	}
	if isExpected(*errp) {
		return
	}
	metrics.RecordStoreError(op)
	metrics.RecordErrorByComponent("store", op)
	s.log.Warn(ctx, "store operation failed", logger.String("op", op), logger.Error(*errp))
}

// withSQLitePragmas appends the connection pragmas unless the DSN already
// configures its own.
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(sqlitePragmas, "&")
}

// withMySQLParams makes DATETIME columns scan into UTC time.Time values and
// has updates report matched rows, so an unchanged row still counts as found.
func withMySQLParams(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// insertID runs an INSERT and returns the new row id. MySQL has no
// RETURNING clause; its id comes from the result.
func (s *Store) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.driver == DriverMySQL {
		res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	err := s.db.QueryRowxContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// rebind converts '?' placeholders to the driver's bind style.
func (s *Store) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(s.driver), query)
}
