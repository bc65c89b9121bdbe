package pgstore

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"

	"github.com/tbb-digital/portal/pkg/metrics"
)

//go:embed migrations
var migrations embed.FS

const retries = 3

var (
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrMeetingNotFound  = fmt.Errorf("meeting not found")
	ErrProjectNotFound  = fmt.Errorf("project not found")
	ErrQuestionNotFound = fmt.Errorf("question not found")
)

type Store struct {
	log *logrus.Entry
	db  *sqlx.DB
}

func New(ctx context.Context, log *logrus.Logger, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		log: log.WithField("component", "pgstore"),
		db:  db,
	}, nil
}

func (s *Store) Migrate(direction migrate.MigrationDirection) error {
	assetDir := func() func(string) ([]string, error) {
		return func(path string) ([]string, error) {
			dirEntry, er := migrations.ReadDir(path)
			if er != nil {
				return nil, er
			}
			entries := make([]string, 0)
			for _, e := range dirEntry {
				entries = append(entries, e.Name())
			}

			return entries, nil
		}
	}()
	asset := migrate.AssetMigrationSource{
		Asset:    migrations.ReadFile,
		AssetDir: assetDir,
		Dir:      "migrations",
	}
	_, err := migrate.Exec(s.db.DB, "postgres", asset, direction)
	return err
}

// observe times a store method and counts its terminal failure.
func (s *Store) observe(method string) func(err error) {
	start := time.Now()
	return func(err error) {
		metrics.PgDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PgErrCount.WithLabelValues(method).Inc()
		}
	}
}

func (s *Store) ResetTables(ctx context.Context, tables []string) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE TABLE `+strings.Join(tables, `, `)+` RESTART IDENTITY CASCADE`)
	return err
}
