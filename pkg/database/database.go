package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/qustavo/sqlhooks/v2"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const driverName = "postgres-hooked"

var registerDriver sync.Once

type Repo struct {
	db *sql.DB
}

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func New(dbConnDSN string, maxIdleConn, maxOpenConn int, log zerolog.Logger) (*Repo, error) {
	registerDriver.Do(func() {
		sql.Register(driverName, sqlhooks.Wrap(&pq.Driver{}, &queryLogger{log: log}))
	})

	db, err := sql.Open(driverName, dbConnDSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}

	db.SetMaxIdleConns(maxIdleConn)
	db.SetMaxOpenConns(maxOpenConn)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(&gooseLogger{log: log})

	err = goose.SetDialect("postgres")
	if err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	err = goose.Up(db, "migrations")
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}

	return &Repo{
		db: db,
	}, nil
}

type queryStartKey struct{}

// queryLogger traces every statement at debug level.
type queryLogger struct {
	log zerolog.Logger
}

func (q *queryLogger) Before(ctx context.Context, _ string, _ ...interface{}) (context.Context, error) {
	return context.WithValue(ctx, queryStartKey{}, time.Now()), nil
}

func (q *queryLogger) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return ctx, nil
	}

	q.log.Debug().
		Str("query", query).
		Int("args", len(args)).
		Dur("took", time.Since(begin)).
		Msg("sql")

	return ctx, nil
}

type gooseLogger struct {
	log zerolog.Logger
}

func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal().Msgf(format, v...)
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info().Msgf(format, v...)
}
