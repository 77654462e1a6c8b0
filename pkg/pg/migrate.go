package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies the engine's schema migrations from the given filesystem
// (typically the embedded migrations directory) using goose. The pgx pool
// is bridged to database/sql since goose only speaks the standard library
// interface.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration db handle", "error", err)
		}
	}(db)

	goose.SetLogger(gooseSlogAdapter{ctx: ctx, log: log})
	goose.SetBaseFS(fsys)
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToMigrate, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToMigrate, err)
	}
	return nil
}

// gooseSlogAdapter routes goose's Printf-style logging through slog.
type gooseSlogAdapter struct {
	ctx context.Context
	log *slog.Logger
}

func (a gooseSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(a.ctx, fmt.Sprintf(format, v...))
}

func (a gooseSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(a.ctx, fmt.Sprintf(format, v...))
}
