package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/navikt/nada-seatable/pkg/database"
	"github.com/navikt/nada-seatable/pkg/errs"
	"github.com/navikt/nada-seatable/pkg/service"
)

var _ service.CursorStorage = &cursorStorage{}

type cursorStorage struct {
	db *database.Repo
}

func (s *cursorStorage) GetCursor(ctx context.Context, key string) (string, bool, error) {
	const op errs.Op = "cursorStorage.GetCursor"

	var cursor string

	err := s.db.GetDB().QueryRowContext(ctx, `SELECT last_checked FROM trigger_cursors WHERE cursor_key = $1`, key).Scan(&cursor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, errs.E(errs.Database, op, errs.Parameter("cursor_key"), err)
	}

	return cursor, true, nil
}

func (s *cursorStorage) SetCursor(ctx context.Context, key, cursor string) error {
	const op errs.Op = "cursorStorage.SetCursor"

	_, err := s.db.GetDB().ExecContext(ctx, `INSERT INTO trigger_cursors (cursor_key, last_checked, updated_at)
		VALUES ($1, $2, NOW()) ON CONFLICT (cursor_key) DO UPDATE SET last_checked = $2, updated_at = NOW()`, key, cursor)
	if err != nil {
		return errs.E(errs.Database, op, errs.Parameter("cursor_key"), err)
	}

	return nil
}

func NewCursorStorage(db *database.Repo) *cursorStorage {
	return &cursorStorage{
		db: db,
	}
}
