package storage

import (
	"github.com/navikt/nada-seatable/pkg/database"
	"github.com/navikt/nada-seatable/pkg/service"
	"github.com/navikt/nada-seatable/pkg/service/core/storage/memory"
	"github.com/navikt/nada-seatable/pkg/service/core/storage/postgres"
)

type Stores struct {
	CursorStorage service.CursorStorage
}

// NewStores keeps trigger cursors in postgres, or in memory when db is nil.
func NewStores(db *database.Repo) *Stores {
	if db == nil {
		return &Stores{
			CursorStorage: memory.NewCursorStorage(),
		}
	}

	return &Stores{
		CursorStorage: postgres.NewCursorStorage(db),
	}
}
