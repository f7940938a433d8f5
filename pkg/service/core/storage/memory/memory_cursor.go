package memory

import (
	"context"
	"sync"

	"github.com/navikt/nada-seatable/pkg/service"
)

var _ service.CursorStorage = &cursorStorage{}

type cursorStorage struct {
	mu      sync.RWMutex
	cursors map[string]string
}

func (s *cursorStorage) GetCursor(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cursor, ok := s.cursors[key]

	return cursor, ok, nil
}

func (s *cursorStorage) SetCursor(_ context.Context, key, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[key] = cursor

	return nil
}

func NewCursorStorage() *cursorStorage {
	return &cursorStorage{
		cursors: map[string]string{},
	}
}
