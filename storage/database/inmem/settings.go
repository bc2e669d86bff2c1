package inmemdb

import (
	"context"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/settings"
)

func (s *Store) GetSettings(_ context.Context) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db.settings == nil {
		return settings.Settings{}, settings.ErrNotFound
	}
	return *s.db.settings, nil
}

func (s *Store) CreateSettings(_ context.Context, st settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.settings != nil {
		return *s.db.settings, nil
	}
	if st.ID == "" {
		st.ID = core.NewID()
	}
	s.db.settings = &st
	return st, nil
}

func (s *Store) UpdateSettings(_ context.Context, st settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.settings == nil || s.db.settings.ID != st.ID {
		return settings.Settings{}, settings.ErrNotFound
	}
	s.db.settings = &st
	return st, nil
}
