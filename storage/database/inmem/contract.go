package inmemdb

import (
	"context"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/contract"
)

func (s *Store) UpsertContractToken(_ context.Context, t contract.Token) (contract.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.db.tokens[t.EnrollmentID]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else if t.ID == "" {
		t.ID = core.NewID()
	}
	s.db.tokens[t.EnrollmentID] = t
	return t, nil
}

func (s *Store) GetContractToken(_ context.Context, token string) (contract.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.db.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return contract.Token{}, contract.ErrTokenNotFound
}

func (s *Store) DeleteContractToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for enrollmentID, t := range s.db.tokens {
		if t.Token == token {
			delete(s.db.tokens, enrollmentID)
			return nil
		}
	}
	return contract.ErrTokenNotFound
}
