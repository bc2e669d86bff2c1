package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/user"
)

func (s *Store) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if usr.ID == "" {
		usr.ID = core.NewID()
	}
	s.db.users[usr.ID] = usr
	return usr, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if usr, ok := s.db.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.db.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := values(s.db.users, func(u user.User) bool {
		return matches(filter.Search, u.Name, u.Email) &&
			(filter.IsActive == nil || u.IsActive == *filter.IsActive) &&
			within(u.CreatedAt, filter.CreatedFrom, filter.CreatedTo)
	})

	less := func(i, j int) bool { return users[i].Name < users[j].Name }
	if len(orderings) > 0 {
		ord := orderings[0]
		cmp := func(a, b user.User) int {
			switch ord.Field {
			case "email":
				return compareString(a.Email, b.Email)
			case "created_at":
				return compareTime(a.CreatedAt, b.CreatedAt)
			case "last_login":
				return compareTime(a.LastLogin, b.LastLogin)
			default:
				return compareString(a.Name, b.Name)
			}
		}
		less = func(i, j int) bool {
			if ord.Ascending {
				return cmp(users[i], users[j]) < 0
			}
			return cmp(users[i], users[j]) > 0
		}
	}
	sort.SliceStable(users, less)
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	s.db.users[usr.ID] = usr
	return usr, nil
}

func (s *Store) DeleteUsers(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.db.users, id)
	}
	return nil
}
