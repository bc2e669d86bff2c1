package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/user"
)

var userColumns = []string{"id", "name", "email", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

var userOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func userToRow(u user.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		IsActive:     u.IsActive,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLogin:    null.NewTime(u.LastLogin, !u.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func (s *Store) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = core.NewID()
	}
	if err := s.insert(ctx, "users", userColumns, userToRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	if err := s.get(ctx, &row, selectList(userColumns, "users")+" WHERE id = ?", id); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "selecting user")
	}
	return row.toUser(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := s.get(ctx, &row, selectList(userColumns, "users")+" WHERE LOWER(email) = LOWER(?)", email); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "selecting user by email")
	}
	return row.toUser(), nil
}

func (s *Store) ListUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	var w where
	w.contains(filter.Search, "name", "email")
	if filter.IsActive != nil {
		w.eq("is_active", *filter.IsActive)
	}
	w.between("created_at", filter.CreatedFrom, filter.CreatedTo)

	q := selectList(userColumns, "users") + w.String() +
		" ORDER BY " + core.OrderBy(orderings, userOrderings, "name ASC")
	var rows []userRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	if err := s.update(ctx, "users", userColumns, userToRow(usr), user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (s *Store) DeleteUsers(ctx context.Context, ids ...string) error {
	var w where
	w.ids("id", ids)
	_, err := s.exec(ctx, "DELETE FROM users"+w.String(), w.args...)
	return errors.Wrap(err, "deleting users")
}
