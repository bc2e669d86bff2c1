package sqlxdb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/contract"
)

var tokenColumns = []string{"id", "enrollment_id", "token", "valid_until", "used_at", "created_at", "updated_at"}

type tokenRow struct {
	ID           string    `db:"id"`
	EnrollmentID string    `db:"enrollment_id"`
	Token        string    `db:"token"`
	ValidUntil   time.Time `db:"valid_until"`
	UsedAt       null.Time `db:"used_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r tokenRow) toToken() contract.Token {
	return contract.Token{
		ID:           r.ID,
		EnrollmentID: r.EnrollmentID,
		Token:        r.Token,
		ValidUntil:   r.ValidUntil,
		UsedAt:       r.UsedAt.Ptr(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (s *Store) UpsertContractToken(ctx context.Context, t contract.Token) (contract.Token, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	row := tokenRow{
		ID:           t.ID,
		EnrollmentID: t.EnrollmentID,
		Token:        t.Token,
		ValidUntil:   t.ValidUntil,
		UsedAt:       null.TimeFromPtr(t.UsedAt),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	q := `INSERT INTO contract_sign_tokens (id, enrollment_id, token, valid_until, used_at, created_at, updated_at)
		VALUES (:id, :enrollment_id, :token, :valid_until, :used_at, :created_at, :updated_at)
		ON CONFLICT (enrollment_id) DO UPDATE SET
			token = EXCLUDED.token,
			valid_until = EXCLUDED.valid_until,
			used_at = EXCLUDED.used_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(tokenColumns, ", ")
	q, args, err := s.ext(ctx).BindNamed(q, row)
	if err != nil {
		return contract.Token{}, errors.Wrap(err, "binding contract token")
	}
	var stored tokenRow
	if err := s.get(ctx, &stored, q, args...); err != nil {
		return contract.Token{}, errors.Wrap(err, "upserting contract token")
	}
	return stored.toToken(), nil
}

func (s *Store) GetContractToken(ctx context.Context, token string) (contract.Token, error) {
	var row tokenRow
	if err := s.get(ctx, &row, selectList(tokenColumns, "contract_sign_tokens")+" WHERE token = ?", token); err != nil {
		return contract.Token{}, trapNoRows(err, contract.ErrTokenNotFound, "selecting contract token")
	}
	return row.toToken(), nil
}

func (s *Store) DeleteContractToken(ctx context.Context, token string) error {
	res, err := s.exec(ctx, "DELETE FROM contract_sign_tokens WHERE token = ?", token)
	if err != nil {
		return errors.Wrap(err, "deleting contract token")
	}
	return checkAffected(res, contract.ErrTokenNotFound)
}
