package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/settings"
)

var settingsColumns = []string{
	"id", "trial_class_price", "teacher_commission_per_enrollment", "teacher_commission_per_trial_class",
	"created_at", "updated_at",
}

type settingsRow struct {
	ID                             string          `db:"id"`
	TrialClassPrice                decimal.Decimal `db:"trial_class_price"`
	TeacherCommissionPerEnrollment decimal.Decimal `db:"teacher_commission_per_enrollment"`
	TeacherCommissionPerTrialClass decimal.Decimal `db:"teacher_commission_per_trial_class"`
	CreatedAt                      time.Time       `db:"created_at"`
	UpdatedAt                      time.Time       `db:"updated_at"`
}

// GetSettings returns the oldest settings row; there is only one in practice.
func (s *Store) GetSettings(ctx context.Context) (settings.Settings, error) {
	var row settingsRow
	if err := s.get(ctx, &row, selectList(settingsColumns, "settings")+" ORDER BY created_at LIMIT 1"); err != nil {
		return settings.Settings{}, trapNoRows(err, settings.ErrNotFound, "selecting settings")
	}
	return settings.Settings(row), nil
}

// CreateSettings returns the existing row instead when there is one.
func (s *Store) CreateSettings(ctx context.Context, st settings.Settings) (settings.Settings, error) {
	var created settings.Settings
	err := s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx, "LOCK TABLE settings IN EXCLUSIVE MODE"); err != nil {
			return errors.Wrap(err, "locking settings")
		}
		existing, err := s.GetSettings(ctx)
		if err == nil {
			created = existing
			return nil
		}
		if err != settings.ErrNotFound {
			return err
		}
		if st.ID == "" {
			st.ID = core.NewID()
		}
		if err := s.insert(ctx, "settings", settingsColumns, settingsRow(st)); err != nil {
			return errors.Wrap(err, "inserting settings")
		}
		created = st
		return nil
	})
	return created, err
}

func (s *Store) UpdateSettings(ctx context.Context, st settings.Settings) (settings.Settings, error) {
	if !validID(st.ID) {
		return settings.Settings{}, settings.ErrNotFound
	}
	if err := s.update(ctx, "settings", settingsColumns, settingsRow(st), settings.ErrNotFound); err != nil {
		return settings.Settings{}, err
	}
	return st, nil
}
