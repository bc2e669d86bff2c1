package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/trial"
)

var trialColumns = []string{"id", "lead_id", "grid_item_id", "date", "status", "created_at", "updated_at"}

type trialRow struct {
	ID         string       `db:"id"`
	LeadID     string       `db:"lead_id"`
	GridItemID string       `db:"grid_item_id"`
	Date       time.Time    `db:"date"`
	Status     trial.Status `db:"status"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func trialWhere(filter trial.Filter) *where {
	w := &where{}
	w.ids("id", filter.IDs)
	w.ids("grid_item_id", filter.GridItemIDs)
	w.strs("status", toStrings(filter.Statuses))
	w.notStrs("status", toStrings(filter.ExcludeStatuses))
	w.between("date", filter.From, filter.To)
	return w
}

func (s *Store) CreateTrial(ctx context.Context, t trial.Trial) (trial.Trial, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if err := s.insert(ctx, "trial_students", trialColumns, trialRow(t)); err != nil {
		return trial.Trial{}, errors.Wrap(err, "inserting trial")
	}
	return t, nil
}

func (s *Store) GetTrial(ctx context.Context, id string) (trial.Trial, error) {
	if !validID(id) {
		return trial.Trial{}, trial.ErrNotFound
	}
	var row trialRow
	if err := s.get(ctx, &row, selectList(trialColumns, "trial_students")+" WHERE id = ?", id); err != nil {
		return trial.Trial{}, trapNoRows(err, trial.ErrNotFound, "selecting trial")
	}
	return trial.Trial(row), nil
}

func (s *Store) ListTrials(ctx context.Context, filter trial.Filter) ([]trial.Trial, error) {
	w := trialWhere(filter)
	var rows []trialRow
	if err := s.selectAll(ctx, &rows, selectList(trialColumns, "trial_students")+w.String()+" ORDER BY date", w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting trials")
	}
	trials := make([]trial.Trial, 0, len(rows))
	for _, r := range rows {
		trials = append(trials, trial.Trial(r))
	}
	return trials, nil
}

func (s *Store) CountTrials(ctx context.Context, filter trial.Filter) (int, error) {
	w := trialWhere(filter)
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM trial_students"+w.String(), w.args...)
	return n, errors.Wrap(err, "counting trials")
}

func (s *Store) UpdateTrial(ctx context.Context, t trial.Trial) (trial.Trial, error) {
	if !validID(t.ID) {
		return trial.Trial{}, trial.ErrNotFound
	}
	if err := s.update(ctx, "trial_students", trialColumns, trialRow(t), trial.ErrNotFound); err != nil {
		return trial.Trial{}, err
	}
	return t, nil
}

func (s *Store) SetTrialStatus(ctx context.Context, filter trial.Filter, status trial.Status, at time.Time) (int, error) {
	w := trialWhere(filter)
	args := append([]interface{}{string(status), at.UTC()}, w.args...)
	res, err := s.exec(ctx, "UPDATE trial_students SET status = ?, updated_at = ?"+w.String(), args...)
	if err != nil {
		return 0, errors.Wrap(err, "updating trial statuses")
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) DeleteTrial(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "trial_students", id, trial.ErrNotFound)
}
