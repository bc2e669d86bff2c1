package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/trial"
)

var gridColumns = []string{"id", "class_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}

const gridOrder = " ORDER BY start_time, " +
	"array_position(ARRAY['sunday','monday','tuesday','wednesday','thursday','friday','saturday'], day_of_week)"

type gridRow struct {
	ID        string           `db:"id"`
	ClassID   string           `db:"class_id"`
	DayOfWeek calendar.Weekday `db:"day_of_week"`
	StartTime string           `db:"start_time"`
	EndTime   string           `db:"end_time"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

type attendeeRow struct {
	Key    string `db:"key"`
	ID     string `db:"id"`
	Name   string `db:"name"`
	PlanID string `db:"plan_id"`
}

// LockGrid takes a transaction scoped advisory lock, so it only serializes writers inside WithTx.
func (s *Store) LockGrid(ctx context.Context) error {
	_, err := s.exec(ctx, "SELECT pg_advisory_xact_lock(?)", gridLockKey)
	return errors.Wrap(err, "locking grid")
}

func (s *Store) CreateGridItem(ctx context.Context, it grid.Item) (grid.Item, error) {
	if it.ID == "" {
		it.ID = core.NewID()
	}
	if err := s.insert(ctx, "grid_items", gridColumns, gridRow(it)); err != nil {
		return grid.Item{}, errors.Wrap(err, "inserting grid item")
	}
	return it, nil
}

func (s *Store) GetGridItem(ctx context.Context, id string) (grid.Item, error) {
	if !validID(id) {
		return grid.Item{}, grid.ErrNotFound
	}
	var row gridRow
	if err := s.get(ctx, &row, selectList(gridColumns, "grid_items")+" WHERE id = ?", id); err != nil {
		return grid.Item{}, trapNoRows(err, grid.ErrNotFound, "selecting grid item")
	}
	return grid.Item(row), nil
}

func (s *Store) ListGridItems(ctx context.Context, filter grid.Filter) ([]grid.Item, error) {
	var w where
	w.ids("id", filter.IDs)
	w.ids("class_id", filter.ClassIDs)
	w.strs("day_of_week", toStrings(filter.Days))

	var rows []gridRow
	if err := s.selectAll(ctx, &rows, selectList(gridColumns, "grid_items")+w.String()+gridOrder, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting grid items")
	}
	items := make([]grid.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, grid.Item(r))
	}
	return items, nil
}

func (s *Store) UpdateGridItem(ctx context.Context, it grid.Item) (grid.Item, error) {
	if !validID(it.ID) {
		return grid.Item{}, grid.ErrNotFound
	}
	if err := s.update(ctx, "grid_items", gridColumns, gridRow(it), grid.ErrNotFound); err != nil {
		return grid.Item{}, err
	}
	return it, nil
}

// DeleteGridItems removes slots. Trials booked on them go along through cascades.
func (s *Store) DeleteGridItems(ctx context.Context, ids ...string) error {
	var w where
	w.ids("id", ids)
	_, err := s.exec(ctx, "DELETE FROM grid_items"+w.String(), w.args...)
	return errors.Wrap(err, "deleting grid items")
}

func (s *Store) CountEnrollmentsByClass(ctx context.Context) (map[string]int, error) {
	return s.countEnrollmentsByClass(ctx, nil)
}

func (s *Store) ListClassAttendees(ctx context.Context) (map[string][]grid.Attendee, error) {
	q := `SELECT e.class_id::text AS key, s.id::text AS id, TRIM(s.first_name || ' ' || s.last_name) AS name,
		e.plan_id::text AS plan_id
		FROM enrollments e JOIN students s ON s.id = e.student_id
		WHERE e.class_id IS NOT NULL AND e.status = ?
		ORDER BY name`
	var rows []attendeeRow
	if err := s.selectAll(ctx, &rows, q, string(enrollment.StatusActive)); err != nil {
		return nil, errors.Wrap(err, "selecting class attendees")
	}
	return groupAttendees(rows), nil
}

// ListSlotTrials leaves out cancelled trials.
func (s *Store) ListSlotTrials(ctx context.Context, from, to time.Time) (map[string][]grid.Attendee, error) {
	var w where
	w.add("t.status <> ?", string(trial.StatusCancelled))
	w.between("t.date", from, to)

	q := `SELECT t.grid_item_id::text AS key, l.id::text AS id, TRIM(l.first_name || ' ' || l.last_name) AS name,
		'' AS plan_id
		FROM trial_students t JOIN leads l ON l.id = t.lead_id` + w.String() + " ORDER BY name"
	var rows []attendeeRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting slot trials")
	}
	return groupAttendees(rows), nil
}

func groupAttendees(rows []attendeeRow) map[string][]grid.Attendee {
	attendees := make(map[string][]grid.Attendee)
	for _, r := range rows {
		attendees[r.Key] = append(attendees[r.Key], grid.Attendee{ID: r.ID, Name: r.Name, PlanID: r.PlanID})
	}
	return attendees
}
