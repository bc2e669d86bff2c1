package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/workedhour"
)

var workedHourColumns = []string{
	"id", "teacher_id", "class_id", "worked_at", "started_at", "ended_at", "duration", "price_snapshot",
	"status", "new_enrollments_count", "teacher_name", "modality_name", "class_level", "class_description",
	"enrolled_students_count", "trial_students_count", "total_students_count", "created_at", "updated_at",
}

type workedHourRow struct {
	ID               string            `db:"id"`
	TeacherID        string            `db:"teacher_id"`
	ClassID          string            `db:"class_id"`
	WorkedAt         time.Time         `db:"worked_at"`
	StartedAt        time.Time         `db:"started_at"`
	EndedAt          time.Time         `db:"ended_at"`
	Duration         int               `db:"duration"`
	PriceSnapshot    decimal.Decimal   `db:"price_snapshot"`
	Status           workedhour.Status `db:"status"`
	NewEnrollments   int               `db:"new_enrollments_count"`
	TeacherName      string            `db:"teacher_name"`
	ModalityName     string            `db:"modality_name"`
	ClassLevel       string            `db:"class_level"`
	ClassDescription string            `db:"class_description"`
	EnrolledStudents int               `db:"enrolled_students_count"`
	TrialStudents    int               `db:"trial_students_count"`
	TotalStudents    int               `db:"total_students_count"`
	CreatedAt        time.Time         `db:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"`
}

func workedHourToRow(wh workedhour.WorkedHour) workedHourRow {
	return workedHourRow{
		ID:               wh.ID,
		TeacherID:        wh.TeacherID,
		ClassID:          wh.ClassID,
		WorkedAt:         wh.WorkedAt,
		StartedAt:        wh.StartedAt,
		EndedAt:          wh.EndedAt,
		Duration:         wh.Duration,
		PriceSnapshot:    wh.PriceSnapshot,
		Status:           wh.Status,
		NewEnrollments:   wh.NewEnrollments,
		TeacherName:      wh.Snapshot.TeacherName,
		ModalityName:     wh.Snapshot.ModalityName,
		ClassLevel:       wh.Snapshot.ClassLevel,
		ClassDescription: wh.Snapshot.ClassDescription,
		EnrolledStudents: wh.Snapshot.EnrolledStudents,
		TrialStudents:    wh.Snapshot.TrialStudents,
		TotalStudents:    wh.Snapshot.TotalStudents,
		CreatedAt:        wh.CreatedAt,
		UpdatedAt:        wh.UpdatedAt,
	}
}

func (r workedHourRow) toWorkedHour() workedhour.WorkedHour {
	return workedhour.WorkedHour{
		ID:             r.ID,
		TeacherID:      r.TeacherID,
		ClassID:        r.ClassID,
		WorkedAt:       r.WorkedAt,
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
		Duration:       r.Duration,
		PriceSnapshot:  r.PriceSnapshot,
		Status:         r.Status,
		NewEnrollments: r.NewEnrollments,
		Snapshot: workedhour.Snapshot{
			TeacherName:      r.TeacherName,
			ModalityName:     r.ModalityName,
			ClassLevel:       r.ClassLevel,
			ClassDescription: r.ClassDescription,
			EnrolledStudents: r.EnrolledStudents,
			TrialStudents:    r.TrialStudents,
			TotalStudents:    r.TotalStudents,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func workedHourWhere(filter workedhour.Filter) *where {
	w := &where{}
	w.ids("id", filter.IDs)
	w.ids("teacher_id", filter.TeacherIDs)
	w.strs("status", toStrings(filter.Statuses))
	w.between("worked_at", filter.From, filter.To)
	return w
}

func (s *Store) CreateWorkedHours(ctx context.Context, whs ...workedhour.WorkedHour) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, wh := range whs {
			if wh.ID == "" {
				wh.ID = core.NewID()
			}
			if err := s.insert(ctx, "worked_hours", workedHourColumns, workedHourToRow(wh)); err != nil {
				return errors.Wrap(err, "inserting worked hour")
			}
		}
		return nil
	})
}

func (s *Store) GetWorkedHour(ctx context.Context, id string) (workedhour.WorkedHour, error) {
	if !validID(id) {
		return workedhour.WorkedHour{}, workedhour.ErrNotFound
	}
	var row workedHourRow
	if err := s.get(ctx, &row, selectList(workedHourColumns, "worked_hours")+" WHERE id = ?", id); err != nil {
		return workedhour.WorkedHour{}, trapNoRows(err, workedhour.ErrNotFound, "selecting worked hour")
	}
	return row.toWorkedHour(), nil
}

func (s *Store) ListWorkedHours(ctx context.Context, filter workedhour.Filter) ([]workedhour.WorkedHour, error) {
	w := workedHourWhere(filter)
	q := selectList(workedHourColumns, "worked_hours") + w.String() + " ORDER BY worked_at DESC, started_at DESC"
	var rows []workedHourRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting worked hours")
	}
	whs := make([]workedhour.WorkedHour, 0, len(rows))
	for _, r := range rows {
		whs = append(whs, r.toWorkedHour())
	}
	return whs, nil
}

func (s *Store) CountWorkedHours(ctx context.Context, filter workedhour.Filter) (int, error) {
	w := workedHourWhere(filter)
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM worked_hours"+w.String(), w.args...)
	return n, errors.Wrap(err, "counting worked hours")
}

func (s *Store) UpdateWorkedHour(ctx context.Context, wh workedhour.WorkedHour) (workedhour.WorkedHour, error) {
	if !validID(wh.ID) {
		return workedhour.WorkedHour{}, workedhour.ErrNotFound
	}
	if err := s.update(ctx, "worked_hours", workedHourColumns, workedHourToRow(wh), workedhour.ErrNotFound); err != nil {
		return workedhour.WorkedHour{}, err
	}
	return wh, nil
}

func (s *Store) DeleteWorkedHour(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "worked_hours", id, workedhour.ErrNotFound)
}
