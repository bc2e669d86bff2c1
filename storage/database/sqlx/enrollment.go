package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/payment"
)

var enrollmentColumns = []string{
	"id", "student_id", "plan_id", "class_id", "start_date", "end_date", "payment_day",
	"status", "signature", "signed_at", "created_at", "updated_at",
}

type enrollmentRow struct {
	ID         string            `db:"id"`
	StudentID  string            `db:"student_id"`
	PlanID     string            `db:"plan_id"`
	ClassID    null.String       `db:"class_id"`
	StartDate  time.Time         `db:"start_date"`
	EndDate    time.Time         `db:"end_date"`
	PaymentDay int               `db:"payment_day"`
	Status     enrollment.Status `db:"status"`
	Signature  string            `db:"signature"`
	SignedAt   null.Time         `db:"signed_at"`
	CreatedAt  time.Time         `db:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at"`
}

func enrollmentToRow(e enrollment.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:         e.ID,
		StudentID:  e.StudentID,
		PlanID:     e.PlanID,
		ClassID:    null.StringFromPtr(e.ClassID),
		StartDate:  e.StartDate,
		EndDate:    e.EndDate,
		PaymentDay: e.PaymentDay,
		Status:     e.Status,
		Signature:  e.Signature,
		SignedAt:   null.TimeFromPtr(e.SignedAt),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (r enrollmentRow) toEnrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:         r.ID,
		StudentID:  r.StudentID,
		PlanID:     r.PlanID,
		ClassID:    r.ClassID.Ptr(),
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		PaymentDay: r.PaymentDay,
		Status:     r.Status,
		Signature:  r.Signature,
		SignedAt:   r.SignedAt.Ptr(),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (s *Store) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if err := s.insert(ctx, "enrollments", enrollmentColumns, enrollmentToRow(e)); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (s *Store) GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error) {
	if !validID(id) {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	var row enrollmentRow
	if err := s.get(ctx, &row, selectList(enrollmentColumns, "enrollments")+" WHERE id = ?", id); err != nil {
		return enrollment.Enrollment{}, trapNoRows(err, enrollment.ErrNotFound, "selecting enrollment")
	}
	return row.toEnrollment(), nil
}

func (s *Store) ListEnrollments(ctx context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error) {
	var w where
	w.ids("id", filter.IDs)
	w.ids("student_id", filter.StudentIDs)
	w.ids("class_id", filter.ClassIDs)
	w.strs("status", toStrings(filter.Statuses))

	var rows []enrollmentRow
	q := selectList(enrollmentColumns, "enrollments") + w.String() + " ORDER BY start_date DESC"
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.toEnrollment())
	}
	return enrollments, nil
}

func (s *Store) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	if !validID(e.ID) {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	if err := s.update(ctx, "enrollments", enrollmentColumns, enrollmentToRow(e), enrollment.ErrNotFound); err != nil {
		return enrollment.Enrollment{}, err
	}
	return e, nil
}

// DeleteEnrollment removes an enrollment. Payments and the contract token go along through cascades.
func (s *Store) DeleteEnrollment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "enrollments", id, enrollment.ErrNotFound)
}

func (s *Store) CancelPendingPayments(ctx context.Context, enrollmentID string, at time.Time) (int, error) {
	if !validID(enrollmentID) {
		return 0, nil
	}
	res, err := s.exec(ctx, "UPDATE payments SET status = ?, updated_at = ? WHERE enrollment_id = ? AND status = ?",
		string(payment.StatusCanceled), at.UTC(), enrollmentID, string(payment.StatusPending))
	if err != nil {
		return 0, errors.Wrap(err, "cancelling pending payments")
	}
	n, err := res.RowsAffected()
	return int(n), err
}
