package sqlxdb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/payment"
)

var paymentColumns = []string{"id", "enrollment_id", "amount", "due_date", "status", "paid_at", "created_at", "updated_at"}

type paymentRow struct {
	ID           string          `db:"id"`
	EnrollmentID string          `db:"enrollment_id"`
	Amount       decimal.Decimal `db:"amount"`
	DueDate      time.Time       `db:"due_date"`
	Status       payment.Status  `db:"status"`
	PaidAt       null.Time       `db:"paid_at"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type paymentDetailRow struct {
	paymentRow
	StudentID      null.String `db:"student_id"`
	StudentName    null.String `db:"student_name"`
	StudentPhone   null.String `db:"student_phone"`
	ClassID        null.String `db:"class_id"`
	ClassName      null.String `db:"class_name"`
	ModalityName   null.String `db:"modality_name"`
	PlanName       null.String `db:"plan_name"`
	DurationInDays null.Int    `db:"duration_in_days"`
}

func paymentToRow(p payment.Payment) paymentRow {
	return paymentRow{
		ID:           p.ID,
		EnrollmentID: p.EnrollmentID,
		Amount:       p.Amount,
		DueDate:      p.DueDate,
		Status:       p.Status,
		PaidAt:       null.TimeFromPtr(p.PaidAt),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r paymentRow) toPayment() payment.Payment {
	return payment.Payment{
		ID:           r.ID,
		EnrollmentID: r.EnrollmentID,
		Amount:       r.Amount,
		DueDate:      r.DueDate,
		Status:       r.Status,
		PaidAt:       r.PaidAt.Ptr(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r paymentDetailRow) toDetail() payment.Detail {
	return payment.Detail{
		Payment:        r.toPayment(),
		StudentID:      r.StudentID.String,
		StudentName:    r.StudentName.String,
		StudentPhone:   r.StudentPhone.String,
		ClassID:        r.ClassID.String,
		ClassName:      r.ClassName.String,
		ModalityName:   r.ModalityName.String,
		PlanName:       r.PlanName.String,
		DurationInDays: r.DurationInDays.Int,
	}
}

// paymentWhere filters the payments aliased as p. The paid range only keeps paid instants.
func paymentWhere(filter payment.Filter) *where {
	w := &where{}
	w.ids("p.id", filter.IDs)
	w.ids("p.enrollment_id", filter.EnrollmentIDs)
	w.strs("p.status", toStrings(filter.Statuses))
	w.notStrs("p.status", toStrings(filter.ExcludeStatuses))
	w.between("p.due_date", filter.DueFrom, filter.DueTo)
	if !filter.PaidFrom.IsZero() || !filter.PaidTo.IsZero() {
		w.add("p.paid_at IS NOT NULL")
		w.between("p.paid_at", filter.PaidFrom, filter.PaidTo)
	}
	return w
}

func (s *Store) CreatePayments(ctx context.Context, payments []payment.Payment) ([]payment.Payment, error) {
	created := make([]payment.Payment, 0, len(payments))
	err := s.WithTx(ctx, func(ctx context.Context) error {
		for _, p := range payments {
			if p.ID == "" {
				p.ID = core.NewID()
			}
			if err := s.insert(ctx, "payments", paymentColumns, paymentToRow(p)); err != nil {
				return errors.Wrap(err, "inserting payment")
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (payment.Payment, error) {
	if !validID(id) {
		return payment.Payment{}, payment.ErrNotFound
	}
	var row paymentRow
	if err := s.get(ctx, &row, selectList(paymentColumns, "payments")+" WHERE id = ?", id); err != nil {
		return payment.Payment{}, trapNoRows(err, payment.ErrNotFound, "selecting payment")
	}
	return row.toPayment(), nil
}

func (s *Store) ListPayments(ctx context.Context, filter payment.Filter) ([]payment.Payment, error) {
	w := paymentWhere(filter)
	q := "SELECT p." + strings.Join(paymentColumns, ", p.") + " FROM payments p" + w.String() + " ORDER BY p.due_date"
	var rows []paymentRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting payments")
	}
	payments := make([]payment.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}

func (s *Store) ListPaymentDetails(ctx context.Context, filter payment.Filter) ([]payment.Detail, error) {
	w := paymentWhere(filter)
	q := "SELECT p." + strings.Join(paymentColumns, ", p.") + `,
		st.id::text AS student_id, TRIM(st.first_name || ' ' || st.last_name) AS student_name, st.phone AS student_phone,
		c.id::text AS class_id, c.name AS class_name, m.name AS modality_name,
		pl.name AS plan_name, pl.duration_in_days AS duration_in_days
		FROM payments p
		LEFT JOIN enrollments e ON e.id = p.enrollment_id
		LEFT JOIN students st ON st.id = e.student_id
		LEFT JOIN plans pl ON pl.id = e.plan_id
		LEFT JOIN classes c ON c.id = e.class_id
		LEFT JOIN modalities m ON m.id = c.modality_id` + w.String() + " ORDER BY p.due_date"
	var rows []paymentDetailRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting payment details")
	}
	details := make([]payment.Detail, 0, len(rows))
	for _, r := range rows {
		details = append(details, r.toDetail())
	}
	return details, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	if !validID(p.ID) {
		return payment.Payment{}, payment.ErrNotFound
	}
	if err := s.update(ctx, "payments", paymentColumns, paymentToRow(p), payment.ErrNotFound); err != nil {
		return payment.Payment{}, err
	}
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "payments", id, payment.ErrNotFound)
}
