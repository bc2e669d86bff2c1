package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/teacher"
)

var teacherColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "cpf", "pix_key",
	"price_hour", "is_active", "password_hash", "created_at", "updated_at",
}

var teacherOrderings = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"created_at": "created_at",
	"price_hour": "price_hour",
}

type teacherRow struct {
	ID           string          `db:"id"`
	FirstName    string          `db:"first_name"`
	LastName     string          `db:"last_name"`
	Email        string          `db:"email"`
	Phone        string          `db:"phone"`
	CPF          string          `db:"cpf"`
	PixKey       string          `db:"pix_key"`
	PriceHour    decimal.Decimal `db:"price_hour"`
	IsActive     bool            `db:"is_active"`
	PasswordHash []byte          `db:"password_hash"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r teacherRow) toTeacher() teacher.Teacher {
	return teacher.Teacher(r)
}

func (s *Store) CreateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if err := s.insert(ctx, "teachers", teacherColumns, teacherRow(t)); err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return t, nil
}

func (s *Store) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	if !validID(id) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	var row teacherRow
	if err := s.get(ctx, &row, selectList(teacherColumns, "teachers")+" WHERE id = ?", id); err != nil {
		return teacher.Teacher{}, trapNoRows(err, teacher.ErrNotFound, "selecting teacher")
	}
	return row.toTeacher(), nil
}

func (s *Store) GetTeacherByCPF(ctx context.Context, cpf string) (teacher.Teacher, error) {
	var row teacherRow
	if err := s.get(ctx, &row, selectList(teacherColumns, "teachers")+" WHERE cpf = ?", cpf); err != nil {
		return teacher.Teacher{}, trapNoRows(err, teacher.ErrNotFound, "selecting teacher by cpf")
	}
	return row.toTeacher(), nil
}

func (s *Store) ListTeachers(ctx context.Context, filter teacher.Filter, orderings ...core.DBOrdering) ([]teacher.Teacher, error) {
	var w where
	w.ids("id", filter.IDs)
	w.contains(filter.Name, "first_name", "last_name")
	if filter.IsActive != nil {
		w.eq("is_active", *filter.IsActive)
	}

	q := selectList(teacherColumns, "teachers") + w.String() +
		" ORDER BY " + core.OrderBy(orderings, teacherOrderings, "first_name ASC, last_name ASC")
	var rows []teacherRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, r.toTeacher())
	}
	return teachers, nil
}

func (s *Store) UpdateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if !validID(t.ID) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	if err := s.update(ctx, "teachers", teacherColumns, teacherRow(t), teacher.ErrNotFound); err != nil {
		return teacher.Teacher{}, err
	}
	return t, nil
}

// DeleteTeacher removes a teacher with their worked hours.
func (s *Store) DeleteTeacher(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "teachers", id, teacher.ErrNotFound)
}

func (s *Store) CountClassesByTeacher(ctx context.Context) (map[string]int, error) {
	counts, err := s.countBy(ctx,
		"SELECT teacher_id::text AS key, COUNT(*) AS count FROM classes WHERE teacher_id IS NOT NULL GROUP BY teacher_id")
	return counts, errors.Wrap(err, "counting classes by teacher")
}
