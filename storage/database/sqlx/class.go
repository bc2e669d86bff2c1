package sqlxdb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
)

// Modalities and class levels share the same shape.

var nameColumns = []string{"id", "name", "created_at", "updated_at"}

type nameRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) listNames(ctx context.Context, table string, filter class.NameFilter) ([]nameRow, error) {
	var w where
	w.ids("id", filter.IDs)
	w.contains(filter.Name, "name")
	var rows []nameRow
	err := s.selectAll(ctx, &rows, selectList(nameColumns, table)+w.String()+" ORDER BY name", w.args...)
	return rows, errors.Wrapf(err, "selecting %s", table)
}

// deleteName removes the row of table unless classes still refer to it through fk.
func (s *Store) deleteName(ctx context.Context, table, fk, id, what string, notFound error) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		if !validID(id) {
			return notFound
		}
		var blockers []string
		if err := s.selectAll(ctx, &blockers, "SELECT name FROM classes WHERE "+fk+" = ? ORDER BY name", id); err != nil {
			return errors.Wrapf(err, "selecting classes by %s", fk)
		}
		if len(blockers) > 0 {
			return core.NewIntegrityError(what+" still has classes", blockers...)
		}
		return s.deleteByID(ctx, table, id, notFound)
	})
}

func (s *Store) CreateModality(ctx context.Context, m class.Modality) (class.Modality, error) {
	if m.ID == "" {
		m.ID = core.NewID()
	}
	if err := s.insert(ctx, "modalities", nameColumns, nameRow(m)); err != nil {
		return class.Modality{}, errors.Wrap(err, "inserting modality")
	}
	return m, nil
}

func (s *Store) GetModality(ctx context.Context, id string) (class.Modality, error) {
	if !validID(id) {
		return class.Modality{}, class.ErrModalityNotFound
	}
	var row nameRow
	if err := s.get(ctx, &row, selectList(nameColumns, "modalities")+" WHERE id = ?", id); err != nil {
		return class.Modality{}, trapNoRows(err, class.ErrModalityNotFound, "selecting modality")
	}
	return class.Modality(row), nil
}

func (s *Store) ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error) {
	rows, err := s.listNames(ctx, "modalities", filter)
	if err != nil {
		return nil, err
	}
	mods := make([]class.Modality, 0, len(rows))
	for _, r := range rows {
		mods = append(mods, class.Modality(r))
	}
	return mods, nil
}

func (s *Store) UpdateModality(ctx context.Context, m class.Modality) (class.Modality, error) {
	if !validID(m.ID) {
		return class.Modality{}, class.ErrModalityNotFound
	}
	if err := s.update(ctx, "modalities", nameColumns, nameRow(m), class.ErrModalityNotFound); err != nil {
		return class.Modality{}, err
	}
	return m, nil
}

func (s *Store) DeleteModality(ctx context.Context, id string) error {
	return s.deleteName(ctx, "modalities", "modality_id", id, "modality", class.ErrModalityNotFound)
}

func (s *Store) CreateClassLevel(ctx context.Context, l class.ClassLevel) (class.ClassLevel, error) {
	if l.ID == "" {
		l.ID = core.NewID()
	}
	if err := s.insert(ctx, "class_levels", nameColumns, nameRow(l)); err != nil {
		return class.ClassLevel{}, errors.Wrap(err, "inserting class level")
	}
	return l, nil
}

func (s *Store) GetClassLevel(ctx context.Context, id string) (class.ClassLevel, error) {
	if !validID(id) {
		return class.ClassLevel{}, class.ErrClassLevelNotFound
	}
	var row nameRow
	if err := s.get(ctx, &row, selectList(nameColumns, "class_levels")+" WHERE id = ?", id); err != nil {
		return class.ClassLevel{}, trapNoRows(err, class.ErrClassLevelNotFound, "selecting class level")
	}
	return class.ClassLevel(row), nil
}

func (s *Store) ListClassLevels(ctx context.Context, filter class.NameFilter) ([]class.ClassLevel, error) {
	rows, err := s.listNames(ctx, "class_levels", filter)
	if err != nil {
		return nil, err
	}
	levels := make([]class.ClassLevel, 0, len(rows))
	for _, r := range rows {
		levels = append(levels, class.ClassLevel(r))
	}
	return levels, nil
}

func (s *Store) UpdateClassLevel(ctx context.Context, l class.ClassLevel) (class.ClassLevel, error) {
	if !validID(l.ID) {
		return class.ClassLevel{}, class.ErrClassLevelNotFound
	}
	if err := s.update(ctx, "class_levels", nameColumns, nameRow(l), class.ErrClassLevelNotFound); err != nil {
		return class.ClassLevel{}, err
	}
	return l, nil
}

func (s *Store) DeleteClassLevel(ctx context.Context, id string) error {
	return s.deleteName(ctx, "class_levels", "class_level_id", id, "class level", class.ErrClassLevelNotFound)
}

// Classes

var classColumns = []string{
	"id", "name", "description", "max_students", "modality_id", "class_level_id", "teacher_id", "created_at", "updated_at",
}

type classRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Description  string      `db:"description"`
	MaxStudents  int         `db:"max_students"`
	ModalityID   string      `db:"modality_id"`
	ClassLevelID string      `db:"class_level_id"`
	TeacherID    null.String `db:"teacher_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func classToRow(c class.Class) classRow {
	return classRow{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		MaxStudents:  c.MaxStudents,
		ModalityID:   c.ModalityID,
		ClassLevelID: c.ClassLevelID,
		TeacherID:    null.StringFromPtr(c.TeacherID),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r classRow) toClass() class.Class {
	return class.Class{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		MaxStudents:  r.MaxStudents,
		ModalityID:   r.ModalityID,
		ClassLevelID: r.ClassLevelID,
		TeacherID:    r.TeacherID.Ptr(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (s *Store) CreateClass(ctx context.Context, c class.Class) (class.Class, error) {
	if c.ID == "" {
		c.ID = core.NewID()
	}
	if err := s.insert(ctx, "classes", classColumns, classToRow(c)); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (s *Store) GetClass(ctx context.Context, id string) (class.Class, error) {
	if !validID(id) {
		return class.Class{}, class.ErrNotFound
	}
	var row classRow
	if err := s.get(ctx, &row, selectList(classColumns, "classes")+" WHERE id = ?", id); err != nil {
		return class.Class{}, trapNoRows(err, class.ErrNotFound, "selecting class")
	}
	return row.toClass(), nil
}

// ListClasses matches Name against the class and modality names.
func (s *Store) ListClasses(ctx context.Context, filter class.Filter) ([]class.Class, error) {
	var w where
	w.ids("c.id", filter.IDs)
	w.contains(filter.Name, "c.name", "m.name")
	if filter.Description != "" {
		w.eq("c.description", filter.Description)
	}
	if filter.TeacherID != "" {
		w.ids("c.teacher_id", []string{filter.TeacherID})
	}
	if filter.ModalityID != "" {
		w.ids("c.modality_id", []string{filter.ModalityID})
	}
	if filter.ClassLevelID != "" {
		w.ids("c.class_level_id", []string{filter.ClassLevelID})
	}

	q := "SELECT c." + strings.Join(classColumns, ", c.") +
		" FROM classes c JOIN modalities m ON m.id = c.modality_id" + w.String() + " ORDER BY c.name"
	var rows []classRow
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}

func (s *Store) UpdateClass(ctx context.Context, c class.Class) (class.Class, error) {
	if !validID(c.ID) {
		return class.Class{}, class.ErrNotFound
	}
	if err := s.update(ctx, "classes", classColumns, classToRow(c), class.ErrNotFound); err != nil {
		return class.Class{}, err
	}
	return c, nil
}

// DeleteClasses removes classes. Their slots, trials and worked hours go along through cascades,
// their enrollments lose the class.
func (s *Store) DeleteClasses(ctx context.Context, ids ...string) error {
	var w where
	w.ids("id", ids)
	_, err := s.exec(ctx, "DELETE FROM classes"+w.String(), w.args...)
	return errors.Wrap(err, "deleting classes")
}

func (s *Store) DeleteGridItemsByClass(ctx context.Context, classIDs ...string) error {
	var w where
	w.ids("class_id", classIDs)
	_, err := s.exec(ctx, "DELETE FROM grid_items"+w.String(), w.args...)
	return errors.Wrap(err, "deleting grid items by class")
}

func (s *Store) CountGridItemsByClass(ctx context.Context) (map[string]int, error) {
	counts, err := s.countBy(ctx, "SELECT class_id::text AS key, COUNT(*) AS count FROM grid_items GROUP BY class_id")
	return counts, errors.Wrap(err, "counting grid items by class")
}

func (s *Store) CountActiveEnrollmentsByClass(ctx context.Context) (map[string]int, error) {
	return s.countEnrollmentsByClass(ctx, []enrollment.Status{enrollment.StatusActive})
}

func (s *Store) countEnrollmentsByClass(ctx context.Context, statuses []enrollment.Status) (map[string]int, error) {
	var w where
	w.add("class_id IS NOT NULL")
	w.strs("status", toStrings(statuses))
	counts, err := s.countBy(ctx,
		"SELECT class_id::text AS key, COUNT(*) AS count FROM enrollments"+w.String()+" GROUP BY class_id", w.args...)
	return counts, errors.Wrap(err, "counting enrollments by class")
}
