package class

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/teacher"
)

var (
	ErrNotFound           = core.NewNotFoundError("class")
	ErrModalityNotFound   = core.NewNotFoundError("modality")
	ErrClassLevelNotFound = core.NewNotFoundError("class level")
)

type (
	Repository interface {
		core.Transactor

		CreateModality(ctx context.Context, m Modality) (Modality, error)
		GetModality(ctx context.Context, id string) (Modality, error)
		ListModalities(ctx context.Context, filter NameFilter) ([]Modality, error)
		UpdateModality(ctx context.Context, m Modality) (Modality, error)
		DeleteModality(ctx context.Context, id string) error

		CreateClassLevel(ctx context.Context, l ClassLevel) (ClassLevel, error)
		GetClassLevel(ctx context.Context, id string) (ClassLevel, error)
		ListClassLevels(ctx context.Context, filter NameFilter) ([]ClassLevel, error)
		UpdateClassLevel(ctx context.Context, l ClassLevel) (ClassLevel, error)
		DeleteClassLevel(ctx context.Context, id string) error

		CreateClass(ctx context.Context, c Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		ListClasses(ctx context.Context, filter Filter) ([]Class, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		DeleteClasses(ctx context.Context, ids ...string) error

		GetTeacher(ctx context.Context, id string) (teacher.Teacher, error)
		ListTeachers(ctx context.Context, filter teacher.Filter, orderings ...core.DBOrdering) ([]teacher.Teacher, error)

		DeleteGridItemsByClass(ctx context.Context, classIDs ...string) error
		// CountGridItemsByClass returns {classID: weekly slots}.
		CountGridItemsByClass(ctx context.Context) (map[string]int, error)
		// CountActiveEnrollmentsByClass returns {classID: active enrollments}.
		CountActiveEnrollmentsByClass(ctx context.Context) (map[string]int, error)
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// Modalities

func (svc *Service) CreateModality(ctx context.Context, nn NewName) (Modality, error) {
	now := svc.now()
	return svc.repo.CreateModality(ctx, Modality{ID: core.NewID(), Name: nn.Name, CreatedAt: now, UpdatedAt: now})
}

func (svc *Service) ListModalities(ctx context.Context, filter NameFilter) ([]Modality, error) {
	filter.Name = core.CleanString(filter.Name)
	return svc.repo.ListModalities(ctx, filter)
}

func (svc *Service) GetModality(ctx context.Context, id string) (Modality, error) {
	return svc.repo.GetModality(ctx, id)
}

// UpdateModality renames a modality and the classes named after it.
func (svc *Service) UpdateModality(ctx context.Context, id string, nn NewName) (Modality, error) {
	var m Modality
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if m, err = svc.repo.GetModality(ctx, id); err != nil {
			return err
		}
		m.Name = nn.Name
		m.UpdatedAt = svc.now()
		if m, err = svc.repo.UpdateModality(ctx, m); err != nil {
			return errors.Wrap(err, "updating modality")
		}
		return svc.renameClasses(ctx, Filter{ModalityID: id})
	})
	return m, err
}

// DeleteModality removes a modality along with its classes and their grid items,
// unless one of those classes still has active enrollments.
func (svc *Service) DeleteModality(ctx context.Context, id string) error {
	return svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetModality(ctx, id); err != nil {
			return err
		}
		if err := svc.deleteClassesCascade(ctx, Filter{ModalityID: id}, "modality"); err != nil {
			return err
		}
		return svc.repo.DeleteModality(ctx, id)
	})
}

// Class levels

func (svc *Service) CreateClassLevel(ctx context.Context, nn NewName) (ClassLevel, error) {
	now := svc.now()
	return svc.repo.CreateClassLevel(ctx, ClassLevel{ID: core.NewID(), Name: nn.Name, CreatedAt: now, UpdatedAt: now})
}

func (svc *Service) ListClassLevels(ctx context.Context, filter NameFilter) ([]ClassLevel, error) {
	filter.Name = core.CleanString(filter.Name)
	return svc.repo.ListClassLevels(ctx, filter)
}

func (svc *Service) GetClassLevel(ctx context.Context, id string) (ClassLevel, error) {
	return svc.repo.GetClassLevel(ctx, id)
}

// UpdateClassLevel renames a class level and the classes named after it.
func (svc *Service) UpdateClassLevel(ctx context.Context, id string, nn NewName) (ClassLevel, error) {
	var l ClassLevel
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if l, err = svc.repo.GetClassLevel(ctx, id); err != nil {
			return err
		}
		l.Name = nn.Name
		l.UpdatedAt = svc.now()
		if l, err = svc.repo.UpdateClassLevel(ctx, l); err != nil {
			return errors.Wrap(err, "updating class level")
		}
		return svc.renameClasses(ctx, Filter{ClassLevelID: id})
	})
	return l, err
}

// DeleteClassLevel removes a class level along with its classes and their grid items,
// unless one of those classes still has active enrollments.
func (svc *Service) DeleteClassLevel(ctx context.Context, id string) error {
	return svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetClassLevel(ctx, id); err != nil {
			return err
		}
		if err := svc.deleteClassesCascade(ctx, Filter{ClassLevelID: id}, "class level"); err != nil {
			return err
		}
		return svc.repo.DeleteClassLevel(ctx, id)
	})
}

func (svc *Service) deleteClassesCascade(ctx context.Context, filter Filter, owner string) error {
	classes, err := svc.repo.ListClasses(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	if len(classes) == 0 {
		return nil
	}
	active, err := svc.repo.CountActiveEnrollmentsByClass(ctx)
	if err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	blockers := lo.FilterMap(classes, func(c Class, _ int) (string, bool) {
		return c.Name, active[c.ID] > 0
	})
	if len(blockers) > 0 {
		return core.NewIntegrityError(owner+" has classes with active enrollments", blockers...)
	}

	ids := lo.Map(classes, func(c Class, _ int) string { return c.ID })
	if err := svc.repo.DeleteGridItemsByClass(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting grid items")
	}
	return errors.Wrap(svc.repo.DeleteClasses(ctx, ids...), "deleting classes")
}

func (svc *Service) renameClasses(ctx context.Context, filter Filter) error {
	classes, err := svc.repo.ListClasses(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	for _, c := range classes {
		name, err := svc.composeName(ctx, c.ModalityID, c.Description, c.ClassLevelID)
		if err != nil {
			return err
		}
		c.Name = name
		if _, err := svc.repo.UpdateClass(ctx, c); err != nil {
			return errors.Wrap(err, "renaming class")
		}
	}
	return nil
}

// Classes

func (svc *Service) composeName(ctx context.Context, modalityID, description, levelID string) (string, error) {
	m, err := svc.repo.GetModality(ctx, modalityID)
	if err != nil {
		return "", err
	}
	l, err := svc.repo.GetClassLevel(ctx, levelID)
	if err != nil {
		return "", err
	}
	return ComposeName(m.Name, description, l.Name), nil
}

func (svc *Service) checkTeacher(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	_, err := svc.repo.GetTeacher(ctx, *id)
	return err
}

// Create validates the references of nc and stores a class named after them.
func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	name, err := svc.composeName(ctx, nc.ModalityID, nc.Description, nc.ClassLevelID)
	if err != nil {
		return Class{}, err
	}
	if err := svc.checkTeacher(ctx, nc.TeacherID); err != nil {
		return Class{}, err
	}
	now := svc.now()
	return svc.repo.CreateClass(ctx, Class{
		ID:           core.NewID(),
		Name:         name,
		Description:  nc.Description,
		MaxStudents:  nc.MaxStudents,
		ModalityID:   nc.ModalityID,
		ClassLevelID: nc.ClassLevelID,
		TeacherID:    nc.TeacherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

// Update applies uc to a class and recomposes its name.
func (svc *Service) Update(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	c, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.MaxStudents != nil {
		c.MaxStudents = *uc.MaxStudents
	}
	if uc.ModalityID != nil {
		c.ModalityID = *uc.ModalityID
	}
	if uc.ClassLevelID != nil {
		c.ClassLevelID = *uc.ClassLevelID
	}
	if uc.TeacherID != nil {
		if *uc.TeacherID == "" {
			c.TeacherID = nil
		} else {
			if err := svc.checkTeacher(ctx, uc.TeacherID); err != nil {
				return Class{}, err
			}
			tid := *uc.TeacherID
			c.TeacherID = &tid
		}
	}
	if c.Name, err = svc.composeName(ctx, c.ModalityID, c.Description, c.ClassLevelID); err != nil {
		return Class{}, err
	}
	c.UpdatedAt = svc.now()
	return svc.repo.UpdateClass(ctx, c)
}

// Delete removes a class without active enrollments, with its grid items.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetClass(ctx, id); err != nil {
			return err
		}
		return svc.deleteClassesCascade(ctx, Filter{IDs: []string{id}}, "class")
	})
}

// List returns the classes matching filter with their related names, sorted by name.
func (svc *Service) List(ctx context.Context, filter Filter) ([]Info, error) {
	filter.Name = core.CleanString(filter.Name)
	filter.Description = core.CleanString(filter.Description)
	classes, err := svc.repo.ListClasses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	return svc.describe(ctx, classes)
}

func (svc *Service) describe(ctx context.Context, classes []Class) ([]Info, error) {
	modalities, err := svc.repo.ListModalities(ctx, NameFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing modalities")
	}
	levels, err := svc.repo.ListClassLevels(ctx, NameFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing class levels")
	}
	teachers, err := svc.repo.ListTeachers(ctx, teacher.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}
	slots, err := svc.repo.CountGridItemsByClass(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting grid items")
	}
	active, err := svc.repo.CountActiveEnrollmentsByClass(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}

	modalityNames := lo.SliceToMap(modalities, func(m Modality) (string, string) { return m.ID, m.Name })
	levelNames := lo.SliceToMap(levels, func(l ClassLevel) (string, string) { return l.ID, l.Name })
	teacherNames := lo.SliceToMap(teachers, func(t teacher.Teacher) (string, string) { return t.ID, t.FullName() })

	infos := make([]Info, 0, len(classes))
	for _, c := range classes {
		info := Info{
			Class:             c,
			ModalityName:      modalityNames[c.ModalityID],
			ClassLevelName:    levelNames[c.ClassLevelID],
			ClassesPerWeek:    slots[c.ID],
			ActiveEnrollments: active[c.ID],
		}
		if c.HasTeacher() {
			info.TeacherName = teacherNames[*c.TeacherID]
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// TeacherModalities returns the modalities of the classes a teacher teaches.
func (svc *Service) TeacherModalities(ctx context.Context, teacherID string) ([]Modality, error) {
	classes, err := svc.repo.ListClasses(ctx, Filter{TeacherID: teacherID})
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	if len(classes) == 0 {
		return []Modality{}, nil
	}
	ids := lo.Uniq(lo.Map(classes, func(c Class, _ int) string { return c.ModalityID }))
	return svc.repo.ListModalities(ctx, NameFilter{IDs: ids})
}
