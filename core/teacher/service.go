package teacher

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var (
	ErrNotFound  = core.NewNotFoundError("teacher")
	ErrCPFExists = errors.New("a teacher with this CPF already exists")
)

type (
	Repository interface {
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		GetTeacherByCPF(ctx context.Context, cpf string) (Teacher, error)
		ListTeachers(ctx context.Context, filter Filter, orderings ...core.DBOrdering) ([]Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error
		// CountClassesByTeacher returns {teacherID: number of classes taught}.
		CountClassesByTeacher(ctx context.Context) (map[string]int, error)
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

func (svc *Service) checkCPF(ctx context.Context, cpf string, excludeID string) error {
	existing, err := svc.repo.GetTeacherByCPF(ctx, cpf)
	switch {
	case err == nil && existing.ID != excludeID:
		return core.NewValidationError(ErrCPFExists, core.FieldError{Field: "cpf", Error: ErrCPFExists.Error()})
	case err != nil && errors.Cause(err) != ErrNotFound:
		return errors.Wrap(err, "checking cpf")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := svc.checkCPF(ctx, nt.CPF, ""); err != nil {
		return Teacher{}, err
	}
	now := svc.now()
	t := Teacher{
		ID:        core.NewID(),
		FirstName: nt.FirstName,
		LastName:  nt.LastName,
		Email:     nt.Email,
		Phone:     nt.Phone,
		CPF:       nt.CPF,
		PixKey:    nt.PixKey,
		PriceHour: nt.PriceHour,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.SetPassword(nt.Password); err != nil {
		return Teacher{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateTeacher(ctx, t)
}

func (svc *Service) List(ctx context.Context, filter Filter, orderings ...core.DBOrdering) ([]Teacher, error) {
	filter.Name = core.CleanString(filter.Name)
	return svc.repo.ListTeachers(ctx, filter, orderings...)
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetTeacher(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if ut.CPF != nil && *ut.CPF != t.CPF {
		if err := svc.checkCPF(ctx, *ut.CPF, t.ID); err != nil {
			return Teacher{}, err
		}
		t.CPF = *ut.CPF
	}
	if ut.FirstName != nil {
		t.FirstName = *ut.FirstName
	}
	if ut.LastName != nil {
		t.LastName = *ut.LastName
	}
	if ut.Email != nil {
		t.Email = *ut.Email
	}
	if ut.Phone != nil {
		t.Phone = *ut.Phone
	}
	if ut.PixKey != nil {
		t.PixKey = *ut.PixKey
	}
	if ut.PriceHour != nil {
		t.PriceHour = *ut.PriceHour
	}
	if ut.IsActive != nil {
		t.IsActive = *ut.IsActive
	}
	if ut.Password != "" {
		if err := t.SetPassword(ut.Password); err != nil {
			return Teacher{}, errors.Wrap(err, "hashing password")
		}
	}
	t.UpdatedAt = svc.now()
	return svc.repo.UpdateTeacher(ctx, t)
}

// Delete removes a teacher that no class refers to.
func (svc *Service) Delete(ctx context.Context, id string) error {
	t, err := svc.repo.GetTeacher(ctx, id)
	if err != nil {
		return err
	}
	counts, err := svc.repo.CountClassesByTeacher(ctx)
	if err != nil {
		return errors.Wrap(err, "counting classes")
	}
	if counts[id] > 0 {
		return core.NewIntegrityError("teacher still has classes", t.FullName())
	}
	return svc.repo.DeleteTeacher(ctx, id)
}

// Authenticate checks teacher credentials. Any mismatch is reported as ErrNotFound.
func (svc *Service) Authenticate(ctx context.Context, cpf, pwd string) (Teacher, error) {
	t, err := svc.repo.GetTeacherByCPF(ctx, core.OnlyDigits(cpf))
	if err != nil {
		return Teacher{}, err
	}
	if err := t.CheckPassword(pwd); err != nil {
		return Teacher{}, ErrNotFound
	}
	return t, nil
}
