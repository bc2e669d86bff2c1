package student

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var (
	ErrNotFound        = core.NewNotFoundError("student")
	ErrAddressNotFound = core.NewNotFoundError("address")
)

type (
	Repository interface {
		core.Transactor

		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		ListStudents(ctx context.Context, filter Filter) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent removes a student with everything that belongs to them.
		DeleteStudent(ctx context.Context, id string) error

		CreateEmergencyContact(ctx context.Context, c EmergencyContact) (EmergencyContact, error)
		ListEmergencyContacts(ctx context.Context, studentID string) ([]EmergencyContact, error)
		UpdateEmergencyContact(ctx context.Context, c EmergencyContact) (EmergencyContact, error)

		CreateAddress(ctx context.Context, a Address) (Address, error)
		GetStudentAddress(ctx context.Context, studentID string) (Address, error)
		UpdateAddress(ctx context.Context, a Address) (Address, error)
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// Create stores a student from an already validated NewStudent.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := svc.now()
	return svc.repo.CreateStudent(ctx, Student{
		ID:        core.NewID(),
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		BirthDate: ns.BirthDate,
		CPF:       ns.CPF,
		RG:        ns.RG,
		Phone:     ns.Phone,
		Email:     ns.Email,
		Instagram: ns.Instagram,
		Obs:       ns.Obs,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Profile, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	contacts, err := svc.repo.ListEmergencyContacts(ctx, id)
	if err != nil {
		return Profile{}, errors.Wrap(err, "listing emergency contacts")
	}
	p := Profile{Student: s, EmergencyContacts: contacts}
	switch addr, err := svc.repo.GetStudentAddress(ctx, id); {
	case err == nil:
		p.Address = &addr
	case errors.Cause(err) != ErrAddressNotFound:
		return Profile{}, errors.Wrap(err, "getting address")
	}
	return p, nil
}

// Search returns the students whose name contains `name`.
func (svc *Service) Search(ctx context.Context, name string) ([]Student, error) {
	return svc.repo.ListStudents(ctx, Filter{Name: core.CleanString(name)})
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	set(&s.FirstName, us.FirstName)
	set(&s.LastName, us.LastName)
	set(&s.CPF, us.CPF)
	set(&s.RG, us.RG)
	set(&s.Phone, us.Phone)
	set(&s.Email, us.Email)
	set(&s.Instagram, us.Instagram)
	set(&s.Obs, us.Obs)
	if us.BirthDate != nil {
		s.BirthDate = us.BirthDate
	}
	s.UpdatedAt = svc.now()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) Remove(ctx context.Context, id string) error {
	if _, err := svc.repo.GetStudent(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, id)
}

// AddEmergencyContact stores nc for a student, unless it has no name.
func (svc *Service) AddEmergencyContact(ctx context.Context, studentID string, nc NewEmergencyContact) (*EmergencyContact, error) {
	if nc.Name == "" {
		return nil, nil
	}
	now := svc.now()
	c, err := svc.repo.CreateEmergencyContact(ctx, EmergencyContact{
		ID:           core.NewID(),
		StudentID:    studentID,
		Name:         nc.Name,
		Phone:        nc.Phone,
		Relationship: nc.Relationship,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveEmergencyContact replaces the first emergency contact of a student, or adds one.
func (svc *Service) SaveEmergencyContact(ctx context.Context, studentID string, nc NewEmergencyContact) (*EmergencyContact, error) {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	contacts, err := svc.repo.ListEmergencyContacts(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "listing emergency contacts")
	}
	if len(contacts) == 0 {
		return svc.AddEmergencyContact(ctx, studentID, nc)
	}
	c := contacts[0]
	c.Name, c.Phone, c.Relationship = nc.Name, nc.Phone, nc.Relationship
	c.UpdatedAt = svc.now()
	c, err = svc.repo.UpdateEmergencyContact(ctx, c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveAddress sets the address of a student.
func (svc *Service) SaveAddress(ctx context.Context, studentID string, na NewAddress) (Address, error) {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return Address{}, err
	}
	now := svc.now()
	addr, err := svc.repo.GetStudentAddress(ctx, studentID)
	isNew := errors.Cause(err) == ErrAddressNotFound
	switch {
	case isNew:
		addr = Address{ID: core.NewID(), StudentID: studentID, CreatedAt: now}
	case err != nil:
		return Address{}, errors.Wrap(err, "getting address")
	}
	addr.ZipCode, addr.State, addr.City = na.ZipCode, na.State, na.City
	addr.Neighborhood, addr.Street, addr.Number, addr.Complement = na.Neighborhood, na.Street, na.Number, na.Complement
	addr.UpdatedAt = now
	if isNew {
		return svc.repo.CreateAddress(ctx, addr)
	}
	return svc.repo.UpdateAddress(ctx, addr)
}
