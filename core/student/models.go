package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lunedance/lune/core"
)

type (
	Student struct {
		ID        string     `json:"id"`
		FirstName string     `json:"first_name"`
		LastName  string     `json:"last_name"`
		BirthDate *time.Time `json:"birth_date"`
		CPF       string     `json:"cpf"`
		RG        string     `json:"rg"`
		Phone     string     `json:"phone"`
		Email     string     `json:"email"`
		Instagram string     `json:"instagram"`
		Obs       string     `json:"obs"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
	}

	EmergencyContact struct {
		ID           string    `json:"id"`
		StudentID    string    `json:"student_id"`
		Name         string    `json:"name"`
		Phone        string    `json:"phone"`
		Relationship string    `json:"relationship"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Address struct {
		ID           string    `json:"id"`
		StudentID    string    `json:"student_id"`
		ZipCode      string    `json:"zip_code"`
		State        string    `json:"state"`
		City         string    `json:"city"`
		Neighborhood string    `json:"neighborhood"`
		Street       string    `json:"street"`
		Number       string    `json:"number"`
		Complement   string    `json:"complement"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	// Profile is a Student with their contacts and address.
	Profile struct {
		Student
		EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
		Address           *Address           `json:"address"`
	}
)

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Age returns the age in whole years at `at`, or -1 when the birth date is unknown.
func (s Student) Age(at time.Time) int {
	if s.BirthDate == nil {
		return -1
	}
	b := *s.BirthDate
	age := at.Year() - b.Year()
	if at.YearDay() < b.YearDay() {
		age--
	}
	return age
}

type NewStudent struct {
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date"`
	CPF       string     `json:"cpf" validate:"omitempty,len=11,numeric"`
	RG        string     `json:"rg"`
	Phone     string     `json:"phone" validate:"omitempty,min=10,max=13"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Instagram string     `json:"instagram"`
	Obs       string     `json:"obs"`
}

func (ns *NewStudent) Clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.CPF = core.OnlyDigits(ns.CPF)
	ns.Phone = core.OnlyDigits(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Instagram = strings.TrimPrefix(core.CleanString(ns.Instagram), "@")
	ns.Obs = core.CleanString(ns.Obs)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

type UpdateStudent struct {
	FirstName *string    `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string    `json:"last_name"`
	BirthDate *time.Time `json:"birth_date"`
	CPF       *string    `json:"cpf" validate:"omitempty,len=11,numeric"`
	RG        *string    `json:"rg"`
	Phone     *string    `json:"phone" validate:"omitempty,min=10,max=13"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Instagram *string    `json:"instagram"`
	Obs       *string    `json:"obs"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	if us.CPF != nil {
		v := core.OnlyDigits(*us.CPF)
		us.CPF = &v
	}
	if us.Phone != nil {
		v := core.OnlyDigits(*us.Phone)
		us.Phone = &v
	}
	if us.Email != nil {
		v := core.CleanString(*us.Email, true)
		us.Email = &v
	}
	return validate.Struct(us)
}

type NewEmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone" validate:"required_with=Name"`
	Relationship string `json:"relationship"`
}

func (nc *NewEmergencyContact) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Phone = core.OnlyDigits(nc.Phone)
	nc.Relationship = core.CleanString(nc.Relationship)
	return validate.Struct(nc)
}

type NewAddress struct {
	ZipCode      string `json:"zip_code" validate:"omitempty,len=8,numeric"`
	State        string `json:"state" validate:"omitempty,len=2"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
}

func (na *NewAddress) Validate(validate *validator.Validate) error {
	na.ZipCode = core.OnlyDigits(na.ZipCode)
	na.State = strings.ToUpper(core.CleanString(na.State))
	na.City = core.CleanString(na.City)
	na.Neighborhood = core.CleanString(na.Neighborhood)
	na.Street = core.CleanString(na.Street)
	na.Number = core.CleanString(na.Number)
	na.Complement = core.CleanString(na.Complement)
	return validate.Struct(na)
}

type Filter struct {
	IDs  []string
	Name string `query:"name"`
}
