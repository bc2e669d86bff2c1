package teacher

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/lunedance/lune/core"
)

type Teacher struct {
	ID           string          `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	CPF          string          `json:"cpf"`
	PixKey       string          `json:"pix_key"`
	PriceHour    decimal.Decimal `json:"price_hour"`
	IsActive     bool            `json:"is_active"`
	PasswordHash []byte          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (t Teacher) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(pwd))
}

type NewTeacher struct {
	FirstName string          `json:"first_name" validate:"required"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email" validate:"omitempty,email"`
	Phone     string          `json:"phone"`
	CPF       string          `json:"cpf" validate:"required,len=11,numeric"`
	PixKey    string          `json:"pix_key"`
	PriceHour decimal.Decimal `json:"price_hour" validate:"gte=0"`
	Password  string          `json:"password" validate:"required,min=6"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.OnlyDigits(nt.Phone)
	nt.CPF = core.OnlyDigits(nt.CPF)
	nt.PixKey = core.CleanString(nt.PixKey)
	return validate.Struct(nt)
}

type UpdateTeacher struct {
	FirstName *string          `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string          `json:"last_name"`
	Email     *string          `json:"email" validate:"omitempty,email"`
	Phone     *string          `json:"phone"`
	CPF       *string          `json:"cpf" validate:"omitempty,len=11,numeric"`
	PixKey    *string          `json:"pix_key"`
	PriceHour *decimal.Decimal `json:"price_hour" validate:"omitempty,gte=0"`
	IsActive  *bool            `json:"is_active"`
	Password  string           `json:"password" validate:"omitempty,min=6"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	clean := func(s *string, fn func(string) string) *string {
		if s == nil {
			return nil
		}
		v := fn(*s)
		return &v
	}
	ut.FirstName = clean(ut.FirstName, func(s string) string { return core.CleanString(s) })
	ut.LastName = clean(ut.LastName, func(s string) string { return core.CleanString(s) })
	ut.Email = clean(ut.Email, func(s string) string { return core.CleanString(s, true) })
	ut.Phone = clean(ut.Phone, core.OnlyDigits)
	ut.CPF = clean(ut.CPF, core.OnlyDigits)
	return validate.Struct(ut)
}

type Filter struct {
	IDs      []string
	Name     string `query:"name"`
	IsActive *bool  `query:"is_active"`
}
