package contract

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Token grants a one-time, time-limited right to sign the contract of an enrollment.
type Token struct {
	ID           string     `json:"-"`
	EnrollmentID string     `json:"enrollment_id"`
	Token        string     `json:"-"`
	ValidUntil   time.Time  `json:"valid_until"`
	UsedAt       *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

func (t Token) Usable(now time.Time) bool {
	return t.UsedAt == nil && !now.After(t.ValidUntil)
}

type Link struct {
	Link       string    `json:"link"`
	QRCode     string    `json:"qr_code"` // PNG data URI
	ValidUntil time.Time `json:"valid_until"`
}

// Pending is what the signing page shows about the enrollment being signed.
type Pending struct {
	EnrollmentID string    `json:"enrollment_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	ClassName    string    `json:"class_name"`
	PlanName     string    `json:"plan_name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	PaymentDay   int       `json:"payment_day"`
}

const signaturePrefix = "data:image/"

type Signature struct {
	Signature string `json:"signature" validate:"required,startswith=data:image/"`
}

func (s *Signature) Validate(validate *validator.Validate) error {
	s.Signature = strings.TrimSpace(s.Signature)
	return validate.Struct(s)
}

// Document is a rendered contract.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}
