package contract

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/student"
)

var (
	ErrTokenNotFound    = core.NewNotFoundError("contract token")
	ErrSignatureMissing = core.NewNotFoundError("signature")
)

const (
	qrCodeSize  = 256
	tokenLength = 32
)

type (
	Repository interface {
		core.Transactor

		// UpsertContractToken stores t, replacing the token of the same enrollment.
		UpsertContractToken(ctx context.Context, t Token) (Token, error)
		GetContractToken(ctx context.Context, token string) (Token, error)
		DeleteContractToken(ctx context.Context, token string) error

		GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error)
		UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error)
		GetStudent(ctx context.Context, id string) (student.Student, error)
		GetPlan(ctx context.Context, id string) (plan.Plan, error)
		GetClass(ctx context.Context, id string) (class.Class, error)
		GetModality(ctx context.Context, id string) (class.Modality, error)
		ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error)
	}

	Service struct {
		repo     Repository
		students *student.Service
		mailer   core.EmailService
		conf     *core.Config
		now      calendar.Clock
	}
)

func NewService(repo Repository, students *student.Service, mailer core.EmailService, conf *core.Config, now calendar.Clock) *Service {
	return &Service{repo: repo, students: students, mailer: mailer, conf: conf, now: now}
}

func newToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateSignatureLink issues a new signing link for an enrollment, invalidating the previous
// one, and emails it to the student with its QR code when they have an email.
func (svc *Service) GenerateSignatureLink(ctx context.Context, enrollmentID string) (Link, error) {
	enr, err := svc.repo.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return Link{}, err
	}
	s, err := svc.repo.GetStudent(ctx, enr.StudentID)
	if err != nil {
		return Link{}, errors.Wrap(err, "getting student")
	}

	value, err := newToken()
	if err != nil {
		return Link{}, errors.Wrap(err, "generating token")
	}
	now := svc.now()
	t, err := svc.repo.UpsertContractToken(ctx, Token{
		ID:           core.NewID(),
		EnrollmentID: enr.ID,
		Token:        value,
		ValidUntil:   now.Add(svc.conf.ContractTokenTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Link{}, errors.Wrap(err, "storing token")
	}

	url := fmt.Sprintf("%s/assinar-matricula/%s", strings.TrimSuffix(svc.conf.FrontendBaseURL, "/"), t.Token)
	png, err := qrcode.Encode(url, qrcode.Medium, qrCodeSize)
	if err != nil {
		return Link{}, errors.Wrap(err, "encoding qr code")
	}

	if s.Email != "" {
		msg := core.NewTemplatedMessage(svc.conf, "contract_signature", "Assinatura do contrato de matrícula",
			map[string]string{
				"StudentName": s.FirstName,
				"ValidUntil":  calendar.Local(t.ValidUntil).Format("02/01/2006 15:04"),
				"URL":         url,
			},
			mail.Address{Name: s.FullName(), Address: s.Email},
		)
		if err = msg.Attach(bytes.NewReader(png), "assinatura.png", "image/png"); err != nil {
			return Link{}, errors.Wrap(err, "attaching qr code")
		}
		svc.mailer.SendMessages(msg)
	}

	return Link{
		Link:       url,
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		ValidUntil: t.ValidUntil,
	}, nil
}

// usableToken returns the token if it exists, was not used and is still valid.
func (svc *Service) usableToken(ctx context.Context, value string) (Token, error) {
	t, err := svc.repo.GetContractToken(ctx, value)
	switch {
	case errors.Cause(err) == ErrTokenNotFound:
		return Token{}, core.ErrInvalidOrExpiredToken
	case err != nil:
		return Token{}, err
	case !t.Usable(svc.now()):
		return Token{}, core.ErrInvalidOrExpiredToken
	}
	return t, nil
}

// GetByToken returns the enrollment a signing token was issued for.
func (svc *Service) GetByToken(ctx context.Context, value string) (Pending, error) {
	t, err := svc.usableToken(ctx, value)
	if err != nil {
		return Pending{}, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, t.EnrollmentID)
	if err != nil {
		return Pending{}, err
	}
	s, err := svc.repo.GetStudent(ctx, enr.StudentID)
	if err != nil {
		return Pending{}, errors.Wrap(err, "getting student")
	}
	p, err := svc.repo.GetPlan(ctx, enr.PlanID)
	if err != nil {
		return Pending{}, errors.Wrap(err, "getting plan")
	}
	pending := Pending{
		EnrollmentID: enr.ID,
		StudentName:  s.FullName(),
		StudentEmail: s.Email,
		PlanName:     p.Name,
		StartDate:    enr.StartDate,
		EndDate:      enr.EndDate,
		PaymentDay:   enr.PaymentDay,
	}
	if enr.ClassID != nil {
		if c, err := svc.repo.GetClass(ctx, *enr.ClassID); err == nil {
			pending.ClassName = c.Name
		}
	}
	return pending, nil
}

// Sign stores the signature of an enrollment and consumes the token. The student is then
// emailed the link to download their contract.
func (svc *Service) Sign(ctx context.Context, value string, sig Signature) (enrollment.Enrollment, error) {
	var enr enrollment.Enrollment
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		t, err := svc.usableToken(ctx, value)
		if err != nil {
			return err
		}
		if enr, err = svc.repo.GetEnrollment(ctx, t.EnrollmentID); err != nil {
			return err
		}
		now := svc.now()
		enr.Signature = sig.Signature
		enr.SignedAt = &now
		enr.UpdatedAt = now
		if enr, err = svc.repo.UpdateEnrollment(ctx, enr); err != nil {
			return errors.Wrap(err, "storing signature")
		}
		return errors.Wrap(svc.repo.DeleteContractToken(ctx, t.Token), "deleting token")
	})
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	s, err := svc.repo.GetStudent(ctx, enr.StudentID)
	if err != nil {
		return enr, errors.Wrap(err, "getting student")
	}
	if s.Email != "" {
		var className string
		if enr.ClassID != nil {
			if c, err := svc.repo.GetClass(ctx, *enr.ClassID); err == nil {
				className = c.Name
			}
		}
		svc.mailer.SendMessages(core.NewTemplatedMessage(svc.conf, "contract_signed", "Contrato de matrícula assinado",
			map[string]string{
				"StudentName": s.FirstName,
				"ClassName":   className,
				"DownloadURL": fmt.Sprintf("%s/contracts/%s/download", strings.TrimSuffix(svc.conf.APIBaseURL, "/"), enr.ID),
			},
			mail.Address{Name: s.FullName(), Address: s.Email},
		))
	}
	return enr, nil
}

// Generate renders the signed contract of an enrollment.
func (svc *Service) Generate(ctx context.Context, enrollmentID string) (Document, error) {
	enr, err := svc.repo.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return Document{}, err
	}
	if !enr.IsSigned() || !strings.HasPrefix(enr.Signature, signaturePrefix) {
		return Document{}, ErrSignatureMissing
	}

	profile, err := svc.students.Get(ctx, enr.StudentID)
	if err != nil {
		return Document{}, errors.Wrap(err, "getting student")
	}
	p, err := svc.repo.GetPlan(ctx, enr.PlanID)
	if err != nil {
		return Document{}, errors.Wrap(err, "getting plan")
	}
	mods, err := svc.repo.ListModalities(ctx, class.NameFilter{})
	if err != nil {
		return Document{}, errors.Wrap(err, "listing modalities")
	}
	data := documentData{enrollment: enr, student: profile, plan: p, modalities: mods}
	if enr.ClassID != nil {
		c, err := svc.repo.GetClass(ctx, *enr.ClassID)
		if err == nil {
			if m, err := svc.repo.GetModality(ctx, c.ModalityID); err == nil {
				data.modality = m.Name
			}
		}
	}

	content, err := render(buildFields(data))
	if err != nil {
		return Document{}, err
	}
	return Document{
		Filename:    filename(profile.Student),
		ContentType: "text/html; charset=utf-8",
		Content:     content,
	}, nil
}

