package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrInactive    = errors.New("account deactivated")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// ListUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		ListUsers(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsers(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo   Repository
		mailer core.EmailService
		conf   *core.Config
		now    calendar.Clock
		tokens tokenGenerator
	}
)

func NewService(repo Repository, mailer core.EmailService, conf *core.Config, now calendar.Clock) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		conf:   conf,
		now:    now,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
			now:       now,
		},
	}
}

func (svc *Service) checkEmail(ctx context.Context, email, excludeID string) error {
	existing, err := svc.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != excludeID:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case err != nil && errors.Cause(err) != ErrNotFound:
		return errors.Wrap(err, "checking email")
	}
	return nil
}

// Create adds an active staff user. nu must have been validated.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkEmail(ctx, nu.Email, ""); err != nil {
		return User{}, err
	}
	now := svc.now()
	usr := User{
		ID:        core.NewID(),
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) List(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.ListUsers(ctx, filter, orderings...)
}

func (svc *Service) Get(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update modifies a staff user. uu must have been validated against the current user.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if uu.Email != "" && uu.Email != usr.Email {
		if err := svc.checkEmail(ctx, uu.Email, usr.ID); err != nil {
			return User{}, err
		}
		usr.Email = uu.Email
	}
	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = svc.now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsers(ctx, ids...)
}

// Authenticate checks staff credentials and stamps the last login.
// Unknown emails and wrong passwords are both reported as ErrNotFound.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	if !usr.IsActive {
		return User{}, ErrInactive
	}
	usr.LastLogin = svc.now()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a reset link to the active user owning email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrInactive
	}
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	msg := core.NewTemplatedMessage(svc.conf, "password_reset", "Redefinição de senha",
		map[string]string{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
		usr.Address(),
	)
	svc.mailer.SendMessages(msg)
	return nil
}

// ResetPassword sets a new password when data carries a valid reset token.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalid := core.NewValidationError(core.ErrInvalidOrExpiredToken,
		core.FieldError{Field: "token", Error: core.ErrInvalidOrExpiredToken.Error()})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid
	}
	usr, err := svc.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalid
		}
		return err
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return invalid
	}
	if err := usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = svc.now()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
