package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/teacher"
	"github.com/lunedance/lune/core/user"
)

const tokenContextKey = "authToken"

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Kind  core.PrincipalKind `json:"kind"`
	Name  string             `json:"name,omitempty"`
	Email string             `json:"email,omitempty"`
}

func (c Claims) Principal() core.Principal {
	return core.Principal{ID: c.Subject, Kind: c.Kind, Name: c.Name, Email: c.Email}
}

type authenticator struct {
	config middleware.JWTConfig
	conf   *core.Config
	now    calendar.Clock
}

func newAuthenticator(conf *core.Config, now calendar.Clock) *authenticator {
	return &authenticator{
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
		conf: conf,
		now:  now,
	}
}

func (a *authenticator) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.config)
}

func (a *authenticator) claims(p core.Principal) *Claims {
	now := a.now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   p.ID,
			ExpiresAt: now.Add(a.conf.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Kind:  p.Kind,
		Name:  p.Name,
		Email: p.Email,
	}
}

// GenerateToken signs a session token for p.
func (a *authenticator) GenerateToken(p core.Principal) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, a.claims(p))

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func staffPrincipal(usr user.User) core.Principal {
	return core.Principal{ID: usr.ID, Kind: core.PrincipalStaff, Name: usr.Name, Email: usr.Email}
}

func teacherPrincipal(t teacher.Teacher) core.Principal {
	return core.Principal{ID: t.ID, Kind: core.PrincipalTeacher, Name: t.FullName(), Email: t.Email}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextPrincipal(ctx echo.Context) (core.Principal, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Principal{}, err
	}
	return claims.Principal(), nil
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	TeacherLoginRequest struct {
		CPF      string `json:"cpf" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string      `json:"token"`
		User  interface{} `json:"user"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (h handler) registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ag := g.Group("/auth")

	// TODO: rate limit `/login` & `/password-reset` once a shared store is available for the counters
	ag.POST("/login", h.login)
	ag.POST("/teacher/login", h.teacherLogin)
	ag.POST("/password-reset", h.resetPassword)
	ag.POST("/password-reset-confirm", h.confirmPasswordReset)

	ag.GET("/me", h.me, jwt, requireKind(core.PrincipalStaff))
	ag.GET("/teacher/me", h.teacherMe, jwt, requireKind(core.PrincipalTeacher))
}

func (h handler) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := h.validate().Struct(data); err != nil {
		return err
	}

	usr, err := h.opts.Users.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		return errAuthenticationFailed
	case errors.Cause(err) == user.ErrInactive:
		return errAccountDeactivated
	case err != nil:
		return errors.Wrap(err, "authenticating")
	}

	token, err := h.auth.GenerateToken(staffPrincipal(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (h handler) teacherLogin(ctx echo.Context) error {
	var data TeacherLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherLoginRequest")
	}
	if err := h.validate().Struct(data); err != nil {
		return err
	}

	t, err := h.opts.Teachers.Authenticate(ctx.Request().Context(), data.CPF, data.Password)
	switch {
	case errors.Cause(err) == teacher.ErrNotFound:
		return errAuthenticationFailed
	case err != nil:
		return errors.Wrap(err, "authenticating teacher")
	}
	if !t.IsActive {
		return errAccountDeactivated
	}

	token, err := h.auth.GenerateToken(teacherPrincipal(t))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: t})
}

func (h handler) me(ctx echo.Context) error {
	p, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	usr, err := h.opts.Users.Get(ctx.Request().Context(), p.ID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "getting context user")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (h handler) teacherMe(ctx echo.Context) error {
	p, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	t, err := h.opts.Teachers.Get(ctx.Request().Context(), p.ID)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "getting context teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (h handler) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := h.validate().Struct(data); err != nil {
		return err
	}

	err := h.opts.Users.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if cause := errors.Cause(err); !(err == nil || cause == user.ErrNotFound || cause == user.ErrInactive) {
		// do not return errors to attackers
		h.opts.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (h handler) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(h.validate()); err != nil {
		return err
	}

	if err := h.opts.Users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
