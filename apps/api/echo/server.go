package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/contract"
	"github.com/lunedance/lune/core/dashboard"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/expense"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/lead"
	"github.com/lunedance/lune/core/notification"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/settings"
	"github.com/lunedance/lune/core/student"
	"github.com/lunedance/lune/core/teacher"
	"github.com/lunedance/lune/core/trial"
	"github.com/lunedance/lune/core/user"
	"github.com/lunedance/lune/core/workedhour"
)

type (
	Services struct {
		Users         *user.Service
		Teachers      *teacher.Service
		Classes       *class.Service
		Grid          *grid.Service
		Plans         *plan.Service
		Students      *student.Service
		Enrollments   *enrollment.Service
		Payments      *payment.Service
		Leads         *lead.Service
		Trials        *trial.Service
		WorkedHours   *workedhour.Service
		Settings      *settings.Service
		Contracts     *contract.Service
		Expenses      *expense.Service
		Dashboard     *dashboard.Service
		Notifications *notification.Service
	}

	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Now            calendar.Clock
		DisableReqLogs bool
		Services
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		auth     *authenticator
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(opts *Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		auth:     newAuthenticator(opts.Conf, opts.Now),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()
	staff := v1.Group("", jwt, requireKind(core.PrincipalStaff))

	h := handler{opts: s.opts, auth: s.auth}
	h.registerAuthAPI(v1, jwt)
	h.registerUserAPI(staff)
	h.registerLeadAPI(staff)
	h.registerStudentAPI(staff)
	h.registerEnrollmentAPI(staff)
	h.registerPaymentAPI(staff)
	h.registerCatalogAPI(staff)
	h.registerGridAPI(v1, jwt, staff)
	h.registerWorkedHourAPI(v1, jwt, staff)
	h.registerTrialAPI(staff)
	h.registerSettingsAPI(staff)
	h.registerExpenseAPI(staff)
	h.registerContractAPI(v1, staff)
}

// Start listens until the server is stopped; a failure to listen is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}

// handler holds what every API handler needs.
type handler struct {
	opts *Options
	auth *authenticator
}

func (h handler) validate() *validator.Validate {
	return h.opts.Validate
}
