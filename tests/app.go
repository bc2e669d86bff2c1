// Package testutil wires the services on an in-memory store and creates fixtures for tests.
package testutil

import (
	"sync"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/lunedance/lune/core"
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
	emailsvc "github.com/lunedance/lune/services/email"
	logsvc "github.com/lunedance/lune/services/logger"
	inmemdb "github.com/lunedance/lune/storage/database/inmem"
)

// Clock is a settable time source; its Now method is the services' calendar.Clock.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// App holds every service, backed by one in-memory store.
type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Store      *inmemdb.Store
	Mailer     *emailsvc.ConsoleServiceMock
	Clock      *Clock
	Validate   *validator.Validate
	Translator ut.Translator

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

// NewApp returns services whose clock starts at now.
func NewApp(now time.Time) *App {
	conf := core.NewTestConfig()
	logger := logsvc.NopLogger{}
	core.ParseEmailTemplates(logger)

	clock := NewClock(now)
	store := inmemdb.Open()
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)

	validate, translator := NewValidator()

	app := &App{
		Conf:       conf,
		Logger:     logger,
		Store:      store,
		Mailer:     mailer,
		Clock:      clock,
		Validate:   validate,
		Translator: translator,
	}
	app.Users = user.NewService(store, mailer, conf, clock.Now)
	app.Teachers = teacher.NewService(store, clock.Now)
	app.Classes = class.NewService(store, clock.Now)
	app.Grid = grid.NewService(store, app.Classes, clock.Now, conf.Database.SerializeGridWrites)
	app.Plans = plan.NewService(store, clock.Now)
	app.Students = student.NewService(store, clock.Now)
	app.Enrollments = enrollment.NewService(store, app.Students, clock.Now, conf)
	app.Payments = payment.NewService(store, clock.Now)
	app.Leads = lead.NewService(store, clock.Now)
	app.Trials = trial.NewService(store, app.Leads, clock.Now)
	app.Settings = settings.NewService(store, conf, clock.Now)
	app.WorkedHours = workedhour.NewService(store, app.Settings, clock.Now)
	app.Contracts = contract.NewService(store, app.Students, mailer, conf, clock.Now)
	app.Expenses = expense.NewService(store, clock.Now)
	app.Dashboard = dashboard.NewService(store, app.Settings, app.WorkedHours, clock.Now)
	app.Notifications = notification.NewService(app.Trials, app.WorkedHours, app.Expenses)
	return app
}

// NewValidator returns a validator with every custom rule and its english translations.
func NewValidator() (*validator.Validate, ut.Translator) {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}
