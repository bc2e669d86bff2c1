package dig_container

import (
	"log"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/lunedance/lune/apps/api/echo"
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
	emailsvc "github.com/lunedance/lune/services/email"
	logsvc "github.com/lunedance/lune/services/logger"
	"github.com/lunedance/lune/services/scheduler"
	"github.com/lunedance/lune/storage/database"
	inmemdb "github.com/lunedance/lune/storage/database/inmem"
	sqlxdb "github.com/lunedance/lune/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// store is implemented by both database engines.
type store interface {
	class.Repository
	contract.Repository
	dashboard.Repository
	enrollment.Repository
	expense.Repository
	grid.Repository
	lead.Repository
	payment.Repository
	plan.Repository
	settings.Repository
	student.Repository
	teacher.Repository
	trial.Repository
	user.Repository
	workedhour.Repository
}

func newLogger(name string) func(conf *core.Config) (core.Logger, error) {
	return func(conf *core.Config) (core.Logger, error) {
		sink, err := logsvc.NewSink(name, conf.Debug)
		if err != nil {
			return nil, errors.Wrapf(err, "building %s logger", name)
		}
		logger := logsvc.NewRollbarLogger(sink, conf)
		logger.Enable(!conf.Debug)
		return logger, nil
	}
}

// newDB opens, and migrates, the postgres database. It is nil with the memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == "memory" {
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", err)
	}
	return db
}

func newStore(db *sqlx.DB) store {
	if db == nil {
		return inmemdb.Open()
	}
	return sqlxdb.NewStore(db)
}

func newClock() calendar.Clock {
	return time.Now
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newGridService(repo grid.Repository, classes *class.Service, now calendar.Clock, conf *core.Config) *grid.Service {
	return grid.NewService(repo, classes, now, conf.Database.SerializeGridWrites)
}

func newNotificationService(trials *trial.Service, hours *workedhour.Service, expenses *expense.Service) *notification.Service {
	return notification.NewService(trials, hours, expenses)
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Now        calendar.Clock

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

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Now:        p.Now,
		Services: echoapi.Services{
			Users:         p.Users,
			Teachers:      p.Teachers,
			Classes:       p.Classes,
			Grid:          p.Grid,
			Plans:         p.Plans,
			Students:      p.Students,
			Enrollments:   p.Enrollments,
			Payments:      p.Payments,
			Leads:         p.Leads,
			Trials:        p.Trials,
			WorkedHours:   p.WorkedHours,
			Settings:      p.Settings,
			Contracts:     p.Contracts,
			Expenses:      p.Expenses,
			Dashboard:     p.Dashboard,
			Notifications: p.Notifications,
		},
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger("API")))
	must(c.Provide(newLogger("DB"), dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newStore, dig.As(
		new(class.Repository),
		new(contract.Repository),
		new(dashboard.Repository),
		new(enrollment.Repository),
		new(expense.Repository),
		new(grid.Repository),
		new(lead.Repository),
		new(payment.Repository),
		new(plan.Repository),
		new(settings.Repository),
		new(student.Repository),
		new(teacher.Repository),
		new(trial.Repository),
		new(user.Repository),
		new(workedhour.Repository),
	)))
	must(c.Provide(newClock))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	must(c.Provide(user.NewService))
	must(c.Provide(teacher.NewService))
	must(c.Provide(class.NewService))
	must(c.Provide(newGridService))
	must(c.Provide(plan.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(payment.NewService))
	must(c.Provide(lead.NewService))
	must(c.Provide(trial.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(workedhour.NewService))
	must(c.Provide(contract.NewService))
	must(c.Provide(expense.NewService))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(newNotificationService))

	must(c.Provide(scheduler.New))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
