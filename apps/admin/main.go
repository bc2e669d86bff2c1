// Command admin runs maintenance tasks against the Lune database.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/user"
	emailsvc "github.com/lunedance/lune/services/email"
	logsvc "github.com/lunedance/lune/services/logger"
	"github.com/lunedance/lune/storage/database"
	sqlxdb "github.com/lunedance/lune/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	sink, err := logsvc.NewSink("ADMIN", conf.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rl := logsvc.NewRollbarLogger(sink, conf)
	rl.Enable(!conf.Debug)
	logger = rl

	// set up DB
	db, err := database.Open(conf)
	errAndDie("opening database", err)

	validate := validator.New()
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		users:    user.NewService(sqlxdb.NewStore(db), emailsvc.NewConsoleService(conf, logger), conf, time.Now),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(msg string, err error) {
	if err != nil {
		logger.Fatal(msg, err)
	}
}
