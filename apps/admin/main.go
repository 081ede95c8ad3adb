package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/user"
	logsvc "github.com/coastwrpt/wrpt/services/logger"
	"github.com/coastwrpt/wrpt/storage/database"
	sqlxrepos "github.com/coastwrpt/wrpt/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	if err = database.Ping(ctx, db); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:        db.DB,
		usrSvc:    user.NewService(sqlxrepos.NewUserRepository(db), validate),
		progSvc:   program.NewService(sqlxrepos.NewProgramRepository(db), validate),
		countRepo: sqlxrepos.NewCountRepository(db),
		out:       os.Stdout,
		today:     func() time.Time { return core.Today(conf.TimeZone) },
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		db.Close()
		logger.Close()
		os.Exit(1)
	}
}
