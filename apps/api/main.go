package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/coastwrpt/wrpt/apps/api/echo"
	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/stats"
	"github.com/coastwrpt/wrpt/core/user"
	logsvc "github.com/coastwrpt/wrpt/services/logger"
	"github.com/coastwrpt/wrpt/storage/database"
	"github.com/coastwrpt/wrpt/storage/database/inmem"
	sqlxrepos "github.com/coastwrpt/wrpt/storage/database/sqlx"
)

type repositories struct {
	programs program.Repository
	counts   interface {
		count.Repository
		count.AuditRecorder
	}
	users user.Repository
}

func main() {
	useInmem := flag.Bool("inmem", false, "use the in-memory store instead of PostgreSQL (data is lost on exit)")
	flag.Parse()

	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up repositories
	var repos repositories
	if *useInmem {
		db := inmemdb.Open()
		repos = repositories{
			programs: inmemdb.NewProgramRepository(db),
			counts:   inmemdb.NewCountRepository(db),
			users:    inmemdb.NewUserRepository(db),
		}
		logger.Warn("using the in-memory store")
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		repos = repositories{
			programs: sqlxrepos.NewProgramRepository(db),
			counts:   sqlxrepos.NewCountRepository(db),
			users:    sqlxrepos.NewUserRepository(db),
		}
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	count.InitValidators(validate)

	today := func() time.Time { return core.Today(conf.TimeZone) }

	progSvc := program.NewService(repos.programs, validate)
	countSvc := count.NewService(repos.counts, repos.programs, repos.counts, logger, validate, today)
	statsSvc := stats.NewService(repos.programs, repos.counts)
	usrSvc := user.NewService(repos.users, validate)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			ProgramSvc: progSvc,
			CountSvc:   countSvc,
			StatsSvc:   statsSvc,
			UserSvc:    usrSvc,
			Validate:   validate,
			Translator: translator,
			Today:      today,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
