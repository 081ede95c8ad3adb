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

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/stats"
	"github.com/coastwrpt/wrpt/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		ProgramSvc *program.Service
		CountSvc   *count.Service
		StatsSvc   *stats.Service
		UserSvc    *user.Service
		Validate   *validator.Validate
		Translator ut.Translator
		// Today returns the current date in the app time zone. Defaults to core.Today(Conf.TimeZone).
		Today func() time.Time
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	if deps.Today == nil {
		loc := deps.Conf.TimeZone
		deps.Today = func() time.Time { return core.Today(loc) }
	}

	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		auth:       newAuthenticator(deps.Conf, deps.UserSvc),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode
	s.app.Logger.SetLevel(log.INFO)
	s.app.HideBanner = conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	registerProgramAPI(v1, s.auth, s.ProgramSvc, s.StatsSvc, s.Today)
	registerCountAPI(v1, s.auth, s.CountSvc)
	registerUserAPI(v1, s.auth, s.UserSvc, s.Validate)
}

// Start runs the HTTP server until it is shut down. Errors are sent on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
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
	return ctx.JSON(http.StatusOK, echo.Map{"app": s.Conf.AppName, "build": s.Conf.Build})
}
