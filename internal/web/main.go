// Package web implements the command gateway: the request/response
// surface through which the chat transport drives the allocation engine.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/auth"
	"github.com/promo-warden/promo-warden/internal/config"
	"github.com/promo-warden/promo-warden/internal/distribution"
	loggeradapter "github.com/promo-warden/promo-warden/internal/logger/adapter/fiber"
	"github.com/promo-warden/promo-warden/internal/notify"
	"github.com/promo-warden/promo-warden/internal/web/handler"
	"github.com/promo-warden/promo-warden/internal/web/handler/code"
	"github.com/promo-warden/promo-warden/internal/web/handler/group"
	"github.com/promo-warden/promo-warden/internal/web/handler/mycodes"
	"github.com/promo-warden/promo-warden/internal/web/handler/user"
)

const checkAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	alive        atomic.Bool
	db           *gorm.DB
	fastShutDown bool
}

// Start starts the web service on the given address and blocks until a
// termination signal shut it down.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	go s.WaitShutdown()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the gateway.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail checkalive first so the
	// LB removes this instance before the listener goes away.
	if !s.fastShutDown {
		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped")
}

// New creates a new web service with the given configuration, store
// handle and injected transport capabilities.
func New(cfg *config.Config, db *gorm.DB, engine *distribution.Engine, messenger notify.Messenger, users notify.UserLookup) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if engine == nil {
		panic("engine cannot be nil")
	}

	if messenger == nil {
		messenger = notify.LogMessenger{}
	}

	if users == nil {
		users = notify.IDLookup{}
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "promo-warden",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(loggeradapter.New(loggeradapter.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAlivePath,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get(checkAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// transport authentication for the whole command surface
	app.Use(handler.CmdPath, TokenMiddleware(cfg))

	deps := &handler.Deps{
		Cfg:       cfg,
		DB:        db,
		Engine:    engine,
		Messenger: messenger,
		Users:     users,
		IsOwner:   auth.OwnerCheckFor(cfg.Bot.OwnerID),
		Validator: validator.New(),
	}

	group.Handler.Init(app, deps)
	code.Handler.Init(app, deps)
	user.Handler.Init(app, deps)
	mycodes.Handler.Init(app, deps)

	return service
}
