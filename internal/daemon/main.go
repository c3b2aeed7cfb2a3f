// Package daemon wires the configuration, the store and the command
// gateway together.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/config"
	"github.com/promo-warden/promo-warden/internal/db/dsn"
	"github.com/promo-warden/promo-warden/internal/db/models"
	"github.com/promo-warden/promo-warden/internal/distribution"
	"github.com/promo-warden/promo-warden/internal/logger"
	"github.com/promo-warden/promo-warden/internal/notify"
	"github.com/promo-warden/promo-warden/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.AuthorizedUser{},
		&models.CodeGroup{},
		&models.PromoCode{},
	); err != nil {
		panic("failed to migrate database")
	}

	engine := distribution.New(db)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, engine, notify.LogMessenger{}, notify.IDLookup{}),
	}
}

func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case dsn.EngineMySQL:
		return gormmysql.Open(dsn.Create(cfg))
	case dsn.EnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg))
	default:
		return sqlite.Open(dsn.Create(cfg))
	}
}
