package config

import (
	"time"

	"github.com/promo-warden/promo-warden/internal/logger"
)

const (
	// DefaultChunkSize is the transport-imposed size limit applied when
	// splitting long replies. It mirrors the chat transport's 2000 byte
	// message cap with a little headroom for the page footer.
	DefaultChunkSize = 1990

	// DefaultDisplayTimezone is used when rendering assignment timestamps.
	DefaultDisplayTimezone = "America/Sao_Paulo"

	// DefaultDisplayTimeFormat is the reference layout used when rendering
	// assignment timestamps.
	DefaultDisplayTimeFormat = "02/01/2006 15:04"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Bot       Bot
	Webserver Webserver
}

// Bot implements the distribution engine settings.
type Bot struct {
	OwnerID           int64  // identity that bypasses per-guild authorization
	DisplayTimezone   string // IANA name of the timezone used to render timestamps
	DisplayTimeFormat string // reference layout used to render timestamps
	ChunkSize         int    // transport size limit for a single message

	// location is resolved from DisplayTimezone once during validation.
	location *time.Location
}

// Location returns the resolved display timezone. UTC until the config
// passed validation.
func (b *Bot) Location() *time.Location {
	if b.location == nil {
		return time.UTC
	}

	return b.location
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
	AdminTokenHash string // argon2id hash of the gateway admin token
	DisableRecover bool   // disable recover middleware
}
