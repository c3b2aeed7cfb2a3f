package web

import (
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/promo-warden/promo-warden/internal/config"
)

const bearerPrefix = "Bearer "

// TokenMiddleware authenticates the chat transport against the gateway
// with a pre-shared token. It gates the whole /cmd surface; per-actor
// authorization is decided later, per command, by the authorization
// resolver. An empty hash disables the gate, which is only acceptable in
// dev mode.
func TokenMiddleware(cfg *config.Config) fiber.Handler {
	if cfg.Webserver.AdminTokenHash == "" {
		if !cfg.DevMode {
			log.Warn().Msg("webserver.admintokenhash is empty, the command gateway is unauthenticated")
		}

		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		token := strings.TrimPrefix(header, bearerPrefix)

		match, err := argon2id.ComparePasswordAndHash(token, cfg.Webserver.AdminTokenHash)
		if err != nil {
			log.Error().Err(err).Msg("token comparison failed")

			return c.SendStatus(fiber.StatusUnauthorized)
		}

		if !match {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		return c.Next()
	}
}
