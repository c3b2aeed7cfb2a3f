// Package handler holds what the command handler packages share: the
// dependency bundle, the reply envelope and the common render helpers.
package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/auth"
	"github.com/promo-warden/promo-warden/internal/config"
	"github.com/promo-warden/promo-warden/internal/distribution"
	"github.com/promo-warden/promo-warden/internal/notify"
	"github.com/promo-warden/promo-warden/internal/textutil"
)

const (
	// CmdPath is the base path for all command routes.
	CmdPath = "/cmd"

	// MsgNotAllowed is replied to actors failing the guild authorization check.
	MsgNotAllowed = "You are not allowed to run this command"
	// MsgOwnerOnly is replied to non-owners invoking owner-only commands.
	MsgOwnerOnly = "Only the bot owner can run this command"
	// MsgBadRequest is replied when the command payload does not parse or validate.
	MsgBadRequest = "Invalid command payload"
	// MsgInternalError is replied when an operation fails unexpectedly.
	MsgInternalError = "Something went wrong, try again later"

	// ErrNilDepsFatalLogMsg is used if the dependency bundle is incomplete.
	ErrNilDepsFatalLogMsg = "router, cfg, db or engine is nil"
)

// Deps bundles everything a command handler needs. The store handle and
// the owner check are passed in explicitly; nothing here is global state.
type Deps struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Engine    *distribution.Engine
	Messenger notify.Messenger
	Users     notify.UserLookup
	IsOwner   auth.OwnerCheck
	Validator *validator.Validate
}

// Reply is the envelope every command route answers with. Reply goes to
// the channel the command came from, Direct to the invoking actor's
// direct channel (already chunked to the transport size limit).
type Reply struct {
	Reply  string   `json:"reply,omitempty"`
	Direct []string `json:"direct,omitempty"`
}

// SendReply writes a channel reply.
func SendReply(c *fiber.Ctx, text string) error {
	return c.JSON(Reply{Reply: text})
}

// SendDirect chunks text to the transport size limit and writes it as a
// direct message to the invoking actor.
func SendDirect(c *fiber.Ctx, cfg *config.Config, text string) error {
	chunks, err := textutil.Chunks(text, "\n", cfg.Bot.ChunkSize)
	if err != nil {
		return err
	}

	return c.JSON(Reply{Direct: chunks})
}

// ParseBody parses and validates the request payload into out.
func ParseBody(c *fiber.Ctx, deps *Deps, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return err
	}

	return deps.Validator.Struct(out)
}

// RequireAdmin runs the guild authorization check for an administrative
// command and answers for the handler when the actor is not permitted.
// It returns true when the handler may proceed.
func RequireAdmin(c *fiber.Ctx, deps *Deps, guildID, actorID int64) (bool, error) {
	ok, err := auth.IsAuthorizedOrOwner(deps.DB, guildID, actorID, deps.IsOwner)
	if err != nil {
		return false, err
	}

	if !ok {
		return false, c.Status(fiber.StatusForbidden).JSON(Reply{Reply: MsgNotAllowed})
	}

	return true, nil
}

// RequireOwner answers for the handler when the actor is not the owner.
// It returns true when the handler may proceed.
func RequireOwner(c *fiber.Ctx, deps *Deps, actorID int64) (bool, error) {
	if deps.IsOwner != nil && deps.IsOwner(actorID) {
		return true, nil
	}

	return false, c.Status(fiber.StatusForbidden).JSON(Reply{Reply: MsgOwnerOnly})
}

// FormatTime renders a stored UTC timestamp in the configured display
// timezone and layout. The timezone was resolved once at config
// validation time; an unvalidated config renders in UTC.
func FormatTime(cfg *config.Config, t time.Time) string {
	return t.In(cfg.Bot.Location()).Format(cfg.Bot.DisplayTimeFormat)
}
