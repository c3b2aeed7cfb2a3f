// Package mycodes provides the self-service command showing a recipient
// the codes they already received. Any actor may invoke it for themselves
// only; it passes no administrative gate.
package mycodes

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/promo-warden/promo-warden/internal/web/handler"
)

const (
	// Route is the route for the self-service listing.
	Route = handler.CmdPath + "/my-codes"

	// MsgNone is replied when the actor holds no codes.
	MsgNone = "You have no codes"
	// MsgHeader opens the listing.
	MsgHeader = "Your codes: "
	// MsgLine renders one received code.
	MsgLine = "%s (received at %s)"
)

// Request is the payload of the my-codes command.
type Request struct {
	ActorID int64 `json:"actor_id" validate:"required"`
}

// Service provides the my-codes handler.
type Service struct {
	deps *handler.Deps
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) {
	if router == nil || deps == nil || deps.Engine == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.deps = deps

	router.Post(Route, s.List)
}

// List sends the actor their received codes across all groups and guilds.
func (s *Service) List(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	codes, err := s.deps.Engine.MyCodes(req.ActorID)
	if err != nil {
		log.Error().Err(err).Msg("my codes failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	if len(codes) == 0 {
		return handler.SendDirect(c, s.deps.Cfg, MsgNone)
	}

	var b strings.Builder
	b.WriteString(MsgHeader)
	for i := range codes {
		b.WriteString("\n- ")
		b.WriteString(fmt.Sprintf(MsgLine, codes[i].Code, handler.FormatTime(s.deps.Cfg, *codes[i].SentAt)))
	}

	return handler.SendDirect(c, s.deps.Cfg, b.String())
}
