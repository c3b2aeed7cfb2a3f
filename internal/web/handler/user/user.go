// Package user provides the owner-only command handlers for managing a
// guild's authorized users.
package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/promo-warden/promo-warden/internal/db/controller/authuser"
	"github.com/promo-warden/promo-warden/internal/web/handler"
)

const (
	// Path is the base path for user commands.
	Path = handler.CmdPath + "/user"

	// RouteAdd is the route for authorizing a user.
	RouteAdd = Path + "/add"
	// RouteRemove is the route for revoking a user's authorization.
	RouteRemove = Path + "/remove"
	// RouteList is the route for listing a guild's authorized users.
	RouteList = Path + "/list"

	// MsgAdded confirms an authorized user.
	MsgAdded = "Added user %s"
	// MsgAlreadyAuthorized is replied for a duplicate (guild, user) pair.
	MsgAlreadyAuthorized = "User already authorized"
	// MsgRemoved confirms a revoked authorization.
	MsgRemoved = "User %s deauthorized"
	// MsgWasNotAuthorized is replied when there was nothing to revoke.
	MsgWasNotAuthorized = "User was not authorized: %s"
	// MsgNoUsers is replied when the guild has no authorized users.
	MsgNoUsers = "There are no authorized users"
	// MsgListHeader opens the user listing.
	MsgListHeader = "These are the authorized users: "
)

// Request is the payload of the add and remove user commands.
type Request struct {
	GuildID  int64  `json:"guild_id" validate:"required"`
	ActorID  int64  `json:"actor_id" validate:"required"`
	UserID   int64  `json:"user_id" validate:"required"`
	UserName string `json:"user_name" validate:"required"`
}

// ListRequest is the payload of the list user command.
type ListRequest struct {
	GuildID int64 `json:"guild_id" validate:"required"`
	ActorID int64 `json:"actor_id" validate:"required"`
}

// Service provides the user command handlers.
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

	router.Post(RouteAdd, s.Add)
	router.Post(RouteRemove, s.Remove)
	router.Post(RouteList, s.List)
}

// Add authorizes a user in the guild. Owner only.
func (s *Service) Add(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireOwner(c, s.deps, req.ActorID); !ok {
		return err
	}

	_, err := s.deps.Engine.AddUser(req.GuildID, req.UserID)

	switch {
	case errors.Is(err, authuser.ErrAlreadyAuthorized):
		return handler.SendReply(c, MsgAlreadyAuthorized)
	case err != nil:
		log.Error().Err(err).Msg("add user failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgAdded, req.UserName))
}

// Remove revokes a user's authorization in the guild. Owner only.
func (s *Service) Remove(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireOwner(c, s.deps, req.ActorID); !ok {
		return err
	}

	err := s.deps.Engine.RemoveUser(req.GuildID, req.UserID)

	switch {
	case errors.Is(err, authuser.ErrNotAuthorized):
		return handler.SendReply(c, fmt.Sprintf(MsgWasNotAuthorized, req.UserName))
	case err != nil:
		log.Error().Err(err).Msg("remove user failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgRemoved, req.UserName))
}

// List replies with the guild's authorized users, resolving display names
// through the transport's user lookup capability.
func (s *Service) List(c *fiber.Ctx) error {
	var req ListRequest
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireOwner(c, s.deps, req.ActorID); !ok {
		return err
	}

	users, err := s.deps.Engine.ListAuthorizedUsers(req.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("list users failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	if len(users) == 0 {
		return handler.SendReply(c, MsgNoUsers)
	}

	var b strings.Builder
	b.WriteString(MsgListHeader)
	for _, u := range users {
		name, err := s.deps.Users.FetchUser(u.UserID)
		if err != nil {
			log.Warn().Err(err).Int64("user", u.UserID).Msg("user lookup failed")
			name = fmt.Sprintf("%d", u.UserID)
		}

		b.WriteString("\n- ")
		b.WriteString(name)
	}

	return handler.SendReply(c, b.String())
}
