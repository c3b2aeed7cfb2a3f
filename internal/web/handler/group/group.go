// Package group provides the command handlers for managing promo code groups.
package group

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/distribution"
	"github.com/promo-warden/promo-warden/internal/web/handler"
)

const (
	// Path is the base path for group commands.
	Path = handler.CmdPath + "/group"

	// RouteAdd is the route for creating a group.
	RouteAdd = Path + "/add"
	// RouteRemove is the route for removing a group.
	RouteRemove = Path + "/remove"
	// RouteList is the route for listing a guild's groups.
	RouteList = Path + "/list"

	// MsgCreated confirms a created group.
	MsgCreated = "Group %s created"
	// MsgAlreadyExists is replied when the (guild, name) pair is taken.
	MsgAlreadyExists = "Group already exists"
	// MsgInvalidName is replied for names outside the allowed alphabet.
	MsgInvalidName = "Invalid group name. Use only letters, numbers, dashes (-) and underscores (_)"
	// MsgRemoved confirms a removed group.
	MsgRemoved = "Group %s removed"
	// MsgMissing is replied when there was no group to remove.
	MsgMissing = "Group %s does not exist!"
	// MsgNoGroups is replied when the guild has no groups at all.
	MsgNoGroups = "There are no promo code groups registered"
	// MsgListHeader opens the group listing.
	MsgListHeader = "These are the existing promo code groups: "
)

// Request is the payload of the add and remove group commands.
type Request struct {
	GuildID int64  `json:"guild_id" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// ListRequest is the payload of the list group command.
type ListRequest struct {
	GuildID int64 `json:"guild_id" validate:"required"`
	ActorID int64 `json:"actor_id" validate:"required"`
}

// Service provides the group command handlers.
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

// Add creates a guild-scoped code group.
func (s *Service) Add(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	_, err := s.deps.Engine.CreateGroup(req.GuildID, req.Name)

	switch {
	case errors.Is(err, distribution.ErrInvalidGroupName):
		return handler.SendReply(c, MsgInvalidName)
	case errors.Is(err, codegroup.ErrGroupExists):
		return handler.SendReply(c, MsgAlreadyExists)
	case err != nil:
		log.Error().Err(err).Msg("create group failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgCreated, req.Name))
}

// Remove deletes a group and all codes it owns.
func (s *Service) Remove(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	err := s.deps.Engine.RemoveGroup(req.GuildID, req.Name)

	switch {
	case errors.Is(err, codegroup.ErrGroupNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgMissing, req.Name))
	case err != nil:
		log.Error().Err(err).Msg("remove group failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgRemoved, req.Name))
}

// List replies with the guild's groups in insertion order.
func (s *Service) List(c *fiber.Ctx) error {
	var req ListRequest
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	groups, err := s.deps.Engine.ListGroups(req.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("list groups failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	if len(groups) == 0 {
		return handler.SendReply(c, MsgNoGroups)
	}

	var b strings.Builder
	b.WriteString(MsgListHeader)
	for _, g := range groups {
		b.WriteString("\n- ")
		b.WriteString(g.Name)
	}

	return handler.SendReply(c, b.String())
}
