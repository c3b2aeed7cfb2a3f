// Package code provides the command handlers for registering, removing,
// listing and distributing promo codes.
package code

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/db/controller/promocode"
	"github.com/promo-warden/promo-warden/internal/db/models"
	"github.com/promo-warden/promo-warden/internal/distribution"
	"github.com/promo-warden/promo-warden/internal/web/handler"
)

const (
	// Path is the base path for code commands.
	Path = handler.CmdPath + "/code"

	// RouteAdd is the route for registering a single code.
	RouteAdd = Path + "/add"
	// RouteAddBulk is the route for importing codes in bulk.
	RouteAddBulk = Path + "/add-bulk"
	// RouteRemove is the route for removing a code.
	RouteRemove = Path + "/remove"
	// RouteList is the route for listing a group's codes.
	RouteList = Path + "/list"
	// RouteSend is the route for assigning a code to one recipient.
	RouteSend = Path + "/send"
	// RouteSendBatch is the route for assigning codes to many recipients.
	RouteSendBatch = Path + "/send-batch"

	// MsgGroupNotFound is replied when the named group is absent from the guild.
	MsgGroupNotFound = "Promo code group not found: %s"
	// MsgAdded confirms a registered code.
	MsgAdded = "Code %s registered in group %s successfully!"
	// MsgInvalidCode is replied for codes outside the allowed alphabet.
	MsgInvalidCode = "Invalid code: the code must be only letters, numbers and dashes (-)"
	// MsgInvalidBulkToken is replied when a bulk import contains a bad token.
	MsgInvalidBulkToken = "Invalid code in bulk: the codes must be only letters, numbers and dashes (-)"
	// MsgAlreadyRegistered is replied for a duplicate (group, code) pair.
	MsgAlreadyRegistered = "Code %s already registered in group %s"
	// MsgBulkAdded confirms an all-or-nothing bulk import.
	MsgBulkAdded = "Codes added to group %s"
	// MsgRemoved confirms a removed code.
	MsgRemoved = "Code %s deleted from group %s"
	// MsgNotFoundInGroup is replied when there was no code to remove; an
	// absent group reads the same way.
	MsgNotFoundInGroup = "Code %s not found in group %s"
	// MsgListGroupMissing is replied when listing a group that does not exist.
	MsgListGroupMissing = "Group %s does not exist"
	// MsgNoCodes is replied for a group that exists but holds no codes.
	MsgNoCodes = "Group %s has no codes"
	// MsgListHeader opens the code listing.
	MsgListHeader = "Codes for group %s: "
	// MsgAlreadyRedeemed is replied when the recipient already holds a
	// code from the group.
	MsgAlreadyRedeemed = "User %s already redeemed a code from group %s"
	// MsgExhausted is replied when the group has no unassigned codes left.
	MsgExhausted = "Group %s has no codes left"
	// MsgSent confirms an assignment to the administrative caller.
	MsgSent = "Code %s sent to user %s"
	// MsgDelivery is the recipient-facing delivery text.
	MsgDelivery = "Hello! You won a code: %s"
	// MsgBatchSkipped is the per-recipient batch note for a prior redemption.
	MsgBatchSkipped = "%s already redeemed a code from group %s"
	// MsgBatchExhausted is the per-recipient batch note when codes ran out.
	MsgBatchExhausted = "no code left for %s"
)

// Request is the payload of the add and remove code commands.
type Request struct {
	GuildID int64  `json:"guild_id" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required"`
	Group   string `json:"group" validate:"required"`
	Code    string `json:"code" validate:"required"`
}

// BulkRequest is the payload of the bulk import command.
type BulkRequest struct {
	GuildID int64  `json:"guild_id" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required"`
	Group   string `json:"group" validate:"required"`
	Codes   string `json:"codes" validate:"required"`
}

// ListRequest is the payload of the list codes command.
type ListRequest struct {
	GuildID int64  `json:"guild_id" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required"`
	Group   string `json:"group" validate:"required"`
}

// SendRequest is the payload of the single assignment command.
type SendRequest struct {
	GuildID       int64  `json:"guild_id" validate:"required"`
	ActorID       int64  `json:"actor_id" validate:"required"`
	Group         string `json:"group" validate:"required"`
	RecipientID   int64  `json:"recipient_id" validate:"required"`
	RecipientName string `json:"recipient_name" validate:"required"`
}

// BatchRecipient is one target of a batch assignment.
type BatchRecipient struct {
	ID   int64  `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// SendBatchRequest is the payload of the batch assignment command.
type SendBatchRequest struct {
	GuildID    int64            `json:"guild_id" validate:"required"`
	ActorID    int64            `json:"actor_id" validate:"required"`
	Group      string           `json:"group" validate:"required"`
	Recipients []BatchRecipient `json:"recipients" validate:"required,min=1,dive"`
}

// Service provides the code command handlers.
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
	router.Post(RouteAddBulk, s.AddBulk)
	router.Post(RouteRemove, s.Remove)
	router.Post(RouteList, s.List)
	router.Post(RouteSend, s.Send)
	router.Post(RouteSendBatch, s.SendBatch)
}

// Add registers a single unassigned code in a group.
func (s *Service) Add(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	_, err := s.deps.Engine.AddCode(req.GuildID, req.Group, req.Code)

	switch {
	case errors.Is(err, distribution.ErrInvalidCode):
		return handler.SendReply(c, MsgInvalidCode)
	case errors.Is(err, codegroup.ErrGroupNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgGroupNotFound, req.Group))
	case errors.Is(err, promocode.ErrCodeExists):
		return handler.SendReply(c, fmt.Sprintf(MsgAlreadyRegistered, req.Code, req.Group))
	case err != nil:
		log.Error().Err(err).Msg("add code failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgAdded, req.Code, req.Group))
}

// AddBulk imports codes in one all-or-nothing batch.
func (s *Service) AddBulk(c *fiber.Ctx) error {
	var req BulkRequest
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	_, err := s.deps.Engine.AddCodeBulk(req.GuildID, req.Group, req.Codes)

	switch {
	case errors.Is(err, distribution.ErrInvalidCode):
		return handler.SendReply(c, MsgInvalidBulkToken)
	case errors.Is(err, codegroup.ErrGroupNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgGroupNotFound, req.Group))
	case errors.Is(err, promocode.ErrCodeExists):
		return handler.SendReply(c, fmt.Sprintf(MsgAlreadyRegistered, "in bulk", req.Group))
	case err != nil:
		log.Error().Err(err).Msg("bulk import failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgBulkAdded, req.Group))
}

// Remove deletes a code from a group.
func (s *Service) Remove(c *fiber.Ctx) error {
	var req Request
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	err := s.deps.Engine.RemoveCode(req.GuildID, req.Group, req.Code)

	switch {
	case errors.Is(err, promocode.ErrCodeNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgNotFoundInGroup, req.Code, req.Group))
	case err != nil:
		log.Error().Err(err).Msg("remove code failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	return handler.SendReply(c, fmt.Sprintf(MsgRemoved, req.Code, req.Group))
}

// List sends the group's codes to the invoking actor's direct channel,
// annotating assigned codes with recipient and time.
func (s *Service) List(c *fiber.Ctx) error {
	var req ListRequest
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	codes, err := s.deps.Engine.ListCodes(req.GuildID, req.Group)

	switch {
	case errors.Is(err, codegroup.ErrGroupNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgListGroupMissing, req.Group))
	case err != nil:
		log.Error().Err(err).Msg("list codes failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	if len(codes) == 0 {
		return handler.SendReply(c, fmt.Sprintf(MsgNoCodes, req.Group))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(MsgListHeader, req.Group))
	for i := range codes {
		b.WriteString("\n- ")
		b.WriteString(s.renderCodeLine(&codes[i]))
	}

	return handler.SendDirect(c, s.deps.Cfg, b.String())
}

func (s *Service) renderCodeLine(pc *models.PromoCode) string {
	if !pc.Assigned() {
		return pc.Code
	}

	return fmt.Sprintf("%s sent to user %s at %s",
		pc.Code,
		*pc.SentToName,
		handler.FormatTime(s.deps.Cfg, *pc.SentAt),
	)
}

// Send assigns one code to one recipient. The recipient gets the code on
// their direct channel; the admin gets a confirmation on theirs.
func (s *Service) Send(c *fiber.Ctx) error {
	var req SendRequest
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	assignment, err := s.deps.Engine.AssignCode(req.GuildID, req.Group, req.RecipientID, req.RecipientName, true)

	switch {
	case errors.Is(err, codegroup.ErrGroupNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgListGroupMissing, req.Group))
	case errors.Is(err, distribution.ErrAlreadyRedeemed):
		return handler.SendReply(c, fmt.Sprintf(MsgAlreadyRedeemed, req.RecipientName, req.Group))
	case errors.Is(err, distribution.ErrExhausted):
		return handler.SendReply(c, fmt.Sprintf(MsgExhausted, req.Group))
	case err != nil:
		log.Error().Err(err).Msg("assign code failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	// Deliver only after the transaction committed.
	if err := s.deps.Messenger.SendToUser(req.RecipientID, req.RecipientName, fmt.Sprintf(MsgDelivery, assignment.Code)); err != nil {
		log.Error().Err(err).Int64("recipient", req.RecipientID).Msg("code delivery failed")
	}

	return handler.SendDirect(c, s.deps.Cfg, fmt.Sprintf(MsgSent, assignment.Code, req.RecipientName))
}

// SendBatch assigns codes to many recipients with per-recipient outcomes.
func (s *Service) SendBatch(c *fiber.Ctx) error {
	var req SendBatchRequest
	if err := handler.ParseBody(c, s.deps, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.Reply{Reply: handler.MsgBadRequest})
	}

	if ok, err := handler.RequireAdmin(c, s.deps, req.GuildID, req.ActorID); !ok {
		return err
	}

	recipients := make([]distribution.Recipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, distribution.Recipient{ID: r.ID, Name: r.Name})
	}

	outcomes, err := s.deps.Engine.AssignCodeBatch(req.GuildID, req.Group, recipients, true)

	switch {
	case errors.Is(err, codegroup.ErrGroupNotFound):
		return handler.SendReply(c, fmt.Sprintf(MsgListGroupMissing, req.Group))
	case err != nil:
		log.Error().Err(err).Msg("batch assignment failed")

		return c.Status(fiber.StatusInternalServerError).JSON(handler.Reply{Reply: handler.MsgInternalError})
	}

	var b strings.Builder
	for _, outcome := range outcomes {
		if b.Len() > 0 {
			b.WriteString("\n")
		}

		switch outcome.Status {
		case distribution.BatchAssigned:
			if err := s.deps.Messenger.SendToUser(outcome.Recipient.ID, outcome.Recipient.Name, fmt.Sprintf(MsgDelivery, outcome.Assignment.Code)); err != nil {
				log.Error().Err(err).Int64("recipient", outcome.Recipient.ID).Msg("code delivery failed")
			}

			b.WriteString(fmt.Sprintf(MsgSent, outcome.Assignment.Code, outcome.Recipient.Name))
		case distribution.BatchAlreadyRedeemed:
			b.WriteString(fmt.Sprintf(MsgBatchSkipped, outcome.Recipient.Name, req.Group))
		case distribution.BatchExhausted:
			b.WriteString(fmt.Sprintf(MsgBatchExhausted, outcome.Recipient.Name))
		}
	}

	return handler.SendDirect(c, s.deps.Cfg, b.String())
}
