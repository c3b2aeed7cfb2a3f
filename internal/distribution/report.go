package distribution

import (
	"github.com/promo-warden/promo-warden/internal/db/controller/authuser"
	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/db/controller/promocode"
	"github.com/promo-warden/promo-warden/internal/db/models"
)

// Read-only reporting queries. All results follow insertion order, and a
// matching scope with no rows yields an empty slice, never an error.

// ListGroups returns all code groups of a guild.
func (e *Engine) ListGroups(guildID int64) ([]models.CodeGroup, error) {
	return codegroup.List(e.db, guildID)
}

// ListCodes returns all codes of the named group, assigned and unassigned.
// Returns codegroup.ErrGroupNotFound when the group is absent, which is
// distinct from a group that exists but holds no codes.
func (e *Engine) ListCodes(guildID int64, groupName string) ([]models.PromoCode, error) {
	group, err := codegroup.Get(e.db, guildID, groupName)
	if err != nil {
		return nil, err
	}

	return promocode.ListByGroup(e.db, group.ID)
}

// ListAuthorizedUsers returns all authorized users of a guild.
func (e *Engine) ListAuthorizedUsers(guildID int64) ([]models.AuthorizedUser, error) {
	return authuser.List(e.db, guildID)
}

// MyCodes returns every code assigned to the recipient across all groups
// and guilds. Self-service: any actor may invoke it for themselves only.
func (e *Engine) MyCodes(recipientID int64) ([]models.PromoCode, error) {
	return promocode.ListByRecipient(e.db, recipientID)
}
