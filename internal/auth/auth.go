// Package auth decides whether an acting identity may run administrative
// operations within a guild.
package auth

import (
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/controller/authuser"
)

// OwnerCheck reports whether the given actor is the bot owner. The owner
// identity is an externally supplied capability, injected rather than
// read from a global.
type OwnerCheck func(actorID int64) bool

// OwnerCheckFor returns an OwnerCheck matching a single owner identity.
func OwnerCheckFor(ownerID int64) OwnerCheck {
	return func(actorID int64) bool {
		return actorID == ownerID
	}
}

// IsAuthorizedOrOwner reports whether the actor may run administrative
// operations in the guild. The owner bypasses all guild scoping; any
// other actor needs an authorization row for this exact (guild, actor)
// pair. A grant in a different guild does not apply.
func IsAuthorizedOrOwner(db *gorm.DB, guildID, actorID int64, isOwner OwnerCheck) (bool, error) {
	if isOwner != nil && isOwner(actorID) {
		return true, nil
	}

	return authuser.Exists(db, guildID, actorID)
}
