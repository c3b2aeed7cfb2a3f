// Package models contains database model definitions.
package models

import "time"

// AuthorizedUser represents a non-owner identity permitted to run
// administrative commands within one guild.
// The same identity may be authorized independently in multiple guilds,
// so uniqueness is on the (guild, user) pair, not the user alone.
type AuthorizedUser struct {
	// ID is the unique identifier for the authorization row.
	ID uint64 `gorm:"primaryKey"`
	// GuildID is the guild this authorization is scoped to.
	GuildID int64 `gorm:"not null;uniqueIndex:idx_guild_user"`
	// UserID is the authorized actor identity.
	UserID int64 `gorm:"not null;uniqueIndex:idx_guild_user"`
	// CreatedAt is the timestamp when the authorization was granted (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the AuthorizedUser model.
func (AuthorizedUser) TableName() string {
	return "authorized_users"
}
