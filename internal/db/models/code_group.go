package models

import "time"

// CodeGroup represents a named, guild-scoped container of promo codes.
// Group names are only unique within a guild, not globally. A group
// exclusively owns its PromoCode rows: deleting the group deletes them.
type CodeGroup struct {
	// ID is the unique identifier for the group.
	ID uint64 `gorm:"primaryKey"`
	// GuildID is the guild this group belongs to.
	GuildID int64 `gorm:"not null;uniqueIndex:idx_guild_name"`
	// Name is the group name, unique per guild.
	Name string `gorm:"size:100;not null;uniqueIndex:idx_guild_name"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time

	// Codes are the promo codes owned by this group.
	Codes []PromoCode `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the CodeGroup model.
func (CodeGroup) TableName() string {
	return "code_groups"
}
