// Package codegroup provides CRUD operations for guild-scoped promo code groups.
package codegroup

import (
	"errors"

	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/models"
)

const (
	guildNameQueryPattern = "guild_id = ? AND name = ?"
	guildQueryPattern     = "guild_id = ?"
)

var (
	// ErrGroupExists is returned when the (guild, name) pair is already present.
	ErrGroupExists = errors.New("code group already exists in this guild")
	// ErrGroupNotFound is returned when no matching group exists.
	ErrGroupNotFound = errors.New("code group not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create creates a new code group within a guild.
func Create(db *gorm.DB, guildID int64, name string) (*models.CodeGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	// Check if the group already exists in this guild
	var existing models.CodeGroup
	result := db.Where(guildNameQueryPattern, guildID, name).First(&existing)
	if result.Error == nil {
		return nil, ErrGroupExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	group := &models.CodeGroup{
		GuildID: guildID,
		Name:    name,
	}

	result = db.Create(group)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrGroupExists
		}
		return nil, result.Error
	}

	return group, nil
}

// Get retrieves a group by its natural key (guild, name).
func Get(db *gorm.DB, guildID int64, name string) (*models.CodeGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var group models.CodeGroup
	result := db.Where(guildNameQueryPattern, guildID, name).First(&group)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, result.Error
	}

	return &group, nil
}

// List retrieves all groups of a guild in insertion order.
func List(db *gorm.DB, guildID int64) ([]models.CodeGroup, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var groups []models.CodeGroup
	result := db.Where(guildQueryPattern, guildID).Order("id ASC").Find(&groups)
	if result.Error != nil {
		return nil, result.Error
	}

	return groups, nil
}

// Delete removes a group and all codes it owns. Codes cannot outlive
// their group, so both deletes run in one transaction; the explicit code
// delete keeps the cascade engine independent.
func Delete(db *gorm.DB, guildID int64, name string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var group models.CodeGroup
		result := tx.Where(guildNameQueryPattern, guildID, name).First(&group)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return result.Error
		}

		if err := tx.Where("group_id = ?", group.ID).Delete(&models.PromoCode{}).Error; err != nil {
			return err
		}

		return tx.Delete(&group).Error
	})
}
