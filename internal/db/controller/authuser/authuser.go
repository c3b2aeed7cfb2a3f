// Package authuser provides CRUD operations for guild-scoped authorized users.
package authuser

import (
	"errors"

	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/models"
)

const (
	guildUserQueryPattern = "guild_id = ? AND user_id = ?"
	guildQueryPattern     = "guild_id = ?"
)

var (
	// ErrAlreadyAuthorized is returned when the (guild, user) pair is already present.
	ErrAlreadyAuthorized = errors.New("user already authorized in this guild")
	// ErrNotAuthorized is returned when no matching (guild, user) pair exists.
	ErrNotAuthorized = errors.New("user not authorized in this guild")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create authorizes a user within a guild.
func Create(db *gorm.DB, guildID, userID int64) (*models.AuthorizedUser, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	// Check if the pair already exists
	var existing models.AuthorizedUser
	result := db.Where(guildUserQueryPattern, guildID, userID).First(&existing)
	if result.Error == nil {
		return nil, ErrAlreadyAuthorized
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	user := &models.AuthorizedUser{
		GuildID: guildID,
		UserID:  userID,
	}

	result = db.Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAuthorized
		}
		return nil, result.Error
	}

	return user, nil
}

// Exists reports whether the (guild, user) pair is present.
func Exists(db *gorm.DB, guildID, userID int64) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	var user models.AuthorizedUser
	result := db.Where(guildUserQueryPattern, guildID, userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}

	return true, nil
}

// List retrieves all authorized users of a guild in insertion order.
func List(db *gorm.DB, guildID int64) ([]models.AuthorizedUser, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.AuthorizedUser
	result := db.Where(guildQueryPattern, guildID).Order("id ASC").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// Delete revokes a user's authorization within a guild.
func Delete(db *gorm.DB, guildID, userID int64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(guildUserQueryPattern, guildID, userID).Delete(&models.AuthorizedUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotAuthorized
	}

	return nil
}
