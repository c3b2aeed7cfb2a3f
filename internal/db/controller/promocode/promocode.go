// Package promocode provides storage operations for promo codes, including
// the conditional claim used by the allocation engine.
package promocode

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/models"
)

const (
	groupCodeQueryPattern  = "group_id = ? AND code = ?"
	groupQueryPattern      = "group_id = ?"
	unassignedQueryPattern = "group_id = ? AND sent_to_id IS NULL"
	assignedToQueryPattern = "group_id = ? AND sent_to_id = ?"
)

var (
	// ErrCodeExists is returned when the (group, code) pair is already present.
	ErrCodeExists = errors.New("code already registered in this group")
	// ErrCodeNotFound is returned when no matching code exists.
	ErrCodeNotFound = errors.New("code not found in this group")
	// ErrNoUnassigned is returned when a group has no unassigned codes left.
	ErrNoUnassigned = errors.New("no unassigned code left in this group")
	// ErrClaimLost is returned when a concurrent transaction claimed the
	// selected code first. Callers retry with a fresh transaction.
	ErrClaimLost = errors.New("code was claimed concurrently")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create registers a single unassigned code in a group.
func Create(db *gorm.DB, groupID uint64, code string) (*models.PromoCode, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	// Check if the code already exists in this group
	var existing models.PromoCode
	result := db.Where(groupCodeQueryPattern, groupID, code).First(&existing)
	if result.Error == nil {
		return nil, ErrCodeExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	promoCode := &models.PromoCode{
		GroupID: groupID,
		Code:    code,
	}

	result = db.Create(promoCode)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeExists
		}
		return nil, result.Error
	}

	return promoCode, nil
}

// CreateBatch registers codes in order. The caller supplies the
// transaction handle so the whole import is all-or-nothing.
func CreateBatch(tx *gorm.DB, groupID uint64, codes []string) ([]models.PromoCode, error) {
	if tx == nil {
		return nil, ErrDBNil
	}

	created := make([]models.PromoCode, 0, len(codes))

	for _, code := range codes {
		promoCode, err := Create(tx, groupID, code)
		if err != nil {
			return nil, err
		}

		created = append(created, *promoCode)
	}

	return created, nil
}

// ListByGroup retrieves all codes of a group in insertion order.
func ListByGroup(db *gorm.DB, groupID uint64) ([]models.PromoCode, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var codes []models.PromoCode
	result := db.Where(groupQueryPattern, groupID).Order("id ASC").Find(&codes)
	if result.Error != nil {
		return nil, result.Error
	}

	return codes, nil
}

// ListByRecipient retrieves every code assigned to a recipient across all
// groups and guilds, in assignment insertion order.
func ListByRecipient(db *gorm.DB, recipientID int64) ([]models.PromoCode, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var codes []models.PromoCode
	result := db.Where("sent_to_id = ?", recipientID).Order("id ASC").Find(&codes)
	if result.Error != nil {
		return nil, result.Error
	}

	return codes, nil
}

// CountAssignedTo counts codes of a group already assigned to a recipient.
func CountAssignedTo(db *gorm.DB, groupID uint64, recipientID int64) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	result := db.Model(&models.PromoCode{}).
		Where(assignedToQueryPattern, groupID, recipientID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// FirstUnassigned retrieves the oldest unassigned code of a group
// (first-created, first-distributed).
func FirstUnassigned(db *gorm.DB, groupID uint64) (*models.PromoCode, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var code models.PromoCode
	result := db.Where(unassignedQueryPattern, groupID).Order("id ASC").First(&code)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNoUnassigned
		}
		return nil, result.Error
	}

	return &code, nil
}

// Claim atomically assigns a code to a recipient. The update is guarded
// by "sent_to_id IS NULL" so that of two racing transactions only one can
// win; the loser observes zero affected rows and gets ErrClaimLost.
func Claim(db *gorm.DB, codeID uint64, recipientID int64, recipientName string, sentAt time.Time) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.PromoCode{}).
		Where("id = ? AND sent_to_id IS NULL", codeID).
		Updates(map[string]interface{}{
			"sent_to_id":   recipientID,
			"sent_to_name": recipientName,
			"sent_at":      sentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClaimLost
	}

	return nil
}

// Delete removes a code from a group by its text.
func Delete(db *gorm.DB, groupID uint64, code string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(groupCodeQueryPattern, groupID, code).Delete(&models.PromoCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCodeNotFound
	}

	return nil
}
