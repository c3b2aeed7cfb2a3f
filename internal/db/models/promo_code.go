package models

import "time"

// PromoCode represents one redeemable code belonging to exactly one group.
// A code is either unassigned (all Sent* fields nil) or assigned (all
// non-nil); it transitions exactly once and never reverts. The claim in
// the allocation engine guarantees a recipient holds at most one assigned
// code per group.
type PromoCode struct {
	// ID is the unique identifier for the code row. Insertion order of
	// codes within a group follows this ID, which drives FIFO allocation.
	ID uint64 `gorm:"primaryKey"`
	// GroupID is the owning group.
	GroupID uint64 `gorm:"not null;uniqueIndex:idx_group_code"`
	// Code is the code text, unique per group.
	Code string `gorm:"size:100;not null;uniqueIndex:idx_group_code"`
	// SentToID is the recipient identity, nil while unassigned.
	SentToID *int64
	// SentToName is the recipient display name, nil while unassigned.
	SentToName *string `gorm:"size:100"`
	// SentAt is the assignment timestamp in UTC, nil while unassigned.
	SentAt *time.Time
	// CreatedAt is the timestamp when the code was imported (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the PromoCode model.
func (PromoCode) TableName() string {
	return "promo_codes"
}

// Assigned reports whether the code has been handed to a recipient.
func (p *PromoCode) Assigned() bool {
	return p.SentToID != nil
}
