package distribution

import (
	"errors"
)

var (
	// ErrInvalidGroupName is returned when a group name contains anything
	// but letters, digits, dashes and underscores.
	ErrInvalidGroupName = errors.New("invalid group name")

	// ErrInvalidCode is returned when a code contains anything but
	// letters, digits and dashes.
	ErrInvalidCode = errors.New("invalid code")

	// ErrAlreadyRedeemed is returned when the recipient already holds a
	// code from the group.
	ErrAlreadyRedeemed = errors.New("recipient already redeemed a code from this group")

	// ErrExhausted is returned when a group has no unassigned codes left.
	ErrExhausted = errors.New("group has no unassigned codes left")
)
