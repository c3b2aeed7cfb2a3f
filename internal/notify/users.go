package notify

import "strconv"

// UserLookup resolves a user id to a display name. The chat transport
// owns the real resolution; this is its injected capability.
type UserLookup interface {
	FetchUser(userID int64) (string, error)
}

// IDLookup is the fallback UserLookup. It renders the raw id, which keeps
// listings readable when no transport-side resolver is wired.
type IDLookup struct{}

// FetchUser implements UserLookup.
func (IDLookup) FetchUser(userID int64) (string, error) {
	return strconv.FormatInt(userID, 10), nil
}
