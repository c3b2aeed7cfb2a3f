// Package notify models the transport's "send message to actor"
// capability as a small injected interface.
package notify

import (
	"github.com/rs/zerolog/log"
)

// Messenger delivers a message to a single user's direct channel. The
// engine calls it strictly after the owning transaction committed; an
// implementation may block on network I/O without holding any lock.
type Messenger interface {
	SendToUser(userID int64, name, text string) error
}

// LogMessenger is the default Messenger. It writes deliveries to the
// service log, which is what dev mode and tests want.
type LogMessenger struct{}

// SendToUser implements Messenger.
func (LogMessenger) SendToUser(userID int64, name, text string) error {
	log.Info().Int64("user", userID).Str("name", name).Str("text", text).
		Msg("direct message delivered")

	return nil
}
