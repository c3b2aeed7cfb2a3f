package distribution

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/db/controller/promocode"
	"github.com/promo-warden/promo-warden/internal/db/dsn"
)

// claimAttempts bounds how often a lost claim race is retried with a
// fresh transaction before the error is surfaced.
const claimAttempts = 3

// Assignment is the confirmation payload of a successful code assignment.
// Code is delivered to the recipient; the rest confirms the operation to
// the administrative caller.
type Assignment struct {
	Code          string
	GroupName     string
	RecipientID   int64
	RecipientName string
	SentAt        time.Time
}

// Recipient identifies one target of a batch assignment.
type Recipient struct {
	ID   int64
	Name string
}

// BatchStatus is the per-recipient outcome of a batch assignment.
type BatchStatus int

const (
	// BatchAssigned means the recipient received a code.
	BatchAssigned BatchStatus = iota
	// BatchAlreadyRedeemed means the recipient was skipped because they
	// already hold a code from the group.
	BatchAlreadyRedeemed
	// BatchExhausted means the group ran out of unassigned codes before
	// this recipient's turn.
	BatchExhausted
)

// BatchOutcome reports what happened for one recipient of a batch.
type BatchOutcome struct {
	Recipient  Recipient
	Status     BatchStatus
	Assignment *Assignment
}

// AssignCode atomically assigns the oldest unassigned code of the named
// group to the recipient. The prior-redemption check, the selection and
// the claim all run inside one serializable transaction, so two
// concurrent calls can neither hand out the same code twice nor give the
// same recipient two codes from one group. Returns
// codegroup.ErrGroupNotFound, ErrAlreadyRedeemed or ErrExhausted; on any
// failure the store is left unchanged.
func (e *Engine) AssignCode(guildID int64, groupName string, recipientID int64, recipientName string, requireNoPriorRedemption bool) (*Assignment, error) {
	var (
		assignment *Assignment
		err        error
	)

	// A lost claim or a serialization abort means another transaction
	// touched the same rows after our snapshot was taken. Retrying with a
	// fresh transaction re-reads the queue and the redemption count.
	for attempt := 0; attempt < claimAttempts; attempt++ {
		assignment, err = e.assignOnce(guildID, groupName, recipientID, recipientName, requireNoPriorRedemption)
		if err == nil || isFinalAssignError(err) {
			break
		}

		log.Warn().Err(err).Int64("guild", guildID).Str("group", groupName).
			Int("attempt", attempt+1).Msg("claim transaction aborted, retrying")
	}

	switch {
	case err == nil:
		assignedCounter.Inc()
	case errors.Is(err, ErrExhausted):
		assignFailedCounter.WithLabelValues(reasonExhausted).Inc()
	case errors.Is(err, ErrAlreadyRedeemed):
		assignFailedCounter.WithLabelValues(reasonAlreadyRedeemed).Inc()
	}

	return assignment, err
}

// isFinalAssignError reports whether err is a definitive outcome that
// must not be retried.
func isFinalAssignError(err error) bool {
	return errors.Is(err, codegroup.ErrGroupNotFound) ||
		errors.Is(err, ErrAlreadyRedeemed) ||
		errors.Is(err, ErrExhausted)
}

// claimTxOptions requests serializable isolation for the claim
// transaction. Without it the prior-redemption count and the claim write
// are not one atomic unit on mysql or postgres: two transactions for the
// same recipient both count zero and claim distinct rows. sqlite
// transactions are serializable already and its driver rejects explicit
// levels, so no options are passed there.
func (e *Engine) claimTxOptions() []*sql.TxOptions {
	if e.db.Dialector.Name() == dsn.EngineSQLite {
		return nil
	}

	return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
}

func (e *Engine) assignOnce(guildID int64, groupName string, recipientID int64, recipientName string, requireNoPriorRedemption bool) (*Assignment, error) {
	var assignment *Assignment

	err := e.db.Transaction(func(tx *gorm.DB) error {
		group, err := codegroup.Get(tx, guildID, groupName)
		if err != nil {
			return err
		}

		if requireNoPriorRedemption {
			count, err := promocode.CountAssignedTo(tx, group.ID, recipientID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyRedeemed
			}
		}

		code, err := promocode.FirstUnassigned(tx, group.ID)
		if err != nil {
			if errors.Is(err, promocode.ErrNoUnassigned) {
				return ErrExhausted
			}
			return err
		}

		sentAt := e.now().UTC()
		if err := promocode.Claim(tx, code.ID, recipientID, recipientName, sentAt); err != nil {
			return err
		}

		assignment = &Assignment{
			Code:          code.Code,
			GroupName:     group.Name,
			RecipientID:   recipientID,
			RecipientName: recipientName,
			SentAt:        sentAt,
		}

		return nil
	}, e.claimTxOptions()...)
	if err != nil {
		return nil, err
	}

	return assignment, nil
}

// AssignCodeBatch assigns one code to each recipient in the given order.
// Partial success is expected: a recipient who already redeemed is skipped
// with a per-recipient note and the rest of the batch proceeds. Once the
// group runs out of codes, the remaining recipients are reported as
// exhausted rather than aborting the operation.
func (e *Engine) AssignCodeBatch(guildID int64, groupName string, recipients []Recipient, requireNoPriorRedemption bool) ([]BatchOutcome, error) {
	// Fail the whole batch early when the group is absent.
	if _, err := codegroup.Get(e.db, guildID, groupName); err != nil {
		return nil, err
	}

	outcomes := make([]BatchOutcome, 0, len(recipients))

	for i, recipient := range recipients {
		assignment, err := e.AssignCode(guildID, groupName, recipient.ID, recipient.Name, requireNoPriorRedemption)

		switch {
		case err == nil:
			outcomes = append(outcomes, BatchOutcome{
				Recipient:  recipient,
				Status:     BatchAssigned,
				Assignment: assignment,
			})
		case errors.Is(err, ErrAlreadyRedeemed):
			outcomes = append(outcomes, BatchOutcome{
				Recipient: recipient,
				Status:    BatchAlreadyRedeemed,
			})
		case errors.Is(err, ErrExhausted):
			// No code left for anyone after this point.
			for _, remaining := range recipients[i:] {
				outcomes = append(outcomes, BatchOutcome{
					Recipient: remaining,
					Status:    BatchExhausted,
				})
			}

			return outcomes, nil
		default:
			return outcomes, err
		}
	}

	return outcomes, nil
}
