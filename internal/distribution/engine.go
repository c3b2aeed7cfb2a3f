// Package distribution implements the promo code allocation engine: group
// and code lifecycle, bulk import, and the atomic claim that hands each
// recipient at most one code per group.
package distribution

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/controller/authuser"
	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/db/controller/promocode"
	"github.com/promo-warden/promo-warden/internal/db/models"
	"github.com/promo-warden/promo-warden/internal/validate"
)

// Engine executes all mutating operations against an explicitly passed
// store handle. It holds no other state; every operation is a short-lived
// unit of work.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates an Engine on top of the given store handle.
func New(db *gorm.DB) *Engine {
	initMetrics()

	return &Engine{
		db:  db,
		now: time.Now,
	}
}

// CreateGroup validates the name and creates a guild-scoped code group.
// Returns ErrInvalidGroupName or codegroup.ErrGroupExists without mutating
// storage on failure.
func (e *Engine) CreateGroup(guildID int64, name string) (*models.CodeGroup, error) {
	if !validate.GroupName(name) {
		return nil, ErrInvalidGroupName
	}

	group, err := codegroup.Create(e.db, guildID, name)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("guild", guildID).Str("group", name).Msg("code group created")

	return group, nil
}

// RemoveGroup deletes the matching group and, with it, all codes it owns.
// Returns codegroup.ErrGroupNotFound when there was nothing to remove.
func (e *Engine) RemoveGroup(guildID int64, name string) error {
	if err := codegroup.Delete(e.db, guildID, name); err != nil {
		return err
	}

	log.Info().Int64("guild", guildID).Str("group", name).Msg("code group removed")

	return nil
}

// AddCode validates the code and registers it as unassigned in the named
// group. Returns ErrInvalidCode, codegroup.ErrGroupNotFound or
// promocode.ErrCodeExists.
func (e *Engine) AddCode(guildID int64, groupName, code string) (*models.PromoCode, error) {
	if !validate.Code(code) {
		return nil, ErrInvalidCode
	}

	group, err := codegroup.Get(e.db, guildID, groupName)
	if err != nil {
		return nil, err
	}

	promoCode, err := promocode.Create(e.db, group.ID, code)
	if err != nil {
		return nil, err
	}

	importedCounter.Inc()

	return promoCode, nil
}

// AddCodeBulk tokenizes text, validates every token and imports all of
// them as unassigned codes in a single all-or-nothing transaction. A
// reader never observes a partially imported batch: either every token is
// inserted or none is.
func (e *Engine) AddCodeBulk(guildID int64, groupName, text string) ([]models.PromoCode, error) {
	group, err := codegroup.Get(e.db, guildID, groupName)
	if err != nil {
		return nil, err
	}

	tokens := validate.CodesInBulk(text)
	for _, token := range tokens {
		if !validate.Code(token) {
			return nil, errors.Wrapf(ErrInvalidCode, "token %q", token)
		}
	}

	var created []models.PromoCode

	err = e.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = promocode.CreateBatch(tx, group.ID, tokens)

		return txErr
	})
	if err != nil {
		return nil, err
	}

	importedCounter.Add(float64(len(created)))
	log.Info().Int64("guild", guildID).Str("group", groupName).
		Int("count", len(created)).Msg("codes imported in bulk")

	return created, nil
}

// RemoveCode deletes the matching code from the named group. An absent
// group reads the same as an absent code: promocode.ErrCodeNotFound.
func (e *Engine) RemoveCode(guildID int64, groupName, code string) error {
	group, err := codegroup.Get(e.db, guildID, groupName)
	if err != nil {
		if errors.Is(err, codegroup.ErrGroupNotFound) {
			return promocode.ErrCodeNotFound
		}
		return err
	}

	return promocode.Delete(e.db, group.ID, code)
}

// AddUser authorizes an actor to run administrative commands in a guild.
func (e *Engine) AddUser(guildID, userID int64) (*models.AuthorizedUser, error) {
	return authuser.Create(e.db, guildID, userID)
}

// RemoveUser revokes an actor's authorization in a guild. Returns
// authuser.ErrNotAuthorized when there was nothing to revoke.
func (e *Engine) RemoveUser(guildID, userID int64) error {
	return authuser.Delete(e.db, guildID, userID)
}
