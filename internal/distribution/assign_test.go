package distribution

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/db/controller/promocode"
	"github.com/promo-warden/promo-warden/internal/db/models"
)

func TestAssignCode(t *testing.T) {
	engine, db := setupEngine(t)

	_, err := engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.ErrorIs(t, err, codegroup.ErrGroupNotFound)

	_, err = engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	_, err = engine.AddCodeBulk(testGuild, "foo", "FIRST-0001 SECOND-0002")
	require.NoError(t, err)

	assignment, err := engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, "FIRST-0001", assignment.Code, "the oldest code goes out first")
	assert.Equal(t, "foo", assignment.GroupName)
	assert.EqualValues(t, 111, assignment.RecipientID)
	assert.Equal(t, "alice", assignment.RecipientName)
	assert.False(t, assignment.SentAt.IsZero())

	// the stored row carries the full assignment state
	var stored models.PromoCode
	require.NoError(t, db.Where("code = ?", "FIRST-0001").First(&stored).Error)
	require.True(t, stored.Assigned())
	assert.EqualValues(t, 111, *stored.SentToID)
	assert.Equal(t, "alice", *stored.SentToName)
	require.NotNil(t, stored.SentAt)

	assignment, err = engine.AssignCode(testGuild, "foo", 222, "bob", true)
	require.NoError(t, err)
	assert.Equal(t, "SECOND-0002", assignment.Code)
}

func TestAssignCodeAlreadyRedeemed(t *testing.T) {
	engine, _ := setupEngine(t)

	_, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	_, err = engine.CreateGroup(testGuild, "bar")
	require.NoError(t, err)
	_, err = engine.AddCodeBulk(testGuild, "foo", "FOO-0001 FOO-0002")
	require.NoError(t, err)
	_, err = engine.AddCode(testGuild, "bar", "BAR-0001")
	require.NoError(t, err)

	_, err = engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.NoError(t, err)

	// a second code from the same group is refused
	_, err = engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.ErrorIs(t, err, ErrAlreadyRedeemed)

	// redemption is scoped per group
	_, err = engine.AssignCode(testGuild, "bar", 111, "alice", true)
	require.NoError(t, err)

	// the check can be waived explicitly
	assignment, err := engine.AssignCode(testGuild, "foo", 111, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "FOO-0002", assignment.Code)
}

func TestAssignCodeExhausted(t *testing.T) {
	engine, db := setupEngine(t)

	group, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	_, err = engine.AddCode(testGuild, "foo", "ONLY-0001")
	require.NoError(t, err)

	_, err = engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.NoError(t, err)

	_, err = engine.AssignCode(testGuild, "foo", 222, "bob", true)
	require.ErrorIs(t, err, ErrExhausted)

	// exhaustion leaves the store untouched
	var stored models.PromoCode
	require.NoError(t, db.Where("group_id = ?", group.ID).First(&stored).Error)
	assert.EqualValues(t, 111, *stored.SentToID)
	assert.EqualValues(t, 1, codeCount(t, db, group.ID))
}

func TestAssignCodeConcurrent(t *testing.T) {
	engine, db := setupEngine(t)

	// serialize connections so in-memory SQLite does not report busy
	// errors instead of exercising the claim path
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const n = 10

	_, err = engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err = engine.AddCode(testGuild, "foo", fmt.Sprintf("CODE-%04d", i))
		require.NoError(t, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*Assignment
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(recipient int64) {
			defer wg.Done()

			assignment, err := engine.AssignCode(testGuild, "foo", recipient, fmt.Sprintf("user-%d", recipient), true)
			if err != nil {
				return
			}

			mu.Lock()
			results = append(results, assignment)
			mu.Unlock()
		}(int64(1000 + i))
	}
	wg.Wait()

	require.Len(t, results, n, "every recipient must get a code")

	seen := make(map[string]int64, n)
	for _, assignment := range results {
		prev, dup := seen[assignment.Code]
		require.False(t, dup, "code %s assigned to both %d and %d", assignment.Code, prev, assignment.RecipientID)
		seen[assignment.Code] = assignment.RecipientID
	}
}

func TestAssignCodeConcurrentSameRecipient(t *testing.T) {
	engine, db := setupEngine(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const n = 5

	group, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err = engine.AddCode(testGuild, "foo", fmt.Sprintf("CODE-%04d", i))
		require.NoError(t, err)
	}

	// n racing calls for one recipient: the redemption count and the
	// claim write share a transaction, so exactly one call may win
	var (
		wg       sync.WaitGroup
		assigned atomic.Int64
		redeemed atomic.Int64
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := engine.AssignCode(testGuild, "foo", 111, "alice", true)
			switch {
			case err == nil:
				assigned.Add(1)
			case errors.Is(err, ErrAlreadyRedeemed):
				redeemed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, assigned.Load(), "exactly one call may assign")
	assert.EqualValues(t, n-1, redeemed.Load())

	count, err := promocode.CountAssignedTo(db, group.ID, 111)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "recipient must hold one code from the group")
}

func TestAssignCodeBatch(t *testing.T) {
	engine, _ := setupEngine(t)

	_, err := engine.AssignCodeBatch(testGuild, "foo", []Recipient{{ID: 111, Name: "alice"}}, true)
	require.ErrorIs(t, err, codegroup.ErrGroupNotFound)

	_, err = engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	_, err = engine.AddCodeBulk(testGuild, "foo", "FOO-0001 FOO-0002")
	require.NoError(t, err)

	// alice already holds a code from the group
	_, err = engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.NoError(t, err)

	recipients := []Recipient{
		{ID: 111, Name: "alice"},
		{ID: 222, Name: "bob"},
		{ID: 333, Name: "carol"},
		{ID: 444, Name: "dave"},
	}

	outcomes, err := engine.AssignCodeBatch(testGuild, "foo", recipients, true)
	require.NoError(t, err)
	require.Len(t, outcomes, len(recipients), "each recipient gets an outcome")

	assert.Equal(t, BatchAlreadyRedeemed, outcomes[0].Status)
	assert.Nil(t, outcomes[0].Assignment)

	require.Equal(t, BatchAssigned, outcomes[1].Status)
	require.NotNil(t, outcomes[1].Assignment)
	assert.Equal(t, "FOO-0002", outcomes[1].Assignment.Code)

	// the group is empty from here on, nobody crashes
	assert.Equal(t, BatchExhausted, outcomes[2].Status)
	assert.Equal(t, BatchExhausted, outcomes[3].Status)
	assert.EqualValues(t, 444, outcomes[3].Recipient.ID)
}

func TestAssignCodeTimestamps(t *testing.T) {
	engine, _ := setupEngine(t)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	_, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	_, err = engine.AddCode(testGuild, "foo", "ASDF-1234")
	require.NoError(t, err)

	assignment, err := engine.AssignCode(testGuild, "foo", 111, "alice", true)
	require.NoError(t, err)
	assert.True(t, assignment.SentAt.Equal(fixed))
}
