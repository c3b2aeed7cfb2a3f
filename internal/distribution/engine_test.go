package distribution

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/db/controller/authuser"
	"github.com/promo-warden/promo-warden/internal/db/controller/codegroup"
	"github.com/promo-warden/promo-warden/internal/db/controller/promocode"
	"github.com/promo-warden/promo-warden/internal/db/models"
)

const (
	testGuild      int64 = 456
	testOtherGuild int64 = 789
)

// setupEngine creates an Engine over an in-memory SQLite database.
func setupEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.AuthorizedUser{}, &models.CodeGroup{}, &models.PromoCode{})
	require.NoError(t, err, "failed to migrate test database")

	return New(db), db
}

func codeCount(t *testing.T, db *gorm.DB, groupID uint64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.PromoCode{}).Where("group_id = ?", groupID).Count(&count).Error)

	return count
}

func TestNewConcurrent(t *testing.T) {
	_, db := setupEngine(t)

	// racing constructors must register the metric set exactly once,
	// promauto panics on a duplicate
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = New(db)
		}()
	}
	wg.Wait()
}

func TestCreateGroup(t *testing.T) {
	engine, _ := setupEngine(t)

	group, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", group.Name)

	_, err = engine.CreateGroup(testGuild, "foo")
	require.ErrorIs(t, err, codegroup.ErrGroupExists)

	// identical names in different guilds succeed independently
	_, err = engine.CreateGroup(testOtherGuild, "foo")
	require.NoError(t, err)
}

func TestCreateGroupInvalidName(t *testing.T) {
	engine, db := setupEngine(t)

	_, err := engine.CreateGroup(testGuild, "asdf$")
	require.ErrorIs(t, err, ErrInvalidGroupName)

	var count int64
	require.NoError(t, db.Model(&models.CodeGroup{}).Count(&count).Error)
	assert.Zero(t, count, "validation failure must not mutate storage")
}

func TestRemoveGroup(t *testing.T) {
	engine, db := setupEngine(t)

	err := engine.RemoveGroup(testGuild, "foo")
	require.ErrorIs(t, err, codegroup.ErrGroupNotFound)

	group, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	other, err := engine.CreateGroup(testGuild, "bar")
	require.NoError(t, err)

	_, err = engine.AddCode(testGuild, "foo", "ASDF-1234")
	require.NoError(t, err)
	_, err = engine.AddCode(testGuild, "bar", "QWER-5678")
	require.NoError(t, err)

	require.NoError(t, engine.RemoveGroup(testGuild, "foo"))

	assert.Zero(t, codeCount(t, db, group.ID), "group deletion cascades to its codes")
	assert.EqualValues(t, 1, codeCount(t, db, other.ID))
}

func TestAddCode(t *testing.T) {
	engine, _ := setupEngine(t)

	_, err := engine.AddCode(testGuild, "foo", "ASDF-1234")
	require.ErrorIs(t, err, codegroup.ErrGroupNotFound)

	_, err = engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)
	_, err = engine.CreateGroup(testGuild, "bar")
	require.NoError(t, err)

	_, err = engine.AddCode(testGuild, "foo", "ASDF$1234")
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = engine.AddCode(testGuild, "foo", "ASDF-1234")
	require.NoError(t, err)

	// the second add of the same text to the same group fails
	_, err = engine.AddCode(testGuild, "foo", "ASDF-1234")
	require.ErrorIs(t, err, promocode.ErrCodeExists)

	// adding it to a different group succeeds
	_, err = engine.AddCode(testGuild, "bar", "ASDF-1234")
	require.NoError(t, err)

	// a group of the same name in another guild is a different group
	_, err = engine.AddCode(testOtherGuild, "foo", "ASDF-1234")
	require.ErrorIs(t, err, codegroup.ErrGroupNotFound)
}

func TestAddCodeBulk(t *testing.T) {
	engine, db := setupEngine(t)

	_, err := engine.AddCodeBulk(testGuild, "foo", "ASDF-1234 QWER-5678,ZXCV-9012")
	require.ErrorIs(t, err, codegroup.ErrGroupNotFound)

	group, err := engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)

	created, err := engine.AddCodeBulk(testGuild, "foo", "ASDF-1234 QWER-5678,ZXCV-9012")
	require.NoError(t, err)
	require.Len(t, created, 3)

	codes, err := engine.ListCodes(testGuild, "foo")
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.Equal(t, "ASDF-1234", codes[0].Code)
	assert.Equal(t, "QWER-5678", codes[1].Code)
	assert.Equal(t, "ZXCV-9012", codes[2].Code)

	// a duplicate anywhere in the batch rolls the whole import back
	_, err = engine.AddCodeBulk(testGuild, "foo", "NEW-0001 QWER-5678 NEW-0002")
	require.ErrorIs(t, err, promocode.ErrCodeExists)
	assert.EqualValues(t, 3, codeCount(t, db, group.ID), "failed import must leave no partial batch")

	// an invalid token rejects the batch before anything is written;
	// underscore survives tokenization but is outside the code alphabet
	_, err = engine.AddCodeBulk(testGuild, "foo", "NEW-0001 BAD_TOKEN")
	require.ErrorIs(t, err, ErrInvalidCode)
	assert.EqualValues(t, 3, codeCount(t, db, group.ID))

	// any other special character is a separator, not part of a token
	created, err = engine.AddCodeBulk(testGuild, "foo", "AAA-0001$BBB-0002")
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "AAA-0001", created[0].Code)
	assert.Equal(t, "BBB-0002", created[1].Code)
	assert.EqualValues(t, 5, codeCount(t, db, group.ID))
}

func TestRemoveCode(t *testing.T) {
	engine, _ := setupEngine(t)

	// an absent group reads as an absent code
	err := engine.RemoveCode(testGuild, "foo", "ASDF-1234")
	require.ErrorIs(t, err, promocode.ErrCodeNotFound)

	_, err = engine.CreateGroup(testGuild, "foo")
	require.NoError(t, err)

	err = engine.RemoveCode(testGuild, "foo", "ASDF-1234")
	require.ErrorIs(t, err, promocode.ErrCodeNotFound)

	_, err = engine.AddCode(testGuild, "foo", "ASDF-1234")
	require.NoError(t, err)

	err = engine.RemoveCode(testGuild, "foo", "ASDF-1234")
	require.NoError(t, err)
}

func TestUserLifecycle(t *testing.T) {
	engine, _ := setupEngine(t)

	user, err := engine.AddUser(testGuild, 123)
	require.NoError(t, err)
	assert.EqualValues(t, 123, user.UserID)

	_, err = engine.AddUser(testGuild, 123)
	require.ErrorIs(t, err, authuser.ErrAlreadyAuthorized)

	users, err := engine.ListAuthorizedUsers(testGuild)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, engine.RemoveUser(testGuild, 123))

	err = engine.RemoveUser(testGuild, 123)
	require.ErrorIs(t, err, authuser.ErrNotAuthorized)
}
