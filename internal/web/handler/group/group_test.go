package group

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/promo-warden/promo-warden/internal/auth"
	"github.com/promo-warden/promo-warden/internal/config"
	"github.com/promo-warden/promo-warden/internal/db/controller/authuser"
	"github.com/promo-warden/promo-warden/internal/db/models"
	"github.com/promo-warden/promo-warden/internal/distribution"
	"github.com/promo-warden/promo-warden/internal/web/handler"
)

const (
	testOwnerID int64 = 999
	testAdminID int64 = 111
	testGuildID int64 = 456
)

// setupApp builds a fiber app with the group routes wired to an in-memory
// store. testAdminID is authorized in testGuildID; testOwnerID is the owner.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.AuthorizedUser{}, &models.CodeGroup{}, &models.PromoCode{})
	require.NoError(t, err, "failed to migrate test database")

	_, err = authuser.Create(db, testGuildID, testAdminID)
	require.NoError(t, err)

	deps := &handler.Deps{
		Cfg:       &config.Config{},
		DB:        db,
		Engine:    distribution.New(db),
		IsOwner:   auth.OwnerCheckFor(testOwnerID),
		Validator: validator.New(),
	}

	app := fiber.New()
	Handler.Init(app, deps)

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (int, handler.Reply) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var reply handler.Reply
	require.NoError(t, json.Unmarshal(raw, &reply))

	return resp.StatusCode, reply
}

func TestServiceAdd(t *testing.T) {
	app, _ := setupApp(t)

	status, reply := postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "foo"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Group foo created", reply.Reply)

	status, reply = postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "foo"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, MsgAlreadyExists, reply.Reply)

	status, reply = postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "bad$name"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, MsgInvalidName, reply.Reply)
}

func TestServiceAddUnauthorized(t *testing.T) {
	app, _ := setupApp(t)

	status, reply := postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: 42, Name: "foo"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, handler.MsgNotAllowed, reply.Reply)

	// authorization is per guild
	status, reply = postJSON(t, app, RouteAdd, Request{GuildID: 789, ActorID: testAdminID, Name: "foo"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, handler.MsgNotAllowed, reply.Reply)

	// the owner bypasses the per-guild check
	status, _ = postJSON(t, app, RouteAdd, Request{GuildID: 789, ActorID: testOwnerID, Name: "foo"})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestServiceAddBadPayload(t *testing.T) {
	app, _ := setupApp(t)

	status, reply := postJSON(t, app, RouteAdd, map[string]interface{}{"guild_id": testGuildID})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, handler.MsgBadRequest, reply.Reply)
}

func TestServiceRemove(t *testing.T) {
	app, _ := setupApp(t)

	status, reply := postJSON(t, app, RouteRemove, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "foo"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Group foo does not exist!", reply.Reply)

	_, _ = postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "foo"})

	status, reply = postJSON(t, app, RouteRemove, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "foo"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Group foo removed", reply.Reply)
}

func TestServiceList(t *testing.T) {
	app, _ := setupApp(t)

	status, reply := postJSON(t, app, RouteList, ListRequest{GuildID: testGuildID, ActorID: testAdminID})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, MsgNoGroups, reply.Reply)

	_, _ = postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "foo"})
	_, _ = postJSON(t, app, RouteAdd, Request{GuildID: testGuildID, ActorID: testAdminID, Name: "bar"})

	status, reply = postJSON(t, app, RouteList, ListRequest{GuildID: testGuildID, ActorID: testAdminID})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, MsgListHeader+"\n- foo\n- bar", reply.Reply)
}
