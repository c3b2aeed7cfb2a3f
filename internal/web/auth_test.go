package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promo-warden/promo-warden/internal/config"
)

func gatedApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(TokenMiddleware(cfg))
	app.Get("/cmd/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	return app
}

func TestTokenMiddleware(t *testing.T) {
	hash, err := argon2id.CreateHash("sekret", argon2id.DefaultParams)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Webserver.AdminTokenHash = hash

	app := gatedApp(t, cfg)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token",
			authHeader: "Bearer sekret",
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "wrong token",
			authHeader: "Bearer nope",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "not a bearer header",
			authHeader: "Basic c2VrcmV0",
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "garbage instead of a hash comparison input",
			authHeader: "Bearer ",
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cmd/ping", nil)
			if tt.authHeader != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() {
				_ = resp.Body.Close()
			}()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestTokenMiddlewareDisabled(t *testing.T) {
	cfg := &config.Config{DevMode: true}

	app := gatedApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/cmd/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
