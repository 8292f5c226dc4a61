package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-crm-core/internal/identity"
	"go-crm-core/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoami(t *testing.T, skipAuth bool, header, value string) (int, string) {
	t.Helper()
	app := fiber.New()
	app.Use(AuthMiddleware(skipAuth))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(identity.ActorFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestAuthMiddlewareSkipAuth(t *testing.T) {
	code, actor := whoami(t, true, ActorHeader, "u-7")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u-7", actor)

	_, actor = whoami(t, true, "", "")
	assert.Equal(t, "dev-admin-id", actor)
}

func TestAuthMiddlewareBearer(t *testing.T) {
	utils.SetSecret("mw-secret")
	token, err := utils.GenerateToken("u-9", nil, time.Hour)
	require.NoError(t, err)

	code, actor := whoami(t, false, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u-9", actor)

	code, _ = whoami(t, false, "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = whoami(t, false, "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = whoami(t, false, "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, code)
}
