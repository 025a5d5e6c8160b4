package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"pos-backend/internal/audit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-unit-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, expires, err := GenerateToken(testSecret, time.Hour, 7, "Joana")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.EstablishmentID)
	assert.Equal(t, "Joana", claims.StaffName)
	assert.Equal(t, "establishment:7", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	token, _, err := GenerateToken(testSecret, time.Hour, 7, "")
	require.NoError(t, err)
	_, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)

	expired, _, err := GenerateToken(testSecret, -time.Minute, 7, "")
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)

	noTenant, _, err := GenerateToken(testSecret, time.Hour, 0, "")
	require.NoError(t, err)
	_, err = ParseToken(testSecret, noTenant)
	assert.Error(t, err)
}

func TestMiddlewareScopesRequest(t *testing.T) {
	app := fiber.New()
	app.Use(JWTMiddleware(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := EstablishmentID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id, "actor": audit.ActorFrom(RequestContext(c))})
	})

	token, _, err := GenerateToken(testSecret, time.Hour, 3, "Caixa 2")
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Token "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
