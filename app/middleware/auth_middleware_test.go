package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/Orochi-CRM/app/services"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	tokens map[string]*services.TokenClaims
	errs   map[string]error
}

func (v *fakeValidator) ValidateAccessToken(_ context.Context, token string) (*services.TokenClaims, error) {
	if err, ok := v.errs[token]; ok {
		return nil, err
	}
	if claims, ok := v.tokens[token]; ok {
		return claims, nil
	}
	return nil, businessflow.ErrInvalidToken
}

func newValidator() *fakeValidator {
	return &fakeValidator{
		tokens: map[string]*services.TokenClaims{
			"good": {UserID: 42, SessionID: "s-1", TokenType: "access"},
		},
		errs: map[string]error{
			"expired": fmt.Errorf("%w: %w", businessflow.ErrInvalidToken, services.ErrTokenExpired),
			"revoked": businessflow.ErrSessionExpired,
		},
	}
}

func whoAmI(c fiber.Ctx) error {
	userID, _ := c.Locals(LocalUserID).(uint)
	sessionID, _ := c.Locals(LocalSessionID).(string)
	return c.JSON(fiber.Map{"user_id": userID, "session_id": sessionID})
}

func call(t *testing.T, app *fiber.App, authorization string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/", NewAuthMiddleware(newValidator()).Authenticate(), whoAmI)

	status, body := call(t, app, "Bearer good")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 42, body["user_id"])
	assert.Equal(t, "s-1", body["session_id"])

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"MissingHeader", "", "MISSING_AUTHORIZATION_HEADER"},
		{"WrongScheme", "Basic abc", "INVALID_AUTHORIZATION_FORMAT"},
		{"EmptyToken", "Bearer   ", "MISSING_ACCESS_TOKEN"},
		{"BareScheme", "Bearer", "MISSING_ACCESS_TOKEN"},
		{"Expired", "Bearer expired", "TOKEN_EXPIRED"},
		{"RevokedSession", "Bearer revoked", "SESSION_INVALID"},
		{"Garbage", "Bearer garbage", "TOKEN_INVALID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, tc.header)
			require.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["error"].(map[string]any)["code"])
		})
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/", NewAuthMiddleware(newValidator()).OptionalAuthenticate(), whoAmI)

	status, body := call(t, app, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["user_id"])

	status, body = call(t, app, "Bearer garbage")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["user_id"])

	status, body = call(t, app, "Bearer good")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 42, body["user_id"])
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		code   string
	}{
		{"", "", "MISSING_AUTHORIZATION_HEADER"},
		{"Bearer", "", "MISSING_ACCESS_TOKEN"},
		{"Bearer   ", "", "MISSING_ACCESS_TOKEN"},
		{"Bearer \t ", "", "MISSING_ACCESS_TOKEN"},
		{"Bearerabc", "", "INVALID_AUTHORIZATION_FORMAT"},
		{"Token abc", "", "INVALID_AUTHORIZATION_FORMAT"},
		{"Bearer abc", "abc", ""},
		{"  Bearer abc  ", "abc", ""},
	}
	for _, tc := range cases {
		token, code, _ := bearerToken(tc.header)
		assert.Equal(t, tc.code, code, "header %q", tc.header)
		assert.Equal(t, tc.token, token, "header %q", tc.header)
	}
}
