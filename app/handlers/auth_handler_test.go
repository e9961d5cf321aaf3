package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amirphl/Orochi-CRM/app/dto"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	flow := &stubAuthFlow{
		register: func(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
			if req.Email == "taken@example.com" {
				return nil, businessflow.NewBusinessError("EMAIL_EXISTS", "Email already exists", businessflow.ErrEmailAlreadyExists)
			}
			return &dto.AuthResponse{
				User:    dto.AuthUserDTO{ID: 1, Email: req.Email, EmailLimit: 100},
				Session: dto.TokenPairDTO{AccessToken: "access", TokenType: "Bearer"},
			}, nil
		},
	}
	app := newTestApp(http.MethodPost, "/register", NewAuthHandler(flow).Register, false)

	t.Run("Created", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/register", dto.RegisterRequest{
			Name: "Jane Doe", Email: "jane@example.com", Password: "SecurePass1",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "jane@example.com", data["user"].(map[string]any)["email"])
	})

	t.Run("WeakPassword", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/register", dto.RegisterRequest{
			Name: "Jane Doe", Email: "jane@example.com", Password: "alllowercase",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
		details := body["error"].(map[string]any)["details"].([]any)
		assert.Contains(t, details, "Password must contain at least 1 uppercase letter and 1 number")
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/register", dto.RegisterRequest{
			Name: "Jane Doe", Email: "taken@example.com", Password: "SecurePass1",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "EMAIL_EXISTS", errorCode(t, body))
	})

	t.Run("MalformedBody", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/register", "{not json")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))
	})
}

func TestAuthHandler_Login(t *testing.T) {
	flow := &stubAuthFlow{
		login: func(req *dto.LoginRequest) (*dto.AuthResponse, error) {
			switch req.Email {
			case "missing@example.com":
				return nil, businessflow.ErrUserNotFound
			case "wrong@example.com":
				return nil, fmt.Errorf("login: %w", businessflow.ErrIncorrectPassword)
			case "inactive@example.com":
				return nil, businessflow.ErrAccountInactive
			case "broken@example.com":
				return nil, fmt.Errorf("database unavailable")
			}
			return &dto.AuthResponse{User: dto.AuthUserDTO{Email: req.Email}}, nil
		},
	}
	app := newTestApp(http.MethodPost, "/login", NewAuthHandler(flow).Login, false)

	cases := []struct {
		email  string
		status int
		code   string
	}{
		{"missing@example.com", http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"wrong@example.com", http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"inactive@example.com", http.StatusForbidden, "ACCOUNT_INACTIVE"},
		{"broken@example.com", http.StatusInternalServerError, "LOGIN_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodPost, "/login", dto.LoginRequest{Email: tc.email, Password: "SecurePass1"})
			require.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, body))
		})
	}

	t.Run("UnknownUserAndBadPasswordLookAlike", func(t *testing.T) {
		_, missing := doJSON(t, app, http.MethodPost, "/login", dto.LoginRequest{Email: "missing@example.com", Password: "SecurePass1"})
		_, wrong := doJSON(t, app, http.MethodPost, "/login", dto.LoginRequest{Email: "wrong@example.com", Password: "SecurePass1"})
		assert.Equal(t, missing["message"], wrong["message"])
	})

	t.Run("Success", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/login", dto.LoginRequest{Email: "jane@example.com", Password: "SecurePass1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Login successful", body["message"])
	})
}

func TestAuthHandler_RevokeSession(t *testing.T) {
	var gotUser uint
	flow := &stubAuthFlow{
		revoke: func(userID uint, sessionID string) error {
			gotUser = userID
			if sessionID == "other" {
				return businessflow.ErrSessionNotFound
			}
			return nil
		},
	}
	h := NewAuthHandler(flow)

	app := newTestApp(http.MethodDelete, "/sessions/:id", h.RevokeSession, true)
	resp, _ := doJSON(t, app, http.MethodDelete, "/sessions/abc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testUserID, gotUser)

	resp, body := doJSON(t, app, http.MethodDelete, "/sessions/other", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, body))

	guest := newTestApp(http.MethodDelete, "/sessions/:id", h.RevokeSession, false)
	resp, _ = doJSON(t, guest, http.MethodDelete, "/sessions/abc", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
