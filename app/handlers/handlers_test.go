package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/middleware"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
)

const testUserID uint = 7

// newTestApp mounts a route behind a stand-in for the auth middleware
func newTestApp(method, path string, handler fiber.Handler, authenticated bool) *fiber.App {
	app := fiber.New()
	app.Add([]string{method}, path, func(c fiber.Ctx) error {
		if authenticated {
			c.Locals(middleware.LocalUserID, testUserID)
			c.Locals(middleware.LocalSessionID, "session-1")
		}
		return c.Next()
	}, handler)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

type stubAuthFlow struct {
	businessflow.AuthFlow
	register func(*dto.RegisterRequest) (*dto.AuthResponse, error)
	login    func(*dto.LoginRequest) (*dto.AuthResponse, error)
	revoke   func(userID uint, sessionID string) error
}

func (s *stubAuthFlow) Register(_ context.Context, req *dto.RegisterRequest, _ *businessflow.ClientMetadata) (*dto.AuthResponse, error) {
	return s.register(req)
}

func (s *stubAuthFlow) Login(_ context.Context, req *dto.LoginRequest, _ *businessflow.ClientMetadata) (*dto.AuthResponse, error) {
	return s.login(req)
}

func (s *stubAuthFlow) RevokeSession(_ context.Context, userID uint, sessionID string, _ *businessflow.ClientMetadata) error {
	return s.revoke(userID, sessionID)
}

type stubCampaignFlow struct {
	businessflow.CampaignFlow
	send     func(*dto.SendCampaignRequest) (*dto.SendCampaignResponse, error)
	credits  func(userID uint) (*dto.CreditsResponse, error)
	list     func(*dto.ListCampaignsRequest) ([]dto.CampaignResponse, error)
	get      func(userID, campaignID uint) (*dto.CampaignResponse, error)
	verify   func(*dto.VerifyEmailRequest) (*dto.VerifyEmailResponse, error)
	gotMeta  *businessflow.ClientMetadata
	sendSeen int
}

func (s *stubCampaignFlow) SendCampaign(_ context.Context, req *dto.SendCampaignRequest, metadata *businessflow.ClientMetadata) (*dto.SendCampaignResponse, error) {
	s.sendSeen++
	s.gotMeta = metadata
	return s.send(req)
}

func (s *stubCampaignFlow) GetCredits(_ context.Context, userID uint) (*dto.CreditsResponse, error) {
	return s.credits(userID)
}

func (s *stubCampaignFlow) ListCampaigns(_ context.Context, req *dto.ListCampaignsRequest) ([]dto.CampaignResponse, error) {
	return s.list(req)
}

func (s *stubCampaignFlow) GetCampaign(_ context.Context, userID, campaignID uint) (*dto.CampaignResponse, error) {
	return s.get(userID, campaignID)
}

func (s *stubCampaignFlow) VerifySenderEmail(_ context.Context, req *dto.VerifyEmailRequest) (*dto.VerifyEmailResponse, error) {
	return s.verify(req)
}

type stubContactFlow struct {
	businessflow.ContactFlow
	create func(*dto.CreateContactRequest) (*dto.ContactResponse, error)
	get    func(userID, contactID uint) (*dto.ContactResponse, error)
	export func(userID uint) (*dto.ContactExport, error)
}

func (s *stubContactFlow) CreateContact(_ context.Context, req *dto.CreateContactRequest, _ *businessflow.ClientMetadata) (*dto.ContactResponse, error) {
	return s.create(req)
}

func (s *stubContactFlow) GetContact(_ context.Context, userID, contactID uint) (*dto.ContactResponse, error) {
	return s.get(userID, contactID)
}

func (s *stubContactFlow) ExportContacts(_ context.Context, userID uint) (*dto.ContactExport, error) {
	return s.export(userID)
}

type stubSupportFlow struct {
	businessflow.SupportFlow
	message func(*dto.SupportMessageRequest) (*dto.SupportMessageResponse, error)
	ticket  func(*dto.CreateSupportTicketRequest) (*dto.CreateSupportTicketResponse, error)
	file    func(userID, fileID uint) (*dto.SupportFileDownload, error)
}

func (s *stubSupportFlow) CreateMessage(_ context.Context, req *dto.SupportMessageRequest, _ *businessflow.ClientMetadata) (*dto.SupportMessageResponse, error) {
	return s.message(req)
}

func (s *stubSupportFlow) CreateTicket(_ context.Context, req *dto.CreateSupportTicketRequest, _ *businessflow.ClientMetadata) (*dto.CreateSupportTicketResponse, error) {
	return s.ticket(req)
}

func (s *stubSupportFlow) GetFile(_ context.Context, userID, fileID uint) (*dto.SupportFileDownload, error) {
	return s.file(userID, fileID)
}
