package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/Orochi-CRM/app/dto"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactHandler_CreateContact(t *testing.T) {
	flow := &stubContactFlow{
		create: func(req *dto.CreateContactRequest) (*dto.ContactResponse, error) {
			assert.Equal(t, testUserID, req.UserID)
			if req.Email == "dup@example.com" {
				return nil, businessflow.ErrContactDuplicate
			}
			return &dto.ContactResponse{ID: 11, Name: req.Name, Email: req.Email}, nil
		},
	}
	app := newTestApp(http.MethodPost, "/contacts", NewContactHandler(flow).CreateContact, true)

	resp, body := doJSON(t, app, http.MethodPost, "/contacts", dto.CreateContactRequest{Name: "Jane", Email: "jane@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 11, body["data"].(map[string]any)["id"])

	resp, body = doJSON(t, app, http.MethodPost, "/contacts", dto.CreateContactRequest{Name: "Jane", Email: "dup@example.com"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONTACT_DUPLICATE", errorCode(t, body))
	assert.Equal(t, "A contact with this email already exists", body["message"])

	resp, body = doJSON(t, app, http.MethodPost, "/contacts", dto.CreateContactRequest{Name: "Jane", Email: "not-an-email"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
}

func TestContactHandler_GetContact(t *testing.T) {
	flow := &stubContactFlow{
		get: func(userID, contactID uint) (*dto.ContactResponse, error) {
			if contactID == 404 {
				return nil, businessflow.ErrContactNotFound
			}
			return &dto.ContactResponse{ID: contactID}, nil
		},
	}
	app := newTestApp(http.MethodGet, "/contacts/:id", NewContactHandler(flow).GetContact, true)

	resp, _ := doJSON(t, app, http.MethodGet, "/contacts/5", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/contacts/404", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "CONTACT_NOT_FOUND", errorCode(t, body))

	resp, body = doJSON(t, app, http.MethodGet, "/contacts/zero", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CONTACT_ID", errorCode(t, body))
}

func TestContactHandler_ExportContacts(t *testing.T) {
	flow := &stubContactFlow{
		export: func(userID uint) (*dto.ContactExport, error) {
			return &dto.ContactExport{
				Filename:    "contacts.xlsx",
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				Data:        []byte("PK\x03\x04"),
			}, nil
		},
	}
	app := newTestApp(http.MethodGet, "/contacts/export", NewContactHandler(flow).ExportContacts, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/contacts/export", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="contacts.xlsx"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)
}
