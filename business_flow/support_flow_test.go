package businessflow_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	testingutil "github.com/amirphl/Orochi-CRM/testing"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const supportInbox = "support@orochi.test"

func uploads(n int, prefix string) []dto.SupportUpload {
	out := make([]dto.SupportUpload, 0, n)
	for i := range n {
		out = append(out, dto.SupportUpload{
			Filename: fmt.Sprintf("%s-%d.png", prefix, i),
			MimeType: "image/png",
			Data:     []byte{0x89, 'P', 'N', 'G', byte(i)},
		})
	}
	return out
}

func TestSupportFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		notifier := services.NewMockNotifier()
		ticketRepo := repository.NewSupportTicketRepository(testDB.DB)
		flow := businessflow.NewSupportFlow(
			repository.NewSupportMessageRepository(testDB.DB),
			ticketRepo,
			repository.NewUserRepository(testDB.DB),
			repository.NewAuditLogRepository(testDB.DB),
			notifier,
			supportInbox,
		)
		ctx := context.Background()

		user, err := fixtures.CreateTestUser(0)
		require.NoError(t, err)
		other, err := fixtures.CreateTestUser(0)
		require.NoError(t, err)

		t.Run("GuestMessage", func(t *testing.T) {
			resp, err := flow.CreateMessage(ctx, &dto.SupportMessageRequest{Name: "Guest <b>", Message: "Hi there"}, nil)
			require.NoError(t, err)
			assert.Equal(t, "Message saved & email sent successfully!", resp.Message)
			assert.NotZero(t, resp.ID)

			sent := notifier.Messages()
			require.NotEmpty(t, sent)
			last := sent[len(sent)-1]
			assert.Equal(t, supportInbox, last.To)
			assert.Equal(t, "Support Message from Guest <b>", last.Subject)
			assert.Contains(t, last.HTML, "<b>User:</b> Guest (ID: N/A)")
			assert.Contains(t, last.HTML, "Guest &lt;b&gt;")
			assert.Equal(t, "Hi there", last.Text)
		})

		t.Run("UserMessage", func(t *testing.T) {
			_, err := flow.CreateMessage(ctx, &dto.SupportMessageRequest{UserID: &user.ID, Name: "John", Message: "Need help"}, nil)
			require.NoError(t, err)

			sent := notifier.Messages()
			last := sent[len(sent)-1]
			assert.Contains(t, last.HTML, fmt.Sprintf("%s (ID: %d)", user.Email, user.ID))
		})

		t.Run("MessageRequiresFields", func(t *testing.T) {
			_, err := flow.CreateMessage(ctx, &dto.SupportMessageRequest{Name: "  ", Message: "x"}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsSupportValidationError(err))
		})

		t.Run("NotificationFailureDoesNotFail", func(t *testing.T) {
			notifier.Err = errors.New("relay down")
			defer func() { notifier.Err = nil }()

			_, err := flow.CreateMessage(ctx, &dto.SupportMessageRequest{Name: "John", Message: "Still here"}, nil)
			require.NoError(t, err)
		})

		var fileID uint

		t.Run("TicketWithAttachments", func(t *testing.T) {
			resp, err := flow.CreateTicket(ctx, &dto.CreateSupportTicketRequest{
				UserID:      user.ID,
				Subject:     "Import broken",
				Description: "CSV upload hangs",
				Files:       uploads(2, "file"),
				Screenshots: uploads(1, "shot"),
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, 3, resp.FileCount)
			assert.Equal(t, "Ticket & files saved successfully!", resp.Message)
			assert.NotEmpty(t, resp.UUID)

			sent := notifier.Messages()
			last := sent[len(sent)-1]
			assert.Equal(t, "New Support Ticket: Import broken", last.Subject)
			assert.Contains(t, last.HTML, "<strong>Files:</strong> 3 uploaded")

			tickets, err := ticketRepo.ByFilter(ctx, models.SupportTicketFilter{UserID: &user.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, tickets, 1)
			require.Len(t, tickets[0].Files, 3)
			for _, f := range tickets[0].Files {
				if f.Filename == "file-0.png" {
					fileID = f.ID
				}
			}
		})

		t.Run("TicketRequiresFields", func(t *testing.T) {
			_, err := flow.CreateTicket(ctx, &dto.CreateSupportTicketRequest{UserID: user.ID, Subject: "x"}, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsSupportValidationError(err))
		})

		t.Run("TicketFileLimits", func(t *testing.T) {
			_, err := flow.CreateTicket(ctx, &dto.CreateSupportTicketRequest{
				UserID: user.ID, Subject: "s", Description: "d",
				Files: uploads(utils.MaxTicketFiles+1, "file"),
			}, nil)
			assert.True(t, businessflow.IsSupportValidationError(err))

			_, err = flow.CreateTicket(ctx, &dto.CreateSupportTicketRequest{
				UserID: user.ID, Subject: "s", Description: "d",
				Screenshots: []dto.SupportUpload{{Filename: "big.png", Data: bytes.Repeat([]byte{1}, utils.MaxSupportFileSize+1)}},
			}, nil)
			assert.True(t, businessflow.IsSupportValidationError(err))
		})

		t.Run("FileOwnerOnly", func(t *testing.T) {
			require.NotZero(t, fileID)

			file, err := flow.GetFile(ctx, user.ID, fileID)
			require.NoError(t, err)
			assert.Equal(t, "image/png", file.MimeType)
			assert.Equal(t, "file-0.png", file.Filename)
			assert.NotEmpty(t, file.Data)

			_, err = flow.GetFile(ctx, other.ID, fileID)
			assert.True(t, businessflow.IsSupportFileAccessDenied(err))

			_, err = flow.GetFile(ctx, user.ID, 987654)
			assert.True(t, businessflow.IsSupportFileNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
