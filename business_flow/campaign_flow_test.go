package businessflow_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

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

type campaignHarness struct {
	flow         businessflow.CampaignFlow
	ledger       businessflow.CreditLedger
	lock         *businessflow.LocalSendLock
	transport    *services.MockMailTransport
	publisher    *services.NoopPublisher
	campaignRepo repository.CampaignRepository
	paymentRepo  repository.PaymentRepository
	userRepo     repository.UserRepository
}

func newCampaignHarness(testDB *testingutil.TestDB, now func() time.Time) *campaignHarness {
	userRepo := repository.NewUserRepository(testDB.DB)
	paymentRepo := repository.NewPaymentRepository(testDB.DB)
	campaignRepo := repository.NewCampaignRepository(testDB.DB)
	logRepo := repository.NewAutomationLogRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	transport := services.NewMockMailTransport()
	publisher := services.NewNoopPublisher()
	lock := businessflow.NewLocalSendLock()
	ledger := businessflow.NewCreditLedger(userRepo, paymentRepo, testDB.DB)
	dispatcher := businessflow.NewCampaignDispatcher(transport, 0).WithSleep(noSleep)

	flow := businessflow.NewCampaignFlow(
		campaignRepo,
		logRepo,
		auditRepo,
		ledger,
		services.NewCampaignRenderer(),
		dispatcher,
		transport,
		transport,
		publisher,
		lock,
		businessflow.CampaignFlowConfig{Now: now},
	)

	return &campaignHarness{
		flow:         flow,
		ledger:       ledger,
		lock:         lock,
		transport:    transport,
		publisher:    publisher,
		campaignRepo: campaignRepo,
		paymentRepo:  paymentRepo,
		userRepo:     userRepo,
	}
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func sendRequest(t *testing.T, userID uint, addresses ...string) *dto.SendCampaignRequest {
	return &dto.SendCampaignRequest{
		UserID:     userID,
		Recipients: rawJSON(t, addresses),
		FromEmail:  "news@acme.test",
		FromName:   "Acme",
		Subject:    "Spring Launch",
		CanvasData: json.RawMessage(`[{"type":"heading","content":"Hello"},{"type":"paragraph","content":"Line one\nLine two"}]`),
	}
}

func countCampaigns(t *testing.T, repo repository.CampaignRepository, userID uint) int64 {
	t.Helper()
	n, err := repo.Count(context.Background(), models.CampaignFilter{UserID: &userID})
	require.NoError(t, err)
	return n
}

func TestCampaignFlowSend(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		h := newCampaignHarness(testDB, nil)
		ctx := context.Background()

		t.Run("PartialFailureDeductsEveryAttempt", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(2)
			require.NoError(t, err)
			payment, err := fixtures.CreateTestPayment(user.ID, models.PaymentStatusSucceeded, 3, 0, 3)
			require.NoError(t, err)

			h.transport.Reject["c@x.test"] = &services.TransportError{StatusCode: 403, Message: "Mailbox unavailable"}
			defer delete(h.transport.Reject, "c@x.test")
			callsBefore := h.transport.Calls()

			resp, err := h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "a@x.test", "b@x.test", "c@x.test", "d@x.test"), nil)
			require.NoError(t, err)
			require.NotNil(t, resp)

			assert.True(t, resp.Success)
			assert.Equal(t, "Sent: 3, Failed: 1", resp.Message)
			require.NotNil(t, resp.Results)
			assert.Len(t, resp.Results.Success, 3)
			require.Len(t, resp.Results.Failed, 1)
			assert.Equal(t, "c@x.test", resp.Results.Failed[0].Email)
			assert.Equal(t, "Mailbox unavailable", resp.Results.Failed[0].Error)
			require.NotNil(t, resp.CreditsUsed)
			assert.Equal(t, 4, *resp.CreditsUsed)
			require.NotNil(t, resp.CreditsRemaining)
			assert.Equal(t, 1, *resp.CreditsRemaining)
			assert.Equal(t, 4, h.transport.Calls()-callsBefore)

			storedPayment, err := h.paymentRepo.ByID(ctx, payment.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, storedPayment.EmailSendCredits)

			storedUser, err := h.userRepo.ByID(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, storedUser.EmailLimit)

			campaign, err := h.campaignRepo.ByIDAndUser(ctx, resp.CampaignID, user.ID)
			require.NoError(t, err)
			require.NotNil(t, campaign)
			assert.Equal(t, models.CampaignStatusFailed, campaign.Status)
			assert.Equal(t, 3, campaign.SentCount)
			require.Len(t, campaign.Logs, 1)
			assert.Equal(t, "Campaign sent: 3 success, 1 failed", campaign.Logs[0].Message)
			require.NotNil(t, campaign.Logs[0].Error)
			assert.Equal(t, "1 emails failed", *campaign.Logs[0].Error)
		})

		t.Run("AllDeliveredMarksSent", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(5)
			require.NoError(t, err)

			resp, err := h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "a@x.test", "b@x.test"), nil)
			require.NoError(t, err)
			assert.Equal(t, "Sent: 2, Failed: 0", resp.Message)
			assert.Equal(t, 3, *resp.CreditsRemaining)

			campaign, err := h.campaignRepo.ByIDAndUser(ctx, resp.CampaignID, user.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusSent, campaign.Status)
			assert.Equal(t, 2, campaign.SentCount)
			assert.Equal(t, "Spring Launch", campaign.Name)
			assert.JSONEq(t, `["a@x.test","b@x.test"]`, campaign.RecipientsJSON)
		})

		t.Run("RenderedContentReachesTransport", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(1)
			require.NoError(t, err)
			before := h.transport.Calls()

			_, err = h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "render@x.test"), nil)
			require.NoError(t, err)

			require.Equal(t, before+1, h.transport.Calls())
			sent := h.transport.Sent[before]
			assert.Equal(t, "render@x.test", sent.ToEmail)
			assert.Equal(t, "Spring Launch", sent.Subject)
			assert.Contains(t, sent.HTML, "Hello")
			assert.Contains(t, sent.HTML, ">Line one</p>")
			assert.Contains(t, sent.HTML, ">Line two</p>")
			assert.Contains(t, sent.Text, "Sent by Acme")
		})

		t.Run("InsufficientCreditsCreatesNothing", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(1)
			require.NoError(t, err)
			before := h.transport.Calls()

			resp, err := h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "a@x.test", "b@x.test", "c@x.test"), nil)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, businessflow.IsInsufficientCredits(err))

			cle, ok := businessflow.AsCreditLimitError(err)
			require.True(t, ok)
			assert.Equal(t, 1, cle.Available)
			assert.Equal(t, 3, cle.Required)

			assert.Equal(t, before, h.transport.Calls())
			assert.Zero(t, countCampaigns(t, h.campaignRepo, user.ID))
		})

		t.Run("ValidationErrors", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(10)
			require.NoError(t, err)

			noRecipients := sendRequest(t, user.ID)
			noSender := sendRequest(t, user.ID, "a@x.test")
			noSender.FromName = "  "
			badType := sendRequest(t, user.ID, "a@x.test")
			badType.ScheduleType = "hourly"
			badCanvas := sendRequest(t, user.ID, "a@x.test")
			badCanvas.CanvasData = json.RawMessage(`{"type":"heading"}`)

			for name, req := range map[string]*dto.SendCampaignRequest{
				"NoRecipients": noRecipients,
				"NoSender":     noSender,
				"BadType":      badType,
				"BadCanvas":    badCanvas,
			} {
				t.Run(name, func(t *testing.T) {
					_, err := h.flow.SendCampaign(ctx, req, nil)
					require.Error(t, err)
					assert.True(t, businessflow.IsCampaignValidationError(err))
				})
			}
			assert.Zero(t, countCampaigns(t, h.campaignRepo, user.ID))
		})

		t.Run("TransportNotConfigured", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(3)
			require.NoError(t, err)

			h.transport.Disabled = true
			defer func() { h.transport.Disabled = false }()

			_, err = h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "a@x.test"), nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsTransportNotConfigured(err))
			assert.Zero(t, countCampaigns(t, h.campaignRepo, user.ID))
		})

		t.Run("ConcurrentSendRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(3)
			require.NoError(t, err)

			release, err := h.lock.Acquire(ctx, user.ID)
			require.NoError(t, err)

			_, err = h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "a@x.test"), nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignSendInProgress(err))

			release()
			_, err = h.flow.SendCampaign(ctx, sendRequest(t, user.ID, "a@x.test"), nil)
			require.NoError(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignFlowSchedule(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		now := time.Date(2029, time.March, 10, 12, 0, 0, 0, time.UTC)
		h := newCampaignHarness(testDB, func() time.Time { return now })
		ctx := context.Background()

		t.Run("PastTimeRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(5)
			require.NoError(t, err)

			req := sendRequest(t, user.ID, "a@x.test")
			req.ScheduleType = "scheduled"
			req.ScheduledDate = "2029-03-10"
			req.ScheduledTime = "11:59"

			_, err = h.flow.SendCampaign(ctx, req, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignValidationError(err))
			assert.Zero(t, countCampaigns(t, h.campaignRepo, user.ID))
		})

		t.Run("MissingTimeRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(5)
			require.NoError(t, err)

			req := sendRequest(t, user.ID, "a@x.test")
			req.ScheduleType = "scheduled"
			req.ScheduledDate = "2029-03-11"

			_, err = h.flow.SendCampaign(ctx, req, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignValidationError(err))
		})

		t.Run("FutureTimeDefersDelivery", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(5)
			require.NoError(t, err)
			before := h.transport.Calls()

			req := sendRequest(t, user.ID, "a@x.test", "b@x.test")
			req.ScheduleType = "scheduled"
			req.ScheduledDate = "2029-03-20"
			req.ScheduledTime = "09:30"
			req.Timezone = "America/New_York"

			resp, err := h.flow.SendCampaign(ctx, req, nil)
			require.NoError(t, err)
			assert.Equal(t, "Campaign scheduled for 2029-03-20 at 09:30.", resp.Message)
			assert.Nil(t, resp.Results)
			assert.Nil(t, resp.CreditsUsed)
			require.NotNil(t, resp.ScheduledAt)
			assert.Equal(t, time.Date(2029, time.March, 20, 13, 30, 0, 0, time.UTC), resp.ScheduledAt.UTC())

			assert.Equal(t, before, h.transport.Calls())

			available, err := h.ledger.ComputeAvailable(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, available)

			campaign, err := h.campaignRepo.ByIDAndUser(ctx, resp.CampaignID, user.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusScheduled, campaign.Status)
			assert.Zero(t, campaign.SentCount)
			require.NotNil(t, campaign.Timezone)
			assert.Equal(t, "America/New_York", *campaign.Timezone)
			require.Len(t, campaign.Logs, 1)
			assert.Equal(t, models.AutomationLogStatusScheduled, campaign.Logs[0].Status)

			events := h.publisher.Published()
			require.NotEmpty(t, events)
			last := events[len(events)-1]
			assert.Equal(t, services.EventCampaignScheduled, last.Event)
			assert.Equal(t, campaign.ID, last.CampaignID)
		})

		t.Run("RecurringStoresCadence", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(5)
			require.NoError(t, err)
			before := h.transport.Calls()

			req := sendRequest(t, user.ID, "a@x.test")
			req.ScheduleType = "recurring"
			req.RecurringFrequency = "weekly"
			req.RecurringDays = []string{"mon", "thu"}
			req.RecurringEndDate = "2029-06-30"

			resp, err := h.flow.SendCampaign(ctx, req, nil)
			require.NoError(t, err)
			assert.Equal(t, "Recurring campaign created (weekly).", resp.Message)
			assert.Equal(t, before, h.transport.Calls())

			campaign, err := h.campaignRepo.ByIDAndUser(ctx, resp.CampaignID, user.ID)
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusScheduled, campaign.Status)
			assert.Equal(t, []string{"mon", "thu"}, []string(campaign.RecurringDays))
			require.NotNil(t, campaign.RecurringFrequency)
			assert.Equal(t, "weekly", *campaign.RecurringFrequency)
			require.NotNil(t, campaign.RecurringEndDate)
			assert.Equal(t, "2029-06-30", campaign.RecurringEndDate.UTC().Format("2006-01-02"))
		})

		t.Run("RecurringBadEndDateRejected", func(t *testing.T) {
			user, err := fixtures.CreateTestUser(5)
			require.NoError(t, err)

			req := sendRequest(t, user.ID, "a@x.test")
			req.ScheduleType = "recurring"
			req.RecurringFrequency = "daily"
			req.RecurringEndDate = "next summer"

			_, err = h.flow.SendCampaign(ctx, req, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignValidationError(err))
			assert.Zero(t, countCampaigns(t, h.campaignRepo, user.ID))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCampaignFlowQueries(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		h := newCampaignHarness(testDB, nil)
		ctx := context.Background()

		owner, err := fixtures.CreateTestUser(0)
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser(0)
		require.NoError(t, err)

		first, err := fixtures.CreateTestCampaign(owner.ID, models.CampaignStatusSent)
		require.NoError(t, err)
		second, err := fixtures.CreateTestCampaign(owner.ID, models.CampaignStatusScheduled)
		require.NoError(t, err)

		t.Run("GetCredits", func(t *testing.T) {
			_, err := fixtures.CreateTestPayment(owner.ID, models.PaymentStatusSucceeded, 12, 4, 1)
			require.NoError(t, err)

			resp, err := h.flow.GetCredits(ctx, owner.ID)
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, 12, resp.EmailSendCredits)
			assert.Equal(t, 4, resp.EmailVerificationCredits)
			assert.Equal(t, utils.PlanBasedOnPayments, resp.Plan)
		})

		t.Run("ListNewestFirst", func(t *testing.T) {
			list, err := h.flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{UserID: owner.ID})
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second.ID, list[0].ID)
			assert.Equal(t, first.ID, list[1].ID)

			none, err := h.flow.ListCampaigns(ctx, &dto.ListCampaignsRequest{UserID: stranger.ID})
			require.NoError(t, err)
			assert.Empty(t, none)
		})

		t.Run("GetOwnedOnly", func(t *testing.T) {
			got, err := h.flow.GetCampaign(ctx, owner.ID, first.ID)
			require.NoError(t, err)
			assert.Equal(t, first.UUID.String(), got.UUID)

			_, err = h.flow.GetCampaign(ctx, stranger.ID, first.ID)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("DeleteOwnedOnly", func(t *testing.T) {
			_, err := h.flow.DeleteCampaign(ctx, stranger.ID, second.ID, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsCampaignNotFound(err))

			resp, err := h.flow.DeleteCampaign(ctx, owner.ID, second.ID, nil)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Message)

			_, err = h.flow.GetCampaign(ctx, owner.ID, second.ID)
			assert.True(t, businessflow.IsCampaignNotFound(err))
		})

		t.Run("VerifySenderEmail", func(t *testing.T) {
			h.transport.Verified["news@acme.test"] = true

			ok, err := h.flow.VerifySenderEmail(ctx, &dto.VerifyEmailRequest{Email: "news@acme.test"})
			require.NoError(t, err)
			assert.True(t, ok.Verified)
			assert.Equal(t, "Email is verified and ready to send campaigns", ok.Message)

			no, err := h.flow.VerifySenderEmail(ctx, &dto.VerifyEmailRequest{Email: "other@acme.test"})
			require.NoError(t, err)
			assert.False(t, no.Verified)

			_, err = h.flow.VerifySenderEmail(ctx, &dto.VerifyEmailRequest{Email: ""})
			assert.True(t, businessflow.IsVerifyEmailValidationError(err))

			_, err = h.flow.VerifySenderEmail(ctx, &dto.VerifyEmailRequest{Email: "not-an-email"})
			assert.True(t, businessflow.IsVerifyEmailValidationError(err))
		})

		return nil
	})
	require.NoError(t, err)
}
