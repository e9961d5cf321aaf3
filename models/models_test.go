package models_test

import (
	"testing"

	"github.com/amirphl/Orochi-CRM/models"
	testingutil "github.com/amirphl/Orochi-CRM/testing"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to models.CampaignStatus
		allowed  bool
	}{
		{models.CampaignStatusProcessing, models.CampaignStatusSent, true},
		{models.CampaignStatusProcessing, models.CampaignStatusFailed, true},
		{models.CampaignStatusScheduled, models.CampaignStatusProcessing, true},
		{models.CampaignStatusScheduled, models.CampaignStatusSent, false},
		{models.CampaignStatusSent, models.CampaignStatusProcessing, false},
		{models.CampaignStatusFailed, models.CampaignStatusSent, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, models.CampaignStatusSent.IsTerminal())
	assert.True(t, models.CampaignStatusFailed.IsTerminal())
	assert.False(t, models.CampaignStatusScheduled.IsTerminal())
	assert.False(t, models.CampaignStatus("queued").Valid())
}

func TestScheduleType(t *testing.T) {
	assert.True(t, models.ScheduleTypeRecurring.Valid())
	assert.False(t, models.ScheduleType("weekly").Valid())
	assert.Equal(t, models.CampaignStatusProcessing, models.ScheduleTypeImmediate.InitialStatus())
	assert.Equal(t, models.CampaignStatusScheduled, models.ScheduleTypeScheduled.InitialStatus())
	assert.Equal(t, models.CampaignStatusScheduled, models.ScheduleTypeRecurring.InitialStatus())
}

func TestParseCanvas(t *testing.T) {
	t.Run("TypedBlocksInOrder", func(t *testing.T) {
		payload := `[
			{"id":"1","type":"heading","content":"Hello","fontSize":32,"color":"#111"},
			{"type":"paragraph","content":"one\ntwo"},
			{"type":"video","content":"ignored"},
			{"type":"button","content":"Buy","link":"https://acme.test","fontSize":"18"},
			{"type":"line","strokeWidth":2},
			{"type":"image","src":"https://acme.test/a.png"}
		]`

		blocks, err := models.ParseCanvas([]byte(payload))
		require.NoError(t, err)
		require.Len(t, blocks, 6)

		assert.Equal(t, models.HeadingBlock{Content: "Hello", FontSize: 32, Color: "#111"}, blocks[0])
		assert.Equal(t, models.ParagraphBlock{Content: "one\ntwo"}, blocks[1])
		assert.Equal(t, models.UnknownBlock{Kind: "video"}, blocks[2])
		assert.Equal(t, models.ButtonBlock{Content: "Buy", Link: "https://acme.test", FontSize: 18}, blocks[3])
		assert.Equal(t, models.LineBlock{StrokeWidth: 2}, blocks[4])
		assert.Equal(t, models.BlockTypeImage, blocks[5].Type())
	})

	t.Run("OnlyUnknownTypes", func(t *testing.T) {
		blocks, err := models.ParseCanvas([]byte(`[{"type":"spacer"},{"type":"video"}]`))
		require.NoError(t, err)
		assert.Equal(t, []models.Block{models.UnknownBlock{Kind: "spacer"}, models.UnknownBlock{Kind: "video"}}, blocks)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		for _, payload := range []string{"", "null", "[]"} {
			blocks, err := models.ParseCanvas([]byte(payload))
			require.NoError(t, err)
			assert.Empty(t, blocks)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := models.ParseCanvas([]byte(`{"type":"heading"}`))
		assert.Error(t, err)
	})
}

func TestParseRecipients(t *testing.T) {
	recipients, err := models.ParseRecipients([]byte(`["a@example.com", {"email":"b@example.com","name":"B"}, {"name":"no address"}, 42]`))
	require.NoError(t, err)
	require.Len(t, recipients, 4)

	assert.Equal(t, "a@example.com", recipients[0].Address())
	assert.Equal(t, "b@example.com", recipients[1].Address())
	assert.Equal(t, "B", recipients[1].Name)
	assert.Empty(t, recipients[2].Address())
	assert.Empty(t, recipients[3].Address())
}

func TestModelHooks(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		user, err := fixtures.CreateTestUser(2)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.UUID)
		assert.True(t, utils.IsTrue(user.IsActive))

		t.Run("CampaignDefaultsStatusFromScheduleType", func(t *testing.T) {
			campaign := &models.Campaign{
				UserID:         user.ID,
				Name:           "Later",
				Subject:        "Later",
				FromName:       "Acme",
				FromEmail:      "news@acme.test",
				ScheduleType:   models.ScheduleTypeRecurring,
				DesignJSON:     "[]",
				RecipientsJSON: "[]",
				RecurringDays:  models.StringArray{"mon", "fri"},
			}
			require.NoError(t, testDB.DB.Create(campaign).Error)
			assert.Equal(t, models.CampaignStatusScheduled, campaign.Status)

			var loaded models.Campaign
			require.NoError(t, testDB.DB.First(&loaded, campaign.ID).Error)
			assert.Equal(t, models.StringArray{"mon", "fri"}, loaded.RecurringDays)
		})

		t.Run("AutomationLogIsAppendOnly", func(t *testing.T) {
			campaign, err := fixtures.CreateTestCampaign(user.ID, models.CampaignStatusSent)
			require.NoError(t, err)

			entry := &models.AutomationLog{
				UserID:       user.ID,
				CampaignID:   campaign.ID,
				CampaignName: campaign.Name,
				Status:       models.AutomationLogStatusSent,
				Message:      "Campaign sent: 1 success, 0 failed",
			}
			require.NoError(t, testDB.DB.Create(entry).Error)
			assert.False(t, entry.CreatedAt.IsZero())

			entry.Message = "rewritten"
			err = testDB.DB.Save(entry).Error
			assert.ErrorIs(t, err, models.ErrAutomationLogImmutable)

			var stored models.AutomationLog
			require.NoError(t, testDB.DB.First(&stored, entry.ID).Error)
			assert.Equal(t, "Campaign sent: 1 success, 0 failed", stored.Message)
		})

		t.Run("SessionValidity", func(t *testing.T) {
			session := &models.UserSession{UserID: user.ID, ExpiresAt: utils.UTCNowAdd(utils.RefreshTokenTTL)}
			require.NoError(t, testDB.DB.Create(session).Error)
			assert.True(t, session.IsValid())

			session.IsActive = utils.ToPtr(false)
			assert.False(t, session.IsValid())
		})

		return nil
	})
	require.NoError(t, err)
}
