package businessflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/Orochi-CRM/app/services"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipients(addresses ...string) []models.Recipient {
	out := make([]models.Recipient, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, models.Recipient{Email: a})
	}
	return out
}

func noSleep(context.Context, time.Duration) {}

var testContent = businessflow.CampaignContent{
	Subject:   "Hello",
	FromName:  "Acme",
	FromEmail: "news@acme.test",
	HTML:      "<p>hi</p>",
	Text:      "hi",
}

func TestCampaignDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("CeilingBoundsAttempts", func(t *testing.T) {
		transport := services.NewMockMailTransport()
		dispatcher := businessflow.NewCampaignDispatcher(transport, 0).WithSleep(noSleep)

		result := dispatcher.Send(ctx, recipients("a@x.test", "b@x.test", "c@x.test", "d@x.test", "e@x.test"), testContent, 3)

		assert.Equal(t, 3, result.Attempts)
		assert.Equal(t, 3, transport.Calls())
		require.Len(t, result.Success, 3)
		require.Len(t, result.Failed, 2)
		assert.Equal(t, "d@x.test", result.Failed[0].Email)
		assert.Equal(t, "e@x.test", result.Failed[1].Email)
		for _, f := range result.Failed {
			assert.Equal(t, utils.CreditLimitReachedMessage, f.Error)
		}
	})

	t.Run("ZeroCeilingSendsNothing", func(t *testing.T) {
		transport := services.NewMockMailTransport()
		dispatcher := businessflow.NewCampaignDispatcher(transport, 0).WithSleep(noSleep)

		result := dispatcher.Send(ctx, recipients("a@x.test", "b@x.test"), testContent, 0)

		assert.Zero(t, result.Attempts)
		assert.Zero(t, transport.Calls())
		assert.Empty(t, result.Success)
		assert.Len(t, result.Failed, 2)
	})

	t.Run("TransportFailureDoesNotAbort", func(t *testing.T) {
		transport := services.NewMockMailTransport()
		transport.Reject["b@x.test"] = &services.TransportError{StatusCode: 400, Message: "The from address does not match a verified Sender Identity"}
		transport.Reject["c@x.test"] = errors.New("connection reset")
		dispatcher := businessflow.NewCampaignDispatcher(transport, 0).WithSleep(noSleep)

		result := dispatcher.Send(ctx, recipients("a@x.test", "b@x.test", "c@x.test", "d@x.test"), testContent, 10)

		assert.Equal(t, 4, result.Attempts)
		require.Len(t, result.Success, 2)
		assert.Equal(t, "a@x.test", result.Success[0].Email)
		assert.Equal(t, "d@x.test", result.Success[1].Email)
		require.Len(t, result.Failed, 2)
		assert.Equal(t, "The from address does not match a verified Sender Identity", result.Failed[0].Error)
		assert.Equal(t, "connection reset", result.Failed[1].Error)
	})

	t.Run("SkipsRecipientsWithoutAddress", func(t *testing.T) {
		transport := services.NewMockMailTransport()
		dispatcher := businessflow.NewCampaignDispatcher(transport, 0).WithSleep(noSleep)

		list := []models.Recipient{{Email: "a@x.test"}, {Name: "No Address"}, {Email: "   "}, {Email: "b@x.test", Name: "Bee"}}
		result := dispatcher.Send(ctx, list, testContent, 10)

		assert.Equal(t, 2, result.Attempts)
		assert.Len(t, result.Success, 2)
		assert.Empty(t, result.Failed)
		require.Len(t, transport.Sent, 2)
		assert.Equal(t, "Bee", transport.Sent[1].ToName)
		assert.Equal(t, testContent.HTML, transport.Sent[1].HTML)
		assert.Equal(t, testContent.Text, transport.Sent[1].Text)
	})

	t.Run("PausesAfterEveryAttempt", func(t *testing.T) {
		transport := services.NewMockMailTransport()
		var pauses []time.Duration
		dispatcher := businessflow.NewCampaignDispatcher(transport, 50*time.Millisecond).
			WithSleep(func(_ context.Context, d time.Duration) { pauses = append(pauses, d) })

		dispatcher.Send(ctx, recipients("a@x.test", "b@x.test", "c@x.test"), testContent, 2)

		assert.Equal(t, []time.Duration{50 * time.Millisecond, 50 * time.Millisecond}, pauses)
	})
}
