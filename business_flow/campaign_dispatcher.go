package businessflow

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/utils"
)

// CampaignContent is the rendered message shared by every recipient
type CampaignContent struct {
	Subject   string
	FromName  string
	FromEmail string
	HTML      string
	Text      string
}

// DispatchResult holds ordered per-recipient outcomes
type DispatchResult struct {
	Success  []dto.RecipientSuccess
	Failed   []dto.RecipientFailure
	Attempts int
}

// CampaignDispatcher sends one campaign to its recipients
type CampaignDispatcher interface {
	// Send attempts recipients in order, never more than ceiling times
	Send(ctx context.Context, recipients []models.Recipient, content CampaignContent, ceiling int) *DispatchResult
}

// CampaignDispatcherImpl sends sequentially with a fixed pause after every attempt
type CampaignDispatcherImpl struct {
	transport services.MailTransport
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration)
}

// NewCampaignDispatcher creates a dispatcher; a non-positive delay falls back to the default
func NewCampaignDispatcher(transport services.MailTransport, delay time.Duration) *CampaignDispatcherImpl {
	if delay <= 0 {
		delay = utils.CampaignSendDelay
	}
	return &CampaignDispatcherImpl{
		transport: transport,
		delay:     delay,
		sleep:     sleepContext,
	}
}

// WithSleep replaces the pause between attempts
func (d *CampaignDispatcherImpl) WithSleep(sleep func(ctx context.Context, d time.Duration)) *CampaignDispatcherImpl {
	d.sleep = sleep
	return d
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (d *CampaignDispatcherImpl) Send(ctx context.Context, recipients []models.Recipient, content CampaignContent, ceiling int) *DispatchResult {
	result := &DispatchResult{
		Success: make([]dto.RecipientSuccess, 0, len(recipients)),
		Failed:  make([]dto.RecipientFailure, 0),
	}

	for _, r := range recipients {
		address := r.Address()
		if address == "" {
			continue
		}

		if result.Attempts >= ceiling {
			result.Failed = append(result.Failed, dto.RecipientFailure{Email: address, Error: utils.CreditLimitReachedMessage})
			campaignEmailsTotal.WithLabelValues(dispatchResultCreditLimit).Inc()
			continue
		}

		result.Attempts++
		err := d.transport.Send(ctx, services.OutboundEmail{
			FromEmail: content.FromEmail,
			FromName:  content.FromName,
			ToEmail:   address,
			ToName:    r.Name,
			Subject:   content.Subject,
			HTML:      content.HTML,
			Text:      content.Text,
		})
		if err != nil {
			msg := transportErrorMessage(err)
			log.Printf("Failed to send campaign email to %s: %s", address, msg)
			result.Failed = append(result.Failed, dto.RecipientFailure{Email: address, Error: msg})
			campaignEmailsTotal.WithLabelValues(dispatchResultFailed).Inc()
		} else {
			result.Success = append(result.Success, dto.RecipientSuccess{Email: address})
			campaignEmailsTotal.WithLabelValues(dispatchResultSuccess).Inc()
		}

		d.sleep(ctx, d.delay)
	}

	return result
}

func transportErrorMessage(err error) string {
	var te *services.TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
