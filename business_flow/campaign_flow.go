// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	"github.com/amirphl/Orochi-CRM/utils"
)

var senderEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CampaignFlow handles the campaign business logic
type CampaignFlow interface {
	SendCampaign(ctx context.Context, req *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendCampaignResponse, error)
	GetCredits(ctx context.Context, userID uint) (*dto.CreditsResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) ([]dto.CampaignResponse, error)
	GetCampaign(ctx context.Context, userID, campaignID uint) (*dto.CampaignResponse, error)
	DeleteCampaign(ctx context.Context, userID, campaignID uint, metadata *ClientMetadata) (*dto.DeleteCampaignResponse, error)
	VerifySenderEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*dto.VerifyEmailResponse, error)
}

// CampaignFlowConfig tunes the send path
type CampaignFlowConfig struct {
	// SendTimeout bounds an immediate send once it has started; it is detached from the request
	SendTimeout time.Duration
	Now         func() time.Time
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	campaignRepo repository.CampaignRepository
	logRepo      repository.AutomationLogRepository
	auditRepo    repository.AuditLogRepository
	ledger       CreditLedger
	renderer     services.CampaignRenderer
	dispatcher   CampaignDispatcher
	transport    services.MailTransport
	verifier     services.SenderVerifier
	publisher    services.EventPublisher
	lock         SendLock
	cfg          CampaignFlowConfig
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	logRepo repository.AutomationLogRepository,
	auditRepo repository.AuditLogRepository,
	ledger CreditLedger,
	renderer services.CampaignRenderer,
	dispatcher CampaignDispatcher,
	transport services.MailTransport,
	verifier services.SenderVerifier,
	publisher services.EventPublisher,
	lock SendLock,
	cfg CampaignFlowConfig,
) CampaignFlow {
	if cfg.Now == nil {
		cfg.Now = utils.UTCNow
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Minute
	}
	if lock == nil {
		lock = NewLocalSendLock()
	}
	if publisher == nil {
		publisher = services.NewNoopPublisher()
	}

	return &CampaignFlowImpl{
		campaignRepo: campaignRepo,
		logRepo:      logRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		renderer:     renderer,
		dispatcher:   dispatcher,
		transport:    transport,
		verifier:     verifier,
		publisher:    publisher,
		lock:         lock,
		cfg:          cfg,
	}
}

// sendPlan is a validated send request
type sendPlan struct {
	userID       uint
	subject      string
	fromName     string
	fromEmail    string
	scheduleType models.ScheduleType
	recipients   []models.Recipient
	blocks       []models.Block
	designJSON   string
	location     *time.Location
}

// SendCampaign validates, checks credits, then either persists a deferred campaign or sends it now
func (s *CampaignFlowImpl) SendCampaign(ctx context.Context, req *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendCampaignResponse, error) {
	plan, err := s.validateSendRequest(req)
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, plan.userID)
	if err != nil {
		if IsCampaignSendInProgress(err) {
			return nil, NewBusinessError("CAMPAIGN_SEND_IN_PROGRESS", "Another campaign send is already in progress for this account", err)
		}
		return nil, err
	}
	defer release()

	available, err := s.ledger.ComputeAvailable(ctx, plan.userID)
	if err != nil {
		return nil, NewBusinessError("CREDITS_LOOKUP_FAILED", "Failed to fetch credits", err)
	}

	required := len(plan.recipients)
	if available < required {
		cle := &CreditLimitError{Available: available, Required: required}
		return nil, NewBusinessError("INSUFFICIENT_CREDITS", cle.Error(), cle)
	}

	if s.transport == nil || !s.transport.Configured() {
		return nil, NewBusinessError("MAIL_TRANSPORT_NOT_CONFIGURED", "SendGrid API key not configured", ErrTransportNotConfigured)
	}

	scheduledAt, err := s.resolveSchedule(req, plan)
	if err != nil {
		return nil, err
	}

	var recurringEnd *time.Time
	if plan.scheduleType == models.ScheduleTypeRecurring {
		if recurringEnd, err = parseRecurringEndDate(req.RecurringEndDate, plan.location); err != nil {
			return nil, err
		}
	}

	campaign, err := s.createCampaign(ctx, req, plan, scheduledAt, recurringEnd)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATION_FAILED", "Failed to process campaign", err)
	}
	campaignsCreatedTotal.WithLabelValues(plan.scheduleType.String()).Inc()

	if plan.scheduleType.IsDeferred() {
		return s.finishDeferred(ctx, req, plan, campaign, metadata)
	}

	return s.sendNow(ctx, plan, campaign, available, metadata)
}

func (s *CampaignFlowImpl) validateSendRequest(req *dto.SendCampaignRequest) (*sendPlan, error) {
	recipients, err := models.ParseRecipients(req.Recipients)
	if err != nil || len(recipients) == 0 {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "No recipients specified", ErrNoRecipients)
	}

	fromEmail := strings.TrimSpace(req.FromEmail)
	fromName := strings.TrimSpace(req.FromName)
	if fromEmail == "" || fromName == "" {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Missing sender fields (fromEmail/fromName)", ErrMissingSenderFields)
	}

	scheduleType := models.ScheduleType(strings.TrimSpace(req.ScheduleType))
	if scheduleType == "" {
		scheduleType = models.ScheduleTypeImmediate
	}
	if !scheduleType.Valid() {
		return nil, NewBusinessErrorf("CAMPAIGN_VALIDATION_FAILED", "Invalid schedule type: %s", ErrInvalidScheduleType, req.ScheduleType)
	}

	blocks, err := models.ParseCanvas(req.CanvasData)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Invalid canvas data", fmt.Errorf("%w: %v", ErrInvalidCanvas, err))
	}

	designJSON := "[]"
	if raw := strings.TrimSpace(string(req.CanvasData)); raw != "" && raw != "null" {
		designJSON = raw
	}

	return &sendPlan{
		userID:       req.UserID,
		subject:      utils.FirstNonEmpty(strings.TrimSpace(req.Subject), utils.DefaultCampaignSubject),
		fromName:     fromName,
		fromEmail:    fromEmail,
		scheduleType: scheduleType,
		recipients:   recipients,
		blocks:       blocks,
		designJSON:   designJSON,
		location:     utils.LoadLocationOrUTC(req.Timezone),
	}, nil
}

// resolveSchedule parses scheduledDate + scheduledTime in the request's zone
func (s *CampaignFlowImpl) resolveSchedule(req *dto.SendCampaignRequest, plan *sendPlan) (*time.Time, error) {
	if !plan.scheduleType.IsDeferred() {
		return nil, nil
	}

	date := strings.TrimSpace(req.ScheduledDate)
	clock := strings.TrimSpace(req.ScheduledTime)
	if date == "" || clock == "" {
		if plan.scheduleType == models.ScheduleTypeScheduled {
			return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Scheduled date and time are required", ErrScheduleTimeNotPresent)
		}
		return nil, nil
	}

	if strings.Count(clock, ":") == 1 {
		clock += ":00"
	}
	at, err := time.ParseInLocation("2006-01-02T15:04:05", date+"T"+clock, plan.location)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Invalid scheduled date or time", fmt.Errorf("%w: %v", ErrScheduleTimeInvalid, err))
	}

	if !at.After(s.cfg.Now()) {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Scheduled time must be in the future (at least 5 minutes from now)", ErrScheduleTimeInPast)
	}

	utc := at.UTC()
	return &utc, nil
}

func parseRecurringEndDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return utils.TimeToUTCPtr(&t), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Invalid recurring end date", fmt.Errorf("%w: %v", ErrScheduleTimeInvalid, err))
	}
	return utils.TimeToUTCPtr(&t), nil
}

func (s *CampaignFlowImpl) createCampaign(ctx context.Context, req *dto.SendCampaignRequest, plan *sendPlan, scheduledAt, recurringEnd *time.Time) (*models.Campaign, error) {
	campaign := &models.Campaign{
		UserID:         plan.userID,
		Name:           plan.subject,
		Subject:        plan.subject,
		FromName:       plan.fromName,
		FromEmail:      plan.fromEmail,
		ScheduleType:   plan.scheduleType,
		Status:         plan.scheduleType.InitialStatus(),
		DesignJSON:     plan.designJSON,
		RecipientsJSON: strings.TrimSpace(string(req.Recipients)),
		ScheduledAt:    scheduledAt,
	}

	if plan.scheduleType.IsDeferred() && strings.TrimSpace(req.Timezone) != "" {
		campaign.Timezone = utils.ToPtr(plan.location.String())
	}

	if plan.scheduleType == models.ScheduleTypeRecurring {
		if f := strings.TrimSpace(req.RecurringFrequency); f != "" {
			campaign.RecurringFrequency = &f
		}
		days := req.RecurringDays
		if days == nil {
			days = []string{}
		}
		campaign.RecurringDays = models.StringArray(days)
		campaign.RecurringEndDate = recurringEnd
	}

	if err := s.campaignRepo.Save(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignFlowImpl) appendLog(ctx context.Context, campaign *models.Campaign, status, message string, errMsg *string) error {
	return s.logRepo.Save(ctx, &models.AutomationLog{
		UserID:       campaign.UserID,
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Status:       status,
		Message:      message,
		Error:        errMsg,
	})
}

func (s *CampaignFlowImpl) finishDeferred(ctx context.Context, req *dto.SendCampaignRequest, plan *sendPlan, campaign *models.Campaign, metadata *ClientMetadata) (*dto.SendCampaignResponse, error) {
	frequency := strings.TrimSpace(req.RecurringFrequency)

	var logMsg, respMsg string
	if plan.scheduleType == models.ScheduleTypeScheduled {
		local := campaign.ScheduledAt.In(plan.location)
		logMsg = fmt.Sprintf("Campaign scheduled for %s", local.Format("2006-01-02 15:04 MST"))
		respMsg = fmt.Sprintf("Campaign scheduled for %s at %s.", strings.TrimSpace(req.ScheduledDate), strings.TrimSpace(req.ScheduledTime))
	} else {
		logMsg = fmt.Sprintf("Recurring campaign created (%s)", frequency)
		respMsg = fmt.Sprintf("Recurring campaign created (%s).", frequency)
	}

	if err := s.appendLog(ctx, campaign, models.AutomationLogStatusScheduled, logMsg, nil); err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOG_FAILED", "Failed to process campaign", err)
	}

	event := services.CampaignScheduledEvent{
		Event:              services.EventCampaignScheduled,
		CampaignID:         campaign.ID,
		CampaignUUID:       campaign.UUID.String(),
		UserID:             campaign.UserID,
		ScheduleType:       campaign.ScheduleType.String(),
		ScheduledAt:        campaign.ScheduledAt,
		Timezone:           plan.location.String(),
		RecurringFrequency: frequency,
		RecurringDays:      []string(campaign.RecurringDays),
		OccurredAt:         s.cfg.Now(),
	}
	if err := s.publisher.PublishCampaignScheduled(ctx, event); err != nil {
		log.Printf("Failed to publish %s for campaign %d: %v", services.EventCampaignScheduled, campaign.ID, err)
	}

	_ = createAuditLog(ctx, s.auditRepo, &campaign.UserID, models.AuditActionCampaignScheduled, logMsg, true, nil, metadata)

	return &dto.SendCampaignResponse{
		Success:     true,
		Message:     respMsg,
		CampaignID:  campaign.ID,
		ScheduledAt: campaign.ScheduledAt,
	}, nil
}

func (s *CampaignFlowImpl) sendNow(ctx context.Context, plan *sendPlan, campaign *models.Campaign, available int, metadata *ClientMetadata) (*dto.SendCampaignResponse, error) {
	// The loop outlives a client disconnect; only SendTimeout stops it
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SendTimeout)
	defer cancel()

	content := CampaignContent{
		Subject:   plan.subject,
		FromName:  plan.fromName,
		FromEmail: plan.fromEmail,
		HTML:      s.renderer.RenderHTML(plan.blocks, plan.subject, plan.fromName, plan.fromEmail),
		Text:      s.renderer.RenderPlainText(plan.blocks, plan.subject, plan.fromName, plan.fromEmail),
	}

	log.Printf("Sending campaign %d to %d recipients", campaign.ID, len(plan.recipients))
	result := s.dispatcher.Send(sendCtx, plan.recipients, content, available)

	remaining, deductErr := s.ledger.Deduct(sendCtx, plan.userID, result.Attempts)
	if deductErr == nil {
		campaignCreditsDeductedTotal.Add(float64(result.Attempts))
		msg := fmt.Sprintf("Deducted %d credits for campaign %d", result.Attempts, campaign.ID)
		_ = createAuditLog(sendCtx, s.auditRepo, &plan.userID, models.AuditActionCreditsDeducted, msg, true, nil, metadata)
	}

	status := models.CampaignStatusSent
	logStatus := models.AutomationLogStatusSent
	if len(result.Failed) > 0 || deductErr != nil {
		status = models.CampaignStatusFailed
		logStatus = models.AutomationLogStatusFailed
	}

	finalized, err := s.campaignRepo.Finalize(sendCtx, campaign.ID, len(result.Success), status)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_FINALIZE_FAILED", "Failed to process campaign", err)
	}
	if !finalized {
		log.Printf("Campaign %d was not finalized: %v", campaign.ID, ErrCampaignAlreadyFinalized)
	}

	var errMsg *string
	if len(result.Failed) > 0 {
		errMsg = utils.ToPtr(fmt.Sprintf("%d emails failed", len(result.Failed)))
	}
	if deductErr != nil {
		errMsg = utils.ToPtr(fmt.Sprintf("credit deduction failed: %v", deductErr))
	}

	logMsg := fmt.Sprintf("Campaign sent: %d success, %d failed", len(result.Success), len(result.Failed))
	if err := s.appendLog(sendCtx, campaign, logStatus, logMsg, errMsg); err != nil {
		log.Printf("Failed to append log for campaign %d: %v", campaign.ID, err)
	}

	_ = createAuditLog(sendCtx, s.auditRepo, &plan.userID, models.AuditActionCampaignSent, logMsg, deductErr == nil, errMsg, metadata)

	if deductErr != nil {
		return nil, NewBusinessError("CREDITS_DEDUCTION_FAILED", "Failed to process campaign", deductErr)
	}

	log.Printf("Campaign %d finished: %d success, %d failed", campaign.ID, len(result.Success), len(result.Failed))

	return &dto.SendCampaignResponse{
		Success:    true,
		Message:    fmt.Sprintf("Sent: %d, Failed: %d", len(result.Success), len(result.Failed)),
		CampaignID: campaign.ID,
		Results: &dto.DispatchResults{
			Success: result.Success,
			Failed:  result.Failed,
		},
		CreditsUsed:      utils.ToPtr(result.Attempts),
		CreditsRemaining: utils.ToPtr(remaining),
	}, nil
}

// GetCredits returns the accumulated credits of succeeded payments
func (s *CampaignFlowImpl) GetCredits(ctx context.Context, userID uint) (*dto.CreditsResponse, error) {
	summary, err := s.ledger.Summary(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("CREDITS_LOOKUP_FAILED", "Failed to fetch credits", err)
	}

	return &dto.CreditsResponse{
		Success:                  true,
		EmailSendCredits:         summary.EmailSendCredits,
		EmailVerificationCredits: summary.EmailVerificationCredits,
		Plan:                     utils.PlanBasedOnPayments,
	}, nil
}

// ListCampaigns returns the caller's campaigns, newest first
func (s *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) ([]dto.CampaignResponse, error) {
	campaigns, err := s.campaignRepo.ListByUser(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to fetch campaigns", err)
	}

	resp := make([]dto.CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		resp = append(resp, ToCampaignResponse(*c))
	}
	return resp, nil
}

// GetCampaign returns one owned campaign with its logs
func (s *CampaignFlowImpl) GetCampaign(ctx context.Context, userID, campaignID uint) (*dto.CampaignResponse, error) {
	campaign, err := s.campaignRepo.ByIDAndUser(ctx, campaignID, userID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to fetch campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// DeleteCampaign removes one owned campaign
func (s *CampaignFlowImpl) DeleteCampaign(ctx context.Context, userID, campaignID uint, metadata *ClientMetadata) (*dto.DeleteCampaignResponse, error) {
	deleted, err := s.campaignRepo.DeleteByIDAndUser(ctx, campaignID, userID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_DELETE_FAILED", "Failed to delete campaign", err)
	}
	if !deleted {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	msg := fmt.Sprintf("Campaign deleted: %d", campaignID)
	_ = createAuditLog(ctx, s.auditRepo, &userID, models.AuditActionCampaignDeleted, msg, true, nil, metadata)

	return &dto.DeleteCampaignResponse{Message: "Campaign deleted successfully"}, nil
}

// VerifySenderEmail checks the address against the provider's verified senders
func (s *CampaignFlowImpl) VerifySenderEmail(ctx context.Context, req *dto.VerifyEmailRequest) (*dto.VerifyEmailResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, NewBusinessError("VERIFY_EMAIL_VALIDATION_FAILED", "Email address is required", ErrVerifyEmailRequired)
	}
	if !senderEmailPattern.MatchString(email) {
		return nil, NewBusinessError("VERIFY_EMAIL_VALIDATION_FAILED", "Invalid email format", ErrVerifyEmailInvalid)
	}
	if s.verifier == nil {
		return nil, NewBusinessError("MAIL_TRANSPORT_NOT_CONFIGURED", "SendGrid API key not configured", ErrTransportNotConfigured)
	}

	verified, err := s.verifier.IsVerified(ctx, email)
	if err != nil {
		return nil, NewBusinessError("VERIFY_EMAIL_FAILED", "Failed to check verification status with SendGrid", err)
	}

	msg := "Email is not verified in SendGrid. Please verify it first."
	if verified {
		msg = "Email is verified and ready to send campaigns"
	}

	return &dto.VerifyEmailResponse{
		Verified: verified,
		Email:    email,
		Message:  msg,
	}, nil
}
