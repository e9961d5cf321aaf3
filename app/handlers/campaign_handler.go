package handlers

import (
	"log"
	"strconv"

	"github.com/amirphl/Orochi-CRM/app/dto"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	SendCampaign(c fiber.Ctx) error
	GetCredits(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	DeleteCampaign(c fiber.Ctx) error
	VerifySenderEmail(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests.
// Its responses use the flat {success, error, code} body the dashboard expects.
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, code string) error {
	return c.Status(statusCode).JSON(dto.CampaignErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// SendCampaign validates, charges and sends (or schedules) a campaign
// @Summary Send campaign
// @Description Send a campaign now, or persist it as scheduled/recurring
// @Tags Campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendCampaignRequest true "Campaign payload"
// @Success 200 {object} dto.SendCampaignResponse "Campaign sent or scheduled"
// @Failure 400 {object} dto.CampaignErrorResponse "Validation error"
// @Failure 403 {object} dto.CampaignErrorResponse "Insufficient credits"
// @Failure 409 {object} dto.CampaignErrorResponse "Another send is in progress"
// @Failure 500 {object} dto.CampaignErrorResponse "Internal server error"
// @Router /api/v1/campaigns/send [post]
func (h *CampaignHandler) SendCampaign(c fiber.Ctx) error {
	var req dto.SendCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST")
	}

	userID, ok := currentUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID")
	}
	req.UserID = userID

	ctx, cancel := createRequestContext(c, "/api/v1/campaigns/send")
	defer cancel()

	result, err := h.campaignFlow.SendCampaign(ctx, &req, clientMetadata(c))
	if err != nil {
		if cle, ok := businessflow.AsCreditLimitError(err); ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.CampaignErrorResponse{
				Success:            false,
				Error:              cle.Error(),
				Code:               "INSUFFICIENT_CREDITS",
				Available:          utils.ToPtr(cle.Available),
				Required:           utils.ToPtr(cle.Required),
				CreditLimitReached: true,
			})
		}
		if businessflow.IsCampaignValidationError(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessMessage(err, "Invalid campaign"), businessCode(err, "CAMPAIGN_VALIDATION_FAILED"))
		}
		if businessflow.IsCampaignSendInProgress(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, businessMessage(err, "Campaign send already in progress"), "CAMPAIGN_SEND_IN_PROGRESS")
		}
		if businessflow.IsTransportNotConfigured(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, businessMessage(err, "Mail transport not configured"), "MAIL_TRANSPORT_NOT_CONFIGURED")
		}

		log.Println("Campaign send failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, businessMessage(err, "Failed to process campaign"), businessCode(err, "CAMPAIGN_SEND_FAILED"))
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// GetCredits reports the caller's remaining credits
// @Summary Get credits
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CreditsResponse "Credit balance"
// @Failure 500 {object} dto.CampaignErrorResponse "Internal server error"
// @Router /api/v1/campaigns/credits [get]
func (h *CampaignHandler) GetCredits(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID")
	}

	ctx, cancel := createRequestContext(c, "/api/v1/campaigns/credits")
	defer cancel()

	result, err := h.campaignFlow.GetCredits(ctx, userID)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND")
		}

		log.Println("Get credits failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch credits", "CREDITS_LOOKUP_FAILED")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// ListCampaigns lists the caller's campaigns, newest first
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,campaigns=[]dto.CampaignResponse} "Campaigns"
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID")
	}

	req := dto.ListCampaignsRequest{UserID: userID}
	if err := c.Bind().Query(&req.PaginationRequest); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST")
	}
	if err := h.validator.Struct(&req.PaginationRequest); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "VALIDATION_ERROR")
	}

	ctx, cancel := createRequestContext(c, "/api/v1/campaigns")
	defer cancel()

	campaigns, err := h.campaignFlow.ListCampaigns(ctx, &req)
	if err != nil {
		log.Println("List campaigns failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", "CAMPAIGN_LIST_FAILED")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"campaigns": campaigns,
	})
}

// GetCampaign returns one campaign with its automation logs
// @Summary Get campaign
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} object{success=bool,campaign=dto.CampaignResponse} "Campaign"
// @Failure 404 {object} dto.CampaignErrorResponse "Campaign not found"
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID")
	}

	campaignID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || campaignID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID")
	}

	ctx, cancel := createRequestContext(c, "/api/v1/campaigns/:id")
	defer cancel()

	campaign, err := h.campaignFlow.GetCampaign(ctx, userID, uint(campaignID))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND")
		}

		log.Println("Get campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaign", "CAMPAIGN_LOOKUP_FAILED")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"campaign": campaign,
	})
}

// DeleteCampaign removes one of the caller's campaigns
// @Summary Delete campaign
// @Tags Campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} dto.DeleteCampaignResponse "Campaign deleted"
// @Failure 404 {object} dto.CampaignErrorResponse "Campaign not found"
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID")
	}

	campaignID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || campaignID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID")
	}

	ctx, cancel := createRequestContext(c, "/api/v1/campaigns/:id")
	defer cancel()

	result, err := h.campaignFlow.DeleteCampaign(ctx, userID, uint(campaignID), clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND")
		}

		log.Println("Delete campaign failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete campaign", "CAMPAIGN_DELETE_FAILED")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// VerifySenderEmail checks whether an address is a verified sender with the mail provider
// @Summary Verify sender email
// @Tags Campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VerifyEmailRequest true "Sender address"
// @Success 200 {object} dto.VerifyEmailResponse "Verification status"
// @Failure 400 {object} dto.CampaignErrorResponse "Missing or malformed email"
// @Failure 500 {object} dto.CampaignErrorResponse "Provider lookup failed"
// @Router /api/v1/campaigns/verify-email [post]
func (h *CampaignHandler) VerifySenderEmail(c fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.verifyError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := createRequestContext(c, "/api/v1/campaigns/verify-email")
	defer cancel()

	result, err := h.campaignFlow.VerifySenderEmail(ctx, &req)
	if err != nil {
		if businessflow.IsVerifyEmailValidationError(err) {
			return h.verifyError(c, fiber.StatusBadRequest, businessMessage(err, "Invalid email format"))
		}

		log.Println("Sender verification failed", err)
		return h.verifyError(c, fiber.StatusInternalServerError, businessMessage(err, "Failed to check verification status with SendGrid"))
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CampaignHandler) verifyError(c fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(dto.CampaignErrorResponse{
		Success:  false,
		Error:    message,
		Verified: utils.ToPtr(false),
	})
}
