package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/amirphl/Orochi-CRM/app/dto"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/gofiber/fiber/v3"
)

// SupportHandlerInterface defines the contract for support handlers
type SupportHandlerInterface interface {
	CreateMessage(c fiber.Ctx) error
	CreateTicket(c fiber.Ctx) error
	GetFile(c fiber.Ctx) error
}

// SupportHandler handles contact-form messages, tickets and attachment downloads
type SupportHandler struct {
	supportFlow businessflow.SupportFlow
}

// NewSupportHandler creates a new support handler
func NewSupportHandler(supportFlow businessflow.SupportFlow) *SupportHandler {
	return &SupportHandler{supportFlow: supportFlow}
}

// CreateMessage stores a contact-form message; guests are allowed
// @Summary Send support message
// @Tags Support
// @Accept json
// @Produce json
// @Param request body dto.SupportMessageRequest true "Message"
// @Success 200 {object} dto.APIResponse{data=dto.SupportMessageResponse} "Message saved"
// @Failure 400 {object} dto.APIResponse "Name and message are required"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/support/message [post]
func (h *SupportHandler) CreateMessage(c fiber.Ctx) error {
	var req dto.SupportMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if userID, ok := currentUserID(c); ok {
		req.UserID = &userID
	}

	ctx, cancel := createRequestContext(c, "/api/v1/support/message")
	defer cancel()

	result, err := h.supportFlow.CreateMessage(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSupportValidationError(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, businessMessage(err, "Name and message are required."), businessCode(err, "SUPPORT_VALIDATION_FAILED"), nil)
		}

		log.Println("Support message failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save or send message.", "SUPPORT_MESSAGE_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// CreateTicket stores a ticket with its multipart attachments
// @Summary Open support ticket
// @Tags Support
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param subject formData string true "Subject"
// @Param description formData string true "Description"
// @Param files formData file false "Up to 5 attachments, 10MB each"
// @Param screenshots formData file false "Up to 5 screenshots, 10MB each"
// @Success 200 {object} dto.APIResponse{data=dto.CreateSupportTicketResponse} "Ticket saved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/support/ticket [post]
func (h *SupportHandler) CreateTicket(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	if !strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		return ErrorResponse(c, fiber.StatusBadRequest, "Expected multipart/form-data", "INVALID_REQUEST", nil)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid multipart form", "INVALID_REQUEST", err.Error())
	}

	files, err := readUploads(form.File["files"], utils.MaxTicketFiles)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "File upload failed", "FILE_UPLOAD_FAILED", err.Error())
	}
	screenshots, err := readUploads(form.File["screenshots"], utils.MaxTicketScreenshots)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "File upload failed", "FILE_UPLOAD_FAILED", err.Error())
	}

	req := dto.CreateSupportTicketRequest{
		UserID:      userID,
		Subject:     c.FormValue("subject"),
		Description: c.FormValue("description"),
		Files:       files,
		Screenshots: screenshots,
	}

	ctx, cancel := createRequestContext(c, "/api/v1/support/ticket")
	defer cancel()

	result, err := h.supportFlow.CreateTicket(ctx, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSupportValidationError(err) {
			return ErrorResponse(c, fiber.StatusBadRequest, businessMessage(err, "Subject and description are required."), businessCode(err, "SUPPORT_VALIDATION_FAILED"), nil)
		}

		log.Println("Support ticket failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save ticket.", "SUPPORT_TICKET_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetFile streams a ticket attachment back to the ticket's owner
// @Summary Download support file
// @Tags Support
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {file} file "Attachment"
// @Failure 403 {object} dto.APIResponse "Not the ticket owner"
// @Failure 404 {object} dto.APIResponse "File not found"
// @Router /api/v1/support/file/{id} [get]
func (h *SupportHandler) GetFile(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	fileID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || fileID == 0 {
		return ErrorResponse(c, fiber.StatusNotFound, "File not found", "SUPPORT_FILE_NOT_FOUND", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/support/file/:id")
	defer cancel()

	file, err := h.supportFlow.GetFile(ctx, userID, uint(fileID))
	if err != nil {
		if businessflow.IsSupportFileNotFound(err) {
			return ErrorResponse(c, fiber.StatusNotFound, "File not found", "SUPPORT_FILE_NOT_FOUND", nil)
		}
		if businessflow.IsSupportFileAccessDenied(err) {
			return ErrorResponse(c, fiber.StatusForbidden, "Not authorized to access this file", "SUPPORT_FILE_FORBIDDEN", nil)
		}

		log.Println("Support file fetch failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch file.", "SUPPORT_FILE_FAILED", nil)
	}

	c.Set("Content-Type", file.MimeType)
	c.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Filename))
	return c.Send(file.Data)
}

// readUploads loads at most max+1 parts so oversized batches and files still reach the flow's checks
func readUploads(headers []*multipart.FileHeader, max int) ([]dto.SupportUpload, error) {
	if len(headers) > max+1 {
		headers = headers[:max+1]
	}

	out := make([]dto.SupportUpload, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(src, utils.MaxSupportFileSize+1))
		src.Close()
		if err != nil {
			return nil, err
		}

		out = append(out, dto.SupportUpload{
			Filename: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return out, nil
}
