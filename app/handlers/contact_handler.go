package handlers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/amirphl/Orochi-CRM/app/dto"
	businessflow "github.com/amirphl/Orochi-CRM/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ContactHandlerInterface defines the contract for address book handlers
type ContactHandlerInterface interface {
	ListContacts(c fiber.Ctx) error
	GetContact(c fiber.Ctx) error
	CreateContact(c fiber.Ctx) error
	UpdateContact(c fiber.Ctx) error
	DeleteContact(c fiber.Ctx) error
	ExportContacts(c fiber.Ctx) error
}

// ContactHandler handles address book HTTP requests
type ContactHandler struct {
	contactFlow businessflow.ContactFlow
	validator   *validator.Validate
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactFlow businessflow.ContactFlow) *ContactHandler {
	return &ContactHandler{
		contactFlow: contactFlow,
		validator:   validator.New(),
	}
}

// ListContacts lists the caller's contacts
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.APIResponse{data=dto.ListContactsResponse} "Contacts"
// @Router /api/v1/contacts [get]
func (h *ContactHandler) ListContacts(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	var page dto.PaginationRequest
	if err := c.Bind().Query(&page); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&page); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/contacts")
	defer cancel()

	result, err := h.contactFlow.ListContacts(ctx, userID, page)
	if err != nil {
		log.Println("List contacts failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch contacts", "CONTACT_LIST_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusOK, "Contacts retrieved successfully", result)
}

// GetContact returns one contact
// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} dto.APIResponse{data=dto.ContactResponse} "Contact"
// @Failure 404 {object} dto.APIResponse "Contact not found"
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	contactID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || contactID == 0 {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid contact ID", "INVALID_CONTACT_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/contacts/:id")
	defer cancel()

	result, err := h.contactFlow.GetContact(ctx, userID, uint(contactID))
	if err != nil {
		return h.handleError(c, err, "Failed to fetch contact", "CONTACT_LOOKUP_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Contact retrieved successfully", result)
}

// CreateContact adds an address to the caller's book
// @Summary Create contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateContactRequest true "Contact"
// @Success 201 {object} dto.APIResponse{data=dto.ContactResponse} "Contact created"
// @Failure 400 {object} dto.APIResponse "Validation error or duplicate email"
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(c fiber.Ctx) error {
	var req dto.CreateContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	ctx, cancel := createRequestContext(c, "/api/v1/contacts")
	defer cancel()

	result, err := h.contactFlow.CreateContact(ctx, &req, clientMetadata(c))
	if err != nil {
		return h.handleError(c, err, "Failed to create contact", "CONTACT_CREATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusCreated, "Contact created successfully", result)
}

// UpdateContact applies a partial update
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Param request body dto.UpdateContactRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ContactResponse} "Contact updated"
// @Failure 400 {object} dto.APIResponse "Validation error or duplicate email"
// @Failure 404 {object} dto.APIResponse "Contact not found"
// @Router /api/v1/contacts/{id} [patch]
func (h *ContactHandler) UpdateContact(c fiber.Ctx) error {
	contactID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || contactID == 0 {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid contact ID", "INVALID_CONTACT_ID", nil)
	}

	var req dto.UpdateContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID
	req.ContactID = uint(contactID)

	ctx, cancel := createRequestContext(c, "/api/v1/contacts/:id")
	defer cancel()

	result, err := h.contactFlow.UpdateContact(ctx, &req, clientMetadata(c))
	if err != nil {
		return h.handleError(c, err, "Failed to update contact", "CONTACT_UPDATE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Contact updated successfully", result)
}

// DeleteContact removes a contact
// @Summary Delete contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} dto.APIResponse "Contact deleted"
// @Failure 404 {object} dto.APIResponse "Contact not found"
// @Router /api/v1/contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	contactID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || contactID == 0 {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid contact ID", "INVALID_CONTACT_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/contacts/:id")
	defer cancel()

	if err := h.contactFlow.DeleteContact(ctx, userID, uint(contactID), clientMetadata(c)); err != nil {
		return h.handleError(c, err, "Failed to delete contact", "CONTACT_DELETE_FAILED")
	}

	return SuccessResponse(c, fiber.StatusOK, "Contact deleted successfully", nil)
}

// ExportContacts downloads the caller's contacts as an XLSX workbook
// @Summary Export contacts
// @Tags Contacts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Workbook"
// @Router /api/v1/contacts/export [get]
func (h *ContactHandler) ExportContacts(c fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/contacts/export")
	defer cancel()

	export, err := h.contactFlow.ExportContacts(ctx, userID)
	if err != nil {
		log.Println("Contact export failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export contacts", "CONTACT_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", export.ContentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Send(export.Data)
}

func (h *ContactHandler) handleError(c fiber.Ctx, err error, fallback, code string) error {
	switch {
	case businessflow.IsContactNotFound(err):
		return ErrorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
	case businessflow.IsContactDuplicate(err):
		return ErrorResponse(c, fiber.StatusBadRequest, "A contact with this email already exists", "CONTACT_DUPLICATE", nil)
	case businessflow.IsContactFieldsRequired(err):
		return ErrorResponse(c, fiber.StatusBadRequest, "Name and email are required", "CONTACT_VALIDATION_FAILED", nil)
	}

	log.Println(fallback, err)
	return ErrorResponse(c, fiber.StatusInternalServerError, fallback, code, nil)
}
