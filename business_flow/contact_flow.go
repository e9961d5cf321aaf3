package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	contactsSheetName   = "Contacts"
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contactExportLayout = "2006-01-02 15:04:05"
)

// ContactFlow handles the address book
type ContactFlow interface {
	ListContacts(ctx context.Context, userID uint, page dto.PaginationRequest) (*dto.ListContactsResponse, error)
	GetContact(ctx context.Context, userID, contactID uint) (*dto.ContactResponse, error)
	CreateContact(ctx context.Context, req *dto.CreateContactRequest, metadata *ClientMetadata) (*dto.ContactResponse, error)
	UpdateContact(ctx context.Context, req *dto.UpdateContactRequest, metadata *ClientMetadata) (*dto.ContactResponse, error)
	DeleteContact(ctx context.Context, userID, contactID uint, metadata *ClientMetadata) error
	ExportContacts(ctx context.Context, userID uint) (*dto.ContactExport, error)
}

// ContactFlowImpl implements the contact business flow
type ContactFlowImpl struct {
	contactRepo repository.ContactRepository
	auditRepo   repository.AuditLogRepository
}

// NewContactFlow creates a new contact flow instance
func NewContactFlow(contactRepo repository.ContactRepository, auditRepo repository.AuditLogRepository) ContactFlow {
	return &ContactFlowImpl{
		contactRepo: contactRepo,
		auditRepo:   auditRepo,
	}
}

func (f *ContactFlowImpl) ListContacts(ctx context.Context, userID uint, page dto.PaginationRequest) (*dto.ListContactsResponse, error) {
	contacts, err := f.contactRepo.ListByUser(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LIST_FAILED", "Failed to fetch contacts", err)
	}

	total, err := f.contactRepo.Count(ctx, models.ContactFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("CONTACT_LIST_FAILED", "Failed to fetch contacts", err)
	}

	resp := &dto.ListContactsResponse{
		Contacts: make([]dto.ContactResponse, 0, len(contacts)),
		Total:    total,
	}
	for _, c := range contacts {
		resp.Contacts = append(resp.Contacts, ToContactResponse(*c))
	}
	return resp, nil
}

func (f *ContactFlowImpl) GetContact(ctx context.Context, userID, contactID uint) (*dto.ContactResponse, error) {
	contact, err := f.ownedContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	resp := ToContactResponse(*contact)
	return &resp, nil
}

func (f *ContactFlowImpl) ownedContact(ctx context.Context, userID, contactID uint) (*models.Contact, error) {
	contact, err := f.contactRepo.ByIDAndUser(ctx, contactID, userID)
	if err != nil {
		return nil, NewBusinessError("CONTACT_LOOKUP_FAILED", "Failed to fetch contact", err)
	}
	if contact == nil {
		return nil, NewBusinessError("CONTACT_NOT_FOUND", "Contact not found", ErrContactNotFound)
	}
	return contact, nil
}

func (f *ContactFlowImpl) CreateContact(ctx context.Context, req *dto.CreateContactRequest, metadata *ClientMetadata) (*dto.ContactResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := utils.NormalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, NewBusinessError("CONTACT_VALIDATION_FAILED", "Name and email are required", ErrContactFieldsRequired)
	}

	if err := f.ensureEmailFree(ctx, req.UserID, email, 0); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		UserID:  req.UserID,
		Name:    name,
		Email:   email,
		Message: trimmedOrNil(req.Message),
	}
	if err := f.contactRepo.Save(ctx, contact); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateContactError()
		}
		return nil, NewBusinessError("CONTACT_CREATION_FAILED", "Failed to create contact", err)
	}

	msg := fmt.Sprintf("Contact created: %d", contact.ID)
	_ = createAuditLog(ctx, f.auditRepo, &req.UserID, models.AuditActionContactCreated, msg, true, nil, metadata)

	resp := ToContactResponse(*contact)
	return &resp, nil
}

func (f *ContactFlowImpl) UpdateContact(ctx context.Context, req *dto.UpdateContactRequest, metadata *ClientMetadata) (*dto.ContactResponse, error) {
	contact, err := f.ownedContact(ctx, req.UserID, req.ContactID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewBusinessError("CONTACT_VALIDATION_FAILED", "Name and email are required", ErrContactFieldsRequired)
		}
		contact.Name = name
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if email == "" {
			return nil, NewBusinessError("CONTACT_VALIDATION_FAILED", "Name and email are required", ErrContactFieldsRequired)
		}
		if email != contact.Email {
			if err := f.ensureEmailFree(ctx, req.UserID, email, contact.ID); err != nil {
				return nil, err
			}
		}
		contact.Email = email
	}
	if req.Message != nil {
		contact.Message = trimmedOrNil(req.Message)
	}

	if err := f.contactRepo.Update(ctx, contact); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateContactError()
		}
		return nil, NewBusinessError("CONTACT_UPDATE_FAILED", "Failed to update contact", err)
	}

	msg := fmt.Sprintf("Contact updated: %d", contact.ID)
	_ = createAuditLog(ctx, f.auditRepo, &req.UserID, models.AuditActionContactUpdated, msg, true, nil, metadata)

	resp := ToContactResponse(*contact)
	return &resp, nil
}

func (f *ContactFlowImpl) DeleteContact(ctx context.Context, userID, contactID uint, metadata *ClientMetadata) error {
	deleted, err := f.contactRepo.DeleteByIDAndUser(ctx, contactID, userID)
	if err != nil {
		return NewBusinessError("CONTACT_DELETE_FAILED", "Failed to delete contact", err)
	}
	if !deleted {
		return NewBusinessError("CONTACT_NOT_FOUND", "Contact not found", ErrContactNotFound)
	}

	msg := fmt.Sprintf("Contact deleted: %d", contactID)
	_ = createAuditLog(ctx, f.auditRepo, &userID, models.AuditActionContactDeleted, msg, true, nil, metadata)
	return nil
}

// ExportContacts renders the whole address book as an XLSX workbook
func (f *ContactFlowImpl) ExportContacts(ctx context.Context, userID uint) (*dto.ContactExport, error) {
	contacts, err := f.contactRepo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("CONTACT_EXPORT_FAILED", "Failed to export contacts", err)
	}

	data, err := buildContactsWorkbook(contacts)
	if err != nil {
		return nil, NewBusinessError("CONTACT_EXPORT_FAILED", "Failed to export contacts", err)
	}

	return &dto.ContactExport{
		Filename:    fmt.Sprintf("contacts-%s.xlsx", utils.UTCNow().Format("20060102")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

func buildContactsWorkbook(contacts []*models.Contact) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", contactsSheetName); err != nil {
		return nil, err
	}

	header := []any{"Name", "Email", "Message", "Created At"}
	if err := f.SetSheetRow(contactsSheetName, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(contactsSheetName, "A1", "D1", bold); err != nil {
		return nil, err
	}

	for i, c := range contacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		message := ""
		if c.Message != nil {
			message = *c.Message
		}
		row := []any{c.Name, c.Email, message, exportTimestamp(c.CreatedAt)}
		if err := f.SetSheetRow(contactsSheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(contactsSheetName, "A", "D", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *ContactFlowImpl) ensureEmailFree(ctx context.Context, userID uint, email string, exceptID uint) error {
	existing, err := f.contactRepo.ByUserAndEmail(ctx, userID, email)
	if err != nil {
		return NewBusinessError("CONTACT_LOOKUP_FAILED", "Failed to fetch contact", err)
	}
	if existing != nil && existing.ID != exceptID {
		return duplicateContactError()
	}
	return nil
}

func duplicateContactError() error {
	return NewBusinessError("CONTACT_DUPLICATE", "A contact with this email already exists", ErrContactDuplicate)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// exportTimestamp formats a contact time for spreadsheet cells
func exportTimestamp(t time.Time) string {
	return t.UTC().Format(contactExportLayout)
}
