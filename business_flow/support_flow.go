package businessflow

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	"github.com/amirphl/Orochi-CRM/utils"
)

// SupportFlow handles contact-form messages and support tickets
type SupportFlow interface {
	CreateMessage(ctx context.Context, req *dto.SupportMessageRequest, metadata *ClientMetadata) (*dto.SupportMessageResponse, error)
	CreateTicket(ctx context.Context, req *dto.CreateSupportTicketRequest, metadata *ClientMetadata) (*dto.CreateSupportTicketResponse, error)
	GetFile(ctx context.Context, userID, fileID uint) (*dto.SupportFileDownload, error)
}

// SupportFlowImpl implements the support business flow
type SupportFlowImpl struct {
	messageRepo repository.SupportMessageRepository
	ticketRepo  repository.SupportTicketRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	notifier    services.NotificationService
	inbox       string
}

// NewSupportFlow creates a new support flow; a nil notifier or empty inbox disables notifications
func NewSupportFlow(
	messageRepo repository.SupportMessageRepository,
	ticketRepo repository.SupportTicketRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	notifier services.NotificationService,
	inbox string,
) SupportFlow {
	return &SupportFlowImpl{
		messageRepo: messageRepo,
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		inbox:       inbox,
	}
}

func (f *SupportFlowImpl) CreateMessage(ctx context.Context, req *dto.SupportMessageRequest, metadata *ClientMetadata) (*dto.SupportMessageResponse, error) {
	name := strings.TrimSpace(req.Name)
	message := strings.TrimSpace(req.Message)
	if name == "" || message == "" {
		return nil, NewBusinessError("SUPPORT_VALIDATION_FAILED", "Name and message are required.", ErrSupportMessageFieldsRequired)
	}

	userEmail, err := f.userEmail(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	record := &models.SupportMessage{
		UserID:    req.UserID,
		UserEmail: userEmail,
		Name:      name,
		Message:   message,
	}
	if err := f.messageRepo.Save(ctx, record); err != nil {
		return nil, NewBusinessError("SUPPORT_MESSAGE_FAILED", "Failed to save or send message.", err)
	}

	body := fmt.Sprintf(
		"<h2>New Support Message</h2><p><b>Name:</b> %s</p><p><b>User:</b> %s (ID: %s)</p><p><b>Message:</b> %s</p>",
		html.EscapeString(name),
		html.EscapeString(derefOr(userEmail, "Guest")),
		userIDLabel(req.UserID),
		html.EscapeString(message),
	)
	f.notify(ctx, services.Notification{
		Subject: fmt.Sprintf("Support Message from %s", name),
		Text:    message,
		HTML:    body,
	})

	_ = createAuditLog(ctx, f.auditRepo, req.UserID, models.AuditActionSupportMessage,
		fmt.Sprintf("Support message created: %d", record.ID), true, nil, metadata)

	return &dto.SupportMessageResponse{
		ID:      record.ID,
		Message: "Message saved & email sent successfully!",
	}, nil
}

func (f *SupportFlowImpl) CreateTicket(ctx context.Context, req *dto.CreateSupportTicketRequest, metadata *ClientMetadata) (*dto.CreateSupportTicketResponse, error) {
	subject := strings.TrimSpace(req.Subject)
	description := strings.TrimSpace(req.Description)
	if subject == "" || description == "" {
		return nil, NewBusinessError("SUPPORT_VALIDATION_FAILED", "Subject and description are required.", ErrSupportTicketFieldsRequired)
	}
	if len(req.Files) > utils.MaxTicketFiles || len(req.Screenshots) > utils.MaxTicketScreenshots {
		return nil, NewBusinessErrorf("SUPPORT_TOO_MANY_FILES",
			"At most %d files and %d screenshots can be attached", ErrTooManyFiles, utils.MaxTicketFiles, utils.MaxTicketScreenshots)
	}

	files := make([]*models.SupportFile, 0, len(req.Files)+len(req.Screenshots))
	for _, group := range []struct {
		kind    models.SupportFileKind
		uploads []dto.SupportUpload
	}{
		{models.SupportFileKindFile, req.Files},
		{models.SupportFileKindScreenshot, req.Screenshots},
	} {
		for _, u := range group.uploads {
			if len(u.Data) > utils.MaxSupportFileSize {
				return nil, NewBusinessErrorf("SUPPORT_FILE_TOO_LARGE",
					"File %s exceeds the %d MB limit", ErrFileTooLarge, u.Filename, utils.MaxSupportFileSize/(1024*1024))
			}
			files = append(files, &models.SupportFile{
				Filename: u.Filename,
				MimeType: utils.FirstNonEmpty(u.MimeType, "application/octet-stream"),
				Size:     int64(len(u.Data)),
				Kind:     group.kind,
				Data:     u.Data,
			})
		}
	}

	userID := utils.ToPtr(req.UserID)
	userEmail, err := f.userEmail(ctx, userID)
	if err != nil {
		return nil, err
	}

	ticket := &models.SupportTicket{
		UserID:      userID,
		UserEmail:   userEmail,
		Subject:     subject,
		Description: description,
	}
	if err := f.ticketRepo.SaveWithFiles(ctx, ticket, files); err != nil {
		return nil, NewBusinessError("SUPPORT_TICKET_FAILED", "Failed to save ticket.", err)
	}

	body := fmt.Sprintf(
		"<h2>New Support Ticket</h2><p><strong>User:</strong> %s (ID: %s)</p><p><strong>Subject:</strong> %s</p><p><strong>Description:</strong> %s</p><p><strong>Files:</strong> %d uploaded</p>",
		html.EscapeString(derefOr(userEmail, "N/A")),
		userIDLabel(userID),
		html.EscapeString(subject),
		html.EscapeString(description),
		len(files),
	)
	f.notify(ctx, services.Notification{
		Subject: fmt.Sprintf("New Support Ticket: %s", subject),
		HTML:    body,
	})

	_ = createAuditLog(ctx, f.auditRepo, userID, models.AuditActionSupportTicket,
		fmt.Sprintf("Support ticket created: %s with %d files", ticket.UUID, len(files)), true, nil, metadata)

	return &dto.CreateSupportTicketResponse{
		TicketID:  ticket.ID,
		UUID:      ticket.UUID.String(),
		FileCount: len(files),
		Message:   "Ticket & files saved successfully!",
	}, nil
}

// GetFile returns an attachment only to the owner of its ticket
func (f *SupportFlowImpl) GetFile(ctx context.Context, userID, fileID uint) (*dto.SupportFileDownload, error) {
	file, err := f.ticketRepo.FileByID(ctx, fileID)
	if err != nil {
		return nil, NewBusinessError("SUPPORT_FILE_FAILED", "Failed to fetch file.", err)
	}
	if file == nil || file.Ticket == nil {
		return nil, NewBusinessError("SUPPORT_FILE_NOT_FOUND", "File not found", ErrSupportFileNotFound)
	}
	if file.Ticket.UserID == nil || *file.Ticket.UserID != userID {
		return nil, NewBusinessError("SUPPORT_FILE_FORBIDDEN", "Not authorized to access this file", ErrSupportFileAccessDenied)
	}

	return &dto.SupportFileDownload{
		Filename: file.Filename,
		MimeType: file.MimeType,
		Data:     file.Data,
	}, nil
}

func (f *SupportFlowImpl) userEmail(ctx context.Context, userID *uint) (*string, error) {
	if userID == nil {
		return nil, nil
	}
	user, err := f.userRepo.ByID(ctx, *userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to fetch user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	return &user.Email, nil
}

// notify delivers to the support inbox; the record is already stored, so failures are only logged
func (f *SupportFlowImpl) notify(ctx context.Context, n services.Notification) {
	if f.notifier == nil || f.inbox == "" {
		return
	}
	n.To = f.inbox
	if err := f.notifier.Notify(ctx, n); err != nil {
		log.Printf("Failed to send support notification %q: %v", n.Subject, err)
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func userIDLabel(id *uint) string {
	if id == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *id)
}
