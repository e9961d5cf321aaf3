package dto

// SupportMessageRequest is a contact-form submission; the user is taken from the token when present
type SupportMessageRequest struct {
	UserID  *uint  `json:"-"`
	Name    string `json:"name" example:"Jane Doe"`
	Message string `json:"message" example:"I cannot import my contacts"`
}

// SupportMessageResponse confirms a stored message
type SupportMessageResponse struct {
	ID      uint   `json:"id"`
	Message string `json:"message" example:"Message saved & email sent successfully!"`
}

// SupportUpload is one multipart attachment read into memory
type SupportUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

// CreateSupportTicketRequest is built by the handler from the multipart form
type CreateSupportTicketRequest struct {
	UserID      uint
	Subject     string
	Description string
	Files       []SupportUpload
	Screenshots []SupportUpload
}

// CreateSupportTicketResponse confirms a stored ticket
type CreateSupportTicketResponse struct {
	TicketID  uint   `json:"ticketId"`
	UUID      string `json:"uuid"`
	FileCount int    `json:"fileCount"`
	Message   string `json:"message" example:"Ticket & files saved successfully!"`
}

// SupportFileDownload is an attachment streamed back to its owner
type SupportFileDownload struct {
	Filename string
	MimeType string
	Data     []byte
}
