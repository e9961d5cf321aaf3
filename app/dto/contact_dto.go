package dto

import "time"

// CreateContactRequest represents the request to add an address to the address book
type CreateContactRequest struct {
	UserID  uint    `json:"-"`
	Name    string  `json:"name" validate:"required,max=255" example:"Jane Doe"`
	Email   string  `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Message *string `json:"message,omitempty" validate:"omitempty,max=5000"`
}

// UpdateContactRequest is a partial update; nil fields are left unchanged
type UpdateContactRequest struct {
	UserID    uint    `json:"-"`
	ContactID uint    `json:"-"`
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Message   *string `json:"message,omitempty" validate:"omitempty,max=5000"`
}

// ContactResponse is a stored contact
type ContactResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   *string   `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListContactsResponse wraps a page of contacts
type ListContactsResponse struct {
	Contacts []ContactResponse `json:"contacts"`
	Total    int64             `json:"total"`
}

// ContactExport is a rendered spreadsheet ready for download
type ContactExport struct {
	Filename    string
	ContentType string
	Data        []byte
}
