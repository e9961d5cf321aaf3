package models

// AllModels lists every persisted model in migration order
func AllModels() []any {
	return []any{
		&User{},
		&Payment{},
		&Campaign{},
		&AutomationLog{},
		&Contact{},
		&SupportMessage{},
		&SupportTicket{},
		&SupportFile{},
		&UserSession{},
		&AuditLog{},
	}
}
