package models

import "time"

// Contact message statuses.
const (
	ContactStatusNew        = "new"
	ContactStatusInProgress = "in_progress"
	ContactStatusResolved   = "resolved"
	ContactStatusClosed     = "closed"
)

// AllowedContactStatuses is the set accepted by the status-update endpoint.
var AllowedContactStatuses = []string{
	ContactStatusNew,
	ContactStatusInProgress,
	ContactStatusResolved,
	ContactStatusClosed,
}

// AllowedInquiryTypes classifies incoming contact messages.
var AllowedInquiryTypes = []string{
	"general", "visa_inquiry", "document_help", "appointment", "complaint", "other",
}

// ContactMessage represents the contact_messages table.
type ContactMessage struct {
	ID        uint   `gorm:"primaryKey;column:id" json:"-"`
	MessageID string `gorm:"column:message_id;uniqueIndex;size:40" json:"message_id"`

	Name        string `gorm:"column:name" json:"name"`
	Email       string `gorm:"column:email;index" json:"email"`
	Phone       string `gorm:"column:phone" json:"phone"`
	InquiryType string `gorm:"column:inquiry_type;index" json:"inquiry_type"`
	Subject     string `gorm:"column:subject" json:"subject"`
	Message     string `gorm:"column:message" json:"message"`

	Status     string  `gorm:"column:status;index;default:new" json:"status"`
	AdminNotes *string `gorm:"column:admin_notes" json:"admin_notes,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ContactMessage) TableName() string { return "contact_messages" }
