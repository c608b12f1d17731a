package models

import "time"

// Visa application statuses. "pending" is the only status assigned at
// creation; every later change goes through the status log.
const (
	VisaStatusPending        = "pending"
	VisaStatusReviewing      = "reviewing"
	VisaStatusApproved       = "approved"
	VisaStatusRejected       = "rejected"
	VisaStatusAdditionalInfo = "additional_info_required"
)

// AllowedVisaStatuses is the full set of statuses accepted by the
// status-update endpoint. Any-to-any transitions are permitted.
var AllowedVisaStatuses = []string{
	VisaStatusPending,
	VisaStatusReviewing,
	VisaStatusApproved,
	VisaStatusRejected,
	VisaStatusAdditionalInfo,
}

// AllowedVisaTypes lists the visa categories the intake form accepts.
var AllowedVisaTypes = []string{
	"tourist", "business", "student", "work", "transit", "medical", "family_visit",
}

// VisaApplication represents the visa_applications table.
type VisaApplication struct {
	ID            uint   `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID string `gorm:"column:application_id;uniqueIndex;size:40" json:"application_id"`

	FirstName      string `gorm:"column:first_name" json:"first_name"`
	LastName       string `gorm:"column:last_name" json:"last_name"`
	Email          string `gorm:"column:email;index" json:"email"`
	Phone          string `gorm:"column:phone" json:"phone"`
	Nationality    string `gorm:"column:nationality" json:"nationality"`
	PassportNumber string `gorm:"column:passport_number" json:"passport_number"`
	DateOfBirth    string `gorm:"column:date_of_birth" json:"date_of_birth"`

	VisaType           string `gorm:"column:visa_type;index" json:"visa_type"`
	DestinationCountry string `gorm:"column:destination_country" json:"destination_country"`
	ArrivalDate        string `gorm:"column:arrival_date" json:"arrival_date"`
	DepartureDate      string `gorm:"column:departure_date" json:"departure_date"`
	DurationOfStay     int    `gorm:"column:duration_of_stay" json:"duration_of_stay"`
	Purpose            string `gorm:"column:purpose" json:"purpose"`

	Status string `gorm:"column:status;index;default:pending" json:"status"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Documents []VisaDocument `gorm:"foreignKey:ApplicationID;references:ApplicationID" json:"documents,omitempty"`
}

// VisaDocument represents one uploaded file attached to an application.
// Files themselves are opaque blobs on disk; only the reference lives here.
type VisaDocument struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID string    `gorm:"column:application_id;index;size:40" json:"application_id"`
	DocumentType  string    `gorm:"column:document_type" json:"document_type"`
	OriginalName  string    `gorm:"column:original_name" json:"original_name"`
	StoredName    string    `gorm:"column:stored_name" json:"stored_name"`
	StoredPath    string    `gorm:"column:stored_path" json:"-"`
	FileSize      int64     `gorm:"column:file_size" json:"file_size"`
	MimeType      string    `gorm:"column:mime_type" json:"mime_type"`
	UploadedAt    time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`
}

// StatusLogEntry tracks historical status changes for visa applications.
// Rows are append-only and never updated.
type StatusLogEntry struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID string    `gorm:"column:application_id;index;size:40" json:"application_id"`
	OldStatus     string    `gorm:"column:old_status" json:"old_status"`
	NewStatus     string    `gorm:"column:new_status" json:"new_status"`
	Notes         string    `gorm:"column:notes" json:"notes"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides
func (VisaApplication) TableName() string { return "visa_applications" }
func (VisaDocument) TableName() string    { return "visa_documents" }
func (StatusLogEntry) TableName() string  { return "visa_status_log" }
