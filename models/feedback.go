package models

import "time"

// Feedback statuses.
const (
	FeedbackStatusNew       = "new"
	FeedbackStatusReviewed  = "reviewed"
	FeedbackStatusResponded = "responded"
	FeedbackStatusArchived  = "archived"
)

// AllowedFeedbackStatuses is the set accepted by the status-update endpoint.
var AllowedFeedbackStatuses = []string{
	FeedbackStatusNew,
	FeedbackStatusReviewed,
	FeedbackStatusResponded,
	FeedbackStatusArchived,
}

// AllowedFeedbackTypes classifies feedback entries.
var AllowedFeedbackTypes = []string{
	"service", "website", "consultation", "processing", "other",
}

// AllowedRecommendations is the tri-state answer to "would you recommend us".
var AllowedRecommendations = []string{"yes", "no", "maybe"}

// FeedbackEntry represents the feedback_entries table.
type FeedbackEntry struct {
	ID         uint   `gorm:"primaryKey;column:id" json:"-"`
	FeedbackID string `gorm:"column:feedback_id;uniqueIndex;size:40" json:"feedback_id"`

	Name  string `gorm:"column:name" json:"name"`
	Email string `gorm:"column:email;index" json:"email"`

	Rating         int     `gorm:"column:rating" json:"rating"`
	FeedbackType   string  `gorm:"column:feedback_type;index" json:"feedback_type"`
	Subject        string  `gorm:"column:subject" json:"subject"`
	Message        string  `gorm:"column:message" json:"message"`
	WouldRecommend string  `gorm:"column:would_recommend" json:"would_recommend"`
	ApplicationID  *string `gorm:"column:application_id;size:40" json:"application_id,omitempty"`

	Status     string  `gorm:"column:status;index;default:new" json:"status"`
	AdminNotes *string `gorm:"column:admin_notes" json:"admin_notes,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (FeedbackEntry) TableName() string { return "feedback_entries" }
