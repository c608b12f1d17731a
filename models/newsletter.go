package models

import (
	"encoding/json"
	"time"
)

// AllowedNewsletterPreferences is the fixed vocabulary for subscription
// preference tags. Unknown tags fail validation, they are never stored.
var AllowedNewsletterPreferences = []string{
	"visa_updates", "travel_tips", "policy_changes", "promotions",
}

// NewsletterSubscription represents the newsletter_subscriptions table.
// The email column carries a database-level unique index so concurrent
// subscriptions for the same address lose with a duplicate-key error
// instead of inserting a second row.
type NewsletterSubscription struct {
	ID             uint   `gorm:"primaryKey;column:id" json:"-"`
	SubscriptionID string `gorm:"column:subscription_id;uniqueIndex;size:40" json:"subscription_id"`

	Email       string `gorm:"column:email;uniqueIndex;size:254" json:"email"`
	Name        string `gorm:"column:name" json:"name"`
	Preferences string `gorm:"column:preferences" json:"-"`

	IsActive         bool   `gorm:"column:is_active;default:true" json:"is_active"`
	UnsubscribeToken string `gorm:"column:unsubscribe_token;uniqueIndex;size:40" json:"-"`

	SubscribedAt   time.Time  `gorm:"column:subscribed_at" json:"subscribed_at"`
	UnsubscribedAt *time.Time `gorm:"column:unsubscribed_at" json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (NewsletterSubscription) TableName() string { return "newsletter_subscriptions" }

// PreferenceList decodes the stored JSON preference tags.
func (s *NewsletterSubscription) PreferenceList() []string {
	if s.Preferences == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(s.Preferences), &tags); err != nil {
		return []string{}
	}
	return tags
}

// SetPreferences stores the given tags as JSON.
func (s *NewsletterSubscription) SetPreferences(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	encoded, _ := json.Marshal(tags)
	s.Preferences = string(encoded)
}
