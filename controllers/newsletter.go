package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"visa-consult-api/models"
	apperrors "visa-consult-api/pkg/errors"
	"visa-consult-api/services"
	"visa-consult-api/validation"
)

var subscribeRules = validation.RuleSet{
	Name: "newsletter_subscribe",
	Rules: []validation.Rule{
		{Field: "email", Required: true, Lowercase: true, MaxLen: 254, Pattern: emailPattern,
			PatternMsg: "email must be a valid email address"},
		{Field: "name", MinLen: 2, MaxLen: 100, Pattern: namePattern,
			PatternMsg: "name may only contain letters, spaces, hyphens and apostrophes"},
		{Field: "preferences", Lowercase: true, Each: models.AllowedNewsletterPreferences},
	},
}

var unsubscribeRules = validation.RuleSet{
	Name: "newsletter_unsubscribe",
	Rules: []validation.Rule{
		{Field: "email", Lowercase: true, MaxLen: 254, Pattern: emailPattern,
			PatternMsg: "email must be a valid email address"},
		{Field: "token", MinLen: 8, MaxLen: 40},
	},
}

// NewsletterController handles subscription lifecycle: subscribe,
// reactivate, unsubscribe. Rows are never deleted, only deactivated.
type NewsletterController struct {
	db       *gorm.DB
	notifier *services.Notifier
}

// NewNewsletterController constructs the controller with its dependencies.
func NewNewsletterController(db *gorm.DB, notifier *services.Notifier) *NewsletterController {
	return &NewsletterController{db: db, notifier: notifier}
}

// Subscribe handles POST /newsletter/subscribe. At most one row exists per
// email: an active subscription reports already_subscribed, an inactive one
// is reactivated in place (same identifier and token), and the unique index
// on email resolves concurrent first-time subscriptions.
func (ctl *NewsletterController) Subscribe(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	values, failures := subscribeRules.Apply(raw)
	if len(failures) > 0 {
		respondValidation(c, failures)
		return
	}

	email := values.String("email")

	var existing models.NewsletterSubscription
	err := ctl.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil && existing.IsActive:
		respondSuccess(c, http.StatusOK, "This email is already subscribed", gin.H{
			"subscription_id":    existing.SubscriptionID,
			"already_subscribed": true,
		})
		return

	case err == nil:
		// Reactivate rather than duplicate; identifier and token are
		// preserved.
		updates := map[string]interface{}{
			"is_active":       true,
			"unsubscribed_at": nil,
			"subscribed_at":   time.Now().UTC(),
		}
		if values.Has("name") {
			updates["name"] = values.String("name")
		}
		if values.Has("preferences") {
			reactivated := existing
			reactivated.SetPreferences(values.Strings("preferences"))
			updates["preferences"] = reactivated.Preferences
		}
		if err := ctl.db.Model(&existing).Updates(updates).Error; err != nil {
			respondPersistence(c, "reactivate newsletter subscription", err)
			return
		}
		ctl.enqueueWelcome(email, values.String("name"))
		respondSuccess(c, http.StatusOK, "Subscription reactivated", gin.H{
			"subscription_id": existing.SubscriptionID,
			"reactivated":     true,
		})
		return

	case !errors.Is(err, gorm.ErrRecordNotFound):
		respondPersistence(c, "lookup newsletter subscription", err)
		return
	}

	subscription := models.NewsletterSubscription{
		SubscriptionID:   services.NewSubmissionID(services.PrefixNewsletter),
		Email:            email,
		Name:             values.String("name"),
		IsActive:         true,
		UnsubscribeToken: uuid.NewString(),
		SubscribedAt:     time.Now().UTC(),
	}
	subscription.SetPreferences(values.Strings("preferences"))

	if err := ctl.db.Create(&subscription).Error; err != nil {
		// A concurrent subscribe for the same email won the race; the
		// unique index is authoritative.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondAppError(c, apperrors.New(apperrors.ErrCodeDuplicate, "This email is already subscribed"))
			return
		}
		respondPersistence(c, "create newsletter subscription", err)
		return
	}

	ctl.enqueueWelcome(email, subscription.Name)
	respondSuccess(c, http.StatusCreated, "Subscribed successfully", gin.H{
		"subscription_id": subscription.SubscriptionID,
		"email":           subscription.Email,
		"preferences":     subscription.PreferenceList(),
	})
}

func (ctl *NewsletterController) enqueueWelcome(email, name string) {
	ctl.notifier.Enqueue(services.Notification{
		To:       []string{email},
		Subject:  "Welcome to the Visa Consult newsletter",
		Template: "newsletter_welcome",
		Data:     map[string]interface{}{"name": name},
	})
}

// Unsubscribe handles POST /newsletter/unsubscribe, addressed by email or
// by the personal unsubscribe token. Deactivation is a soft operation and
// idempotent.
func (ctl *NewsletterController) Unsubscribe(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	values, failures := unsubscribeRules.Apply(raw)
	if len(failures) > 0 {
		respondValidation(c, failures)
		return
	}
	if !values.Has("email") && !values.Has("token") {
		respondValidation(c, []validation.FieldError{{
			Field:   "email",
			Message: "either email or token is required",
		}})
		return
	}

	query := ctl.db.Model(&models.NewsletterSubscription{})
	if values.Has("token") {
		query = query.Where("unsubscribe_token = ?", values.String("token"))
	} else {
		query = query.Where("email = ?", values.String("email"))
	}

	var subscription models.NewsletterSubscription
	if err := query.First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondAppError(c, apperrors.New(apperrors.ErrCodeNotFound, "Subscription not found"))
			return
		}
		respondPersistence(c, "lookup newsletter subscription", err)
		return
	}

	if subscription.IsActive {
		now := time.Now().UTC()
		if err := ctl.db.Model(&subscription).Updates(map[string]interface{}{
			"is_active":       false,
			"unsubscribed_at": now,
		}).Error; err != nil {
			respondPersistence(c, "unsubscribe newsletter subscription", err)
			return
		}
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{subscription.Email},
			Subject:  "You have been unsubscribed",
			Template: "newsletter_unsubscribed",
			Data:     map[string]interface{}{"name": subscription.Name},
		})
	}

	respondSuccess(c, http.StatusOK, "Unsubscribed successfully", gin.H{
		"email": subscription.Email,
	})
}

// GetStats handles GET /newsletter/stats.
func (ctl *NewsletterController) GetStats(c *gin.Context) {
	var total, active int64
	if err := ctl.db.Model(&models.NewsletterSubscription{}).Count(&total).Error; err != nil {
		respondPersistence(c, "newsletter stats total", err)
		return
	}
	if err := ctl.db.Model(&models.NewsletterSubscription{}).
		Where("is_active = ?", true).Count(&active).Error; err != nil {
		respondPersistence(c, "newsletter stats active", err)
		return
	}

	// Preference tags live in a JSON column, so the breakdown is computed
	// here rather than in SQL.
	var subscriptions []models.NewsletterSubscription
	if err := ctl.db.Where("is_active = ?", true).
		Select("preferences").Find(&subscriptions).Error; err != nil {
		respondPersistence(c, "newsletter stats preferences", err)
		return
	}
	preferenceCounts := make(map[string]int64, len(models.AllowedNewsletterPreferences))
	for _, tag := range models.AllowedNewsletterPreferences {
		preferenceCounts[tag] = 0
	}
	for _, sub := range subscriptions {
		for _, tag := range sub.PreferenceList() {
			preferenceCounts[tag]++
		}
	}

	trend, err := monthlyTrend(ctl.db, &models.NewsletterSubscription{})
	if err != nil {
		respondPersistence(c, "newsletter stats trend", err)
		return
	}
	recent, err := recentCount(ctl.db, &models.NewsletterSubscription{}, recentWindowDays)
	if err != nil {
		respondPersistence(c, "newsletter stats recent", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Statistics fetched", gin.H{
		"total":          total,
		"active":         active,
		"inactive":       total - active,
		"by_preference":  preferenceCounts,
		"monthly_trend":  trend,
		"recent_30_days": recent,
	})
}
