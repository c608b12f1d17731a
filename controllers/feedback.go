package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visa-consult-api/models"
	apperrors "visa-consult-api/pkg/errors"
	"visa-consult-api/services"
	"visa-consult-api/validation"
)

var applicationIDPattern = regexp.MustCompile(`^VA-\d+-[A-Z0-9]+$`)

var feedbackRules = validation.RuleSet{
	Name: "feedback_entry",
	Rules: []validation.Rule{
		{Field: "name", Required: true, MinLen: 2, MaxLen: 100, Pattern: namePattern,
			PatternMsg: "name may only contain letters, spaces, hyphens and apostrophes"},
		{Field: "email", Required: true, Lowercase: true, MaxLen: 254, Pattern: emailPattern,
			PatternMsg: "email must be a valid email address"},
		{Field: "rating", Required: true, Int: true, Min: intPtr(1), Max: intPtr(5)},
		{Field: "feedback_type", Required: true, Lowercase: true, Enum: models.AllowedFeedbackTypes},
		{Field: "subject", Required: true, MinLen: 3, MaxLen: 200},
		{Field: "message", Required: true, MinLen: 10, MaxLen: 5000},
		{Field: "would_recommend", Required: true, Lowercase: true, Enum: models.AllowedRecommendations},
		{Field: "application_id", Uppercase: true, Pattern: applicationIDPattern,
			PatternMsg: "application_id must be a valid application reference"},
	},
}

// FeedbackController handles feedback intake and the operator review
// workflow.
type FeedbackController struct {
	db         *gorm.DB
	notifier   *services.Notifier
	adminEmail string
}

// NewFeedbackController constructs the controller with its dependencies.
func NewFeedbackController(db *gorm.DB, notifier *services.Notifier, adminEmail string) *FeedbackController {
	return &FeedbackController{db: db, notifier: notifier, adminEmail: adminEmail}
}

// SubmitFeedback handles POST /feedback.
func (ctl *FeedbackController) SubmitFeedback(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	values, failures := feedbackRules.Apply(raw)
	if len(failures) > 0 {
		respondValidation(c, failures)
		return
	}

	feedbackID := services.NewSubmissionID(services.PrefixFeedback)
	entry := models.FeedbackEntry{
		FeedbackID:     feedbackID,
		Name:           values.String("name"),
		Email:          values.String("email"),
		Rating:         values.Int("rating"),
		FeedbackType:   values.String("feedback_type"),
		Subject:        values.String("subject"),
		Message:        values.String("message"),
		WouldRecommend: values.String("would_recommend"),
		Status:         models.FeedbackStatusNew,
	}
	if values.Has("application_id") {
		linked := values.String("application_id")
		entry.ApplicationID = &linked
	}

	if err := ctl.db.Create(&entry).Error; err != nil {
		respondPersistence(c, "create feedback entry", err)
		return
	}

	ctl.notifier.Enqueue(services.Notification{
		To:       []string{entry.Email},
		Subject:  "Thank you for your feedback",
		Template: "feedback_received",
		Data: map[string]interface{}{
			"name":        entry.Name,
			"feedback_id": feedbackID,
			"rating":      entry.Rating,
		},
	})
	if ctl.adminEmail != "" {
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{ctl.adminEmail},
			Subject:  "New feedback " + feedbackID,
			Template: "operator_alert",
			Data: map[string]interface{}{
				"title": "New Feedback",
				"rows": []services.MetaRow{
					{Label: "Reference", Value: feedbackID},
					{Label: "From", Value: entry.Name},
					{Label: "Rating", Value: strconv.Itoa(entry.Rating) + "/5"},
					{Label: "Type", Value: entry.FeedbackType},
					{Label: "Subject", Value: entry.Subject},
				},
			},
		})
	}

	respondSuccess(c, http.StatusCreated, "Feedback submitted successfully", gin.H{
		"feedback_id": feedbackID,
		"status":      models.FeedbackStatusNew,
	})
}

// ListFeedback handles GET /feedback/entries.
func (ctl *FeedbackController) ListFeedback(c *gin.Context) {
	params := parsePageParams(c, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"rating":     true,
		"status":     true,
	})

	query := ctl.db.Model(&models.FeedbackEntry{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if feedbackType := c.Query("feedback_type"); feedbackType != "" {
		query = query.Where("feedback_type = ?", feedbackType)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		respondPersistence(c, "count feedback entries", err)
		return
	}

	var entries []models.FeedbackEntry
	if err := query.Order(params.OrderClause()).
		Offset(params.Offset).Limit(params.Limit).
		Find(&entries).Error; err != nil {
		respondPersistence(c, "list feedback entries", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Feedback fetched", gin.H{
		"entries":    entries,
		"pagination": paginationEnvelope(params, totalCount),
	})
}

// UpdateFeedbackStatus handles PATCH /feedback/:id/status. Reaching
// "responded" notifies the submitter.
func (ctl *FeedbackController) UpdateFeedbackStatus(c *gin.Context) {
	feedbackID := c.Param("id")

	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	if !containsString(models.AllowedFeedbackStatuses, req.Status) {
		respondValidation(c, []validation.FieldError{{
			Field:   "status",
			Message: "status must be one of the allowed feedback statuses",
			Value:   req.Status,
		}})
		return
	}

	var entry models.FeedbackEntry
	err := ctl.db.Where("feedback_id = ?", feedbackID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondAppError(c, apperrors.New(apperrors.ErrCodeNotFound, "Feedback entry not found"))
			return
		}
		respondPersistence(c, "fetch feedback entry", err)
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.AdminNotes != "" {
		updates["admin_notes"] = req.AdminNotes
	}
	if err := ctl.db.Model(&entry).Updates(updates).Error; err != nil {
		respondPersistence(c, "update feedback status", err)
		return
	}

	if req.Status == models.FeedbackStatusResponded && entry.Email != "" {
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{entry.Email},
			Subject:  "We responded to your feedback " + feedbackID,
			Template: "feedback_responded",
			Data: map[string]interface{}{
				"name":        entry.Name,
				"feedback_id": feedbackID,
			},
		})
	}

	respondSuccess(c, http.StatusOK, "Feedback status updated", gin.H{
		"feedback_id": feedbackID,
		"status":      req.Status,
	})
}

// GetStats handles GET /feedback/stats.
func (ctl *FeedbackController) GetStats(c *gin.Context) {
	byStatus, err := countGrouped(ctl.db, &models.FeedbackEntry{}, "status")
	if err != nil {
		respondPersistence(c, "feedback stats by status", err)
		return
	}
	byType, err := countGrouped(ctl.db, &models.FeedbackEntry{}, "feedback_type")
	if err != nil {
		respondPersistence(c, "feedback stats by type", err)
		return
	}
	byRating, err := countGrouped(ctl.db, &models.FeedbackEntry{}, "rating")
	if err != nil {
		respondPersistence(c, "feedback stats by rating", err)
		return
	}
	trend, err := monthlyTrend(ctl.db, &models.FeedbackEntry{})
	if err != nil {
		respondPersistence(c, "feedback stats trend", err)
		return
	}
	recent, err := recentCount(ctl.db, &models.FeedbackEntry{}, recentWindowDays)
	if err != nil {
		respondPersistence(c, "feedback stats recent", err)
		return
	}

	var total int64
	if err := ctl.db.Model(&models.FeedbackEntry{}).Count(&total).Error; err != nil {
		respondPersistence(c, "feedback stats total", err)
		return
	}

	var avgRating float64
	if total > 0 {
		if err := ctl.db.Model(&models.FeedbackEntry{}).
			Select("AVG(rating)").Scan(&avgRating).Error; err != nil {
			respondPersistence(c, "feedback stats avg rating", err)
			return
		}
	}

	respondSuccess(c, http.StatusOK, "Statistics fetched", gin.H{
		"total":          total,
		"average_rating": avgRating,
		"by_status":      byStatus,
		"by_type":        byType,
		"by_rating":      byRating,
		"monthly_trend":  trend,
		"recent_30_days": recent,
	})
}
