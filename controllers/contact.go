package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visa-consult-api/models"
	apperrors "visa-consult-api/pkg/errors"
	"visa-consult-api/services"
	"visa-consult-api/validation"
)

var contactRules = validation.RuleSet{
	Name: "contact_message",
	Rules: []validation.Rule{
		{Field: "name", Required: true, MinLen: 2, MaxLen: 100, Pattern: namePattern,
			PatternMsg: "name may only contain letters, spaces, hyphens and apostrophes"},
		{Field: "email", Required: true, Lowercase: true, MaxLen: 254, Pattern: emailPattern,
			PatternMsg: "email must be a valid email address"},
		{Field: "phone", Pattern: phonePattern,
			PatternMsg: "phone must be a valid phone number"},
		{Field: "inquiry_type", Required: true, Lowercase: true, Enum: models.AllowedInquiryTypes},
		{Field: "subject", Required: true, MinLen: 3, MaxLen: 200},
		{Field: "message", Required: true, MinLen: 10, MaxLen: 5000},
	},
}

// ContactController handles contact message intake and the operator
// follow-up workflow.
type ContactController struct {
	db         *gorm.DB
	notifier   *services.Notifier
	adminEmail string
}

// NewContactController constructs the controller with its dependencies.
func NewContactController(db *gorm.DB, notifier *services.Notifier, adminEmail string) *ContactController {
	return &ContactController{db: db, notifier: notifier, adminEmail: adminEmail}
}

// SubmitMessage handles POST /contact.
func (ctl *ContactController) SubmitMessage(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	values, failures := contactRules.Apply(raw)
	if len(failures) > 0 {
		respondValidation(c, failures)
		return
	}

	messageID := services.NewSubmissionID(services.PrefixContact)
	message := models.ContactMessage{
		MessageID:   messageID,
		Name:        values.String("name"),
		Email:       values.String("email"),
		Phone:       values.String("phone"),
		InquiryType: values.String("inquiry_type"),
		Subject:     values.String("subject"),
		Message:     values.String("message"),
		Status:      models.ContactStatusNew,
	}

	if err := ctl.db.Create(&message).Error; err != nil {
		respondPersistence(c, "create contact message", err)
		return
	}

	ctl.notifier.Enqueue(services.Notification{
		To:       []string{message.Email},
		Subject:  "We received your message " + messageID,
		Template: "contact_received",
		Data: map[string]interface{}{
			"name":       message.Name,
			"message_id": messageID,
			"subject":    message.Subject,
		},
	})
	if ctl.adminEmail != "" {
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{ctl.adminEmail},
			Subject:  "New contact message " + messageID,
			Template: "operator_alert",
			Data: map[string]interface{}{
				"title": "New Contact Message",
				"rows": []services.MetaRow{
					{Label: "Reference", Value: messageID},
					{Label: "From", Value: message.Name},
					{Label: "Inquiry", Value: message.InquiryType},
					{Label: "Subject", Value: message.Subject},
				},
			},
		})
	}

	respondSuccess(c, http.StatusCreated, "Message sent successfully", gin.H{
		"message_id": messageID,
		"status":     models.ContactStatusNew,
	})
}

// ListMessages handles GET /contact/messages.
func (ctl *ContactController) ListMessages(c *gin.Context) {
	params := parsePageParams(c, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"status":     true,
	})

	query := ctl.db.Model(&models.ContactMessage{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if inquiryType := c.Query("inquiry_type"); inquiryType != "" {
		query = query.Where("inquiry_type = ?", inquiryType)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		respondPersistence(c, "count contact messages", err)
		return
	}

	var messages []models.ContactMessage
	if err := query.Order(params.OrderClause()).
		Offset(params.Offset).Limit(params.Limit).
		Find(&messages).Error; err != nil {
		respondPersistence(c, "list contact messages", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Messages fetched", gin.H{
		"messages":   messages,
		"pagination": paginationEnvelope(params, totalCount),
	})
}

// UpdateMessageStatus handles PATCH /contact/:id/status. Notes are stored
// inline on the record; reaching "resolved" notifies the submitter.
func (ctl *ContactController) UpdateMessageStatus(c *gin.Context) {
	messageID := c.Param("id")

	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	if !containsString(models.AllowedContactStatuses, req.Status) {
		respondValidation(c, []validation.FieldError{{
			Field:   "status",
			Message: "status must be one of the allowed contact statuses",
			Value:   req.Status,
		}})
		return
	}

	var message models.ContactMessage
	err := ctl.db.Where("message_id = ?", messageID).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondAppError(c, apperrors.New(apperrors.ErrCodeNotFound, "Contact message not found"))
			return
		}
		respondPersistence(c, "fetch contact message", err)
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.AdminNotes != "" {
		updates["admin_notes"] = req.AdminNotes
	}
	if err := ctl.db.Model(&message).Updates(updates).Error; err != nil {
		respondPersistence(c, "update contact message status", err)
		return
	}

	if req.Status == models.ContactStatusResolved && message.Email != "" {
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{message.Email},
			Subject:  "Your inquiry " + messageID + " has been resolved",
			Template: "contact_resolved",
			Data: map[string]interface{}{
				"name":       message.Name,
				"message_id": messageID,
				"subject":    message.Subject,
			},
		})
	}

	respondSuccess(c, http.StatusOK, "Message status updated", gin.H{
		"message_id": messageID,
		"status":     req.Status,
	})
}

// GetStats handles GET /contact/stats.
func (ctl *ContactController) GetStats(c *gin.Context) {
	byStatus, err := countGrouped(ctl.db, &models.ContactMessage{}, "status")
	if err != nil {
		respondPersistence(c, "contact stats by status", err)
		return
	}
	byInquiry, err := countGrouped(ctl.db, &models.ContactMessage{}, "inquiry_type")
	if err != nil {
		respondPersistence(c, "contact stats by inquiry", err)
		return
	}
	trend, err := monthlyTrend(ctl.db, &models.ContactMessage{})
	if err != nil {
		respondPersistence(c, "contact stats trend", err)
		return
	}
	recent, err := recentCount(ctl.db, &models.ContactMessage{}, recentWindowDays)
	if err != nil {
		respondPersistence(c, "contact stats recent", err)
		return
	}

	var total int64
	if err := ctl.db.Model(&models.ContactMessage{}).Count(&total).Error; err != nil {
		respondPersistence(c, "contact stats total", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Statistics fetched", gin.H{
		"total":           total,
		"by_status":       byStatus,
		"by_inquiry_type": byInquiry,
		"monthly_trend":   trend,
		"recent_30_days":  recent,
	})
}
