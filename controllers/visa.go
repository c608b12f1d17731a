package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visa-consult-api/models"
	apperrors "visa-consult-api/pkg/errors"
	"visa-consult-api/services"
	"visa-consult-api/utils"
	"visa-consult-api/validation"
)

const maxAdditionalDocuments = 5

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s'\-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
	passportPattern = regexp.MustCompile(`^[A-Z0-9]{6,20}$`)
)

func intPtr(n int) *int { return &n }

// visaRules is the declarative rule set for the visa application form.
// Normalization (trim, case-fold email, uppercase passport) happens before
// the shape checks; the cross checks enforce date consistency.
var visaRules = validation.RuleSet{
	Name: "visa_application",
	Rules: []validation.Rule{
		{Field: "first_name", Required: true, MinLen: 2, MaxLen: 50, Pattern: namePattern,
			PatternMsg: "first_name may only contain letters, spaces, hyphens and apostrophes"},
		{Field: "last_name", Required: true, MinLen: 2, MaxLen: 50, Pattern: namePattern,
			PatternMsg: "last_name may only contain letters, spaces, hyphens and apostrophes"},
		{Field: "email", Required: true, Lowercase: true, MaxLen: 254, Pattern: emailPattern,
			PatternMsg: "email must be a valid email address"},
		{Field: "phone", Required: true, Pattern: phonePattern,
			PatternMsg: "phone must be a valid phone number"},
		{Field: "nationality", Required: true, MinLen: 2, MaxLen: 56, Pattern: namePattern,
			PatternMsg: "nationality may only contain letters, spaces, hyphens and apostrophes"},
		{Field: "passport_number", Required: true, Uppercase: true, Pattern: passportPattern,
			PatternMsg: "passport_number must be 6-20 uppercase letters and digits"},
		{Field: "date_of_birth", Required: true, Date: true, PastOnly: true},
		{Field: "visa_type", Required: true, Lowercase: true, Enum: models.AllowedVisaTypes},
		{Field: "destination_country", Required: true, MinLen: 2, MaxLen: 56},
		{Field: "arrival_date", Required: true, Date: true, FutureOnly: true},
		{Field: "departure_date", Required: true, Date: true, FutureOnly: true},
		{Field: "duration_of_stay", Required: true, Int: true, Min: intPtr(1), Max: intPtr(365)},
		{Field: "purpose", Required: true, MinLen: 10, MaxLen: 1000},
	},
	Checks: []validation.CrossCheck{
		func(v validation.Values) *validation.FieldError {
			days, err := validation.DayCount(v.String("arrival_date"), v.String("departure_date"))
			if err != nil {
				return nil
			}
			if days <= 0 {
				return &validation.FieldError{
					Field:   "departure_date",
					Message: "departure_date must be after arrival_date",
					Value:   v.String("departure_date"),
				}
			}
			return nil
		},
		func(v validation.Values) *validation.FieldError {
			days, err := validation.DayCount(v.String("arrival_date"), v.String("departure_date"))
			if err != nil || days <= 0 {
				return nil
			}
			if v.Int("duration_of_stay") != days {
				return &validation.FieldError{
					Field:   "duration_of_stay",
					Message: fmt.Sprintf("duration_of_stay must equal the day count between arrival and departure (%d)", days),
					Value:   fmt.Sprintf("%d", v.Int("duration_of_stay")),
				}
			}
			return nil
		},
	},
}

// VisaController handles visa application intake, status tracking and the
// operator workflow.
type VisaController struct {
	db         *gorm.DB
	notifier   *services.Notifier
	adminEmail string
	uploadPath string
}

// NewVisaController constructs the controller with its dependencies.
func NewVisaController(db *gorm.DB, notifier *services.Notifier, adminEmail, uploadPath string) *VisaController {
	return &VisaController{
		db:         db,
		notifier:   notifier,
		adminEmail: adminEmail,
		uploadPath: uploadPath,
	}
}

// SubmitApplication handles POST /visa/application (multipart).
func (ctl *VisaController) SubmitApplication(c *gin.Context) {
	if _, err := c.MultipartForm(); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Request must be multipart/form-data"))
		return
	}

	raw := make(map[string]interface{}, len(visaRules.Rules))
	for _, rule := range visaRules.Rules {
		if value := c.PostForm(rule.Field); value != "" {
			raw[rule.Field] = value
		}
	}

	values, failures := visaRules.Apply(raw)
	if len(failures) > 0 {
		respondValidation(c, failures)
		return
	}

	files, appErr := ctl.collectFiles(c)
	if appErr != nil {
		respondAppError(c, appErr)
		return
	}

	applicationID := services.NewSubmissionID(services.PrefixVisa)

	documents, err := ctl.storeFiles(c, applicationID, files)
	if err != nil {
		respondAppError(c, apperrors.Wrap(apperrors.ErrCodeUpload, "Failed to store uploaded documents", err))
		return
	}

	application := models.VisaApplication{
		ApplicationID:      applicationID,
		FirstName:          values.String("first_name"),
		LastName:           values.String("last_name"),
		Email:              values.String("email"),
		Phone:              values.String("phone"),
		Nationality:        values.String("nationality"),
		PassportNumber:     values.String("passport_number"),
		DateOfBirth:        values.String("date_of_birth"),
		VisaType:           values.String("visa_type"),
		DestinationCountry: values.String("destination_country"),
		ArrivalDate:        values.String("arrival_date"),
		DepartureDate:      values.String("departure_date"),
		DurationOfStay:     values.Int("duration_of_stay"),
		Purpose:            values.String("purpose"),
		Status:             models.VisaStatusPending,
	}

	err = ctl.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&application).Error; err != nil {
			return err
		}
		if len(documents) > 0 {
			if err := tx.Create(&documents).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.StatusLogEntry{
			ApplicationID: applicationID,
			OldStatus:     "",
			NewStatus:     models.VisaStatusPending,
			Notes:         "Application submitted",
		}).Error
	})
	if err != nil {
		respondPersistence(c, "create visa application", err)
		return
	}

	applicantName := application.FirstName + " " + application.LastName
	ctl.notifier.Enqueue(services.Notification{
		To:       []string{application.Email},
		Subject:  "Your Visa Application " + applicationID,
		Template: "visa_received",
		Data: map[string]interface{}{
			"applicant_name":      applicantName,
			"application_id":      applicationID,
			"visa_type":           application.VisaType,
			"destination_country": application.DestinationCountry,
		},
	})
	if ctl.adminEmail != "" {
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{ctl.adminEmail},
			Subject:  "New visa application " + applicationID,
			Template: "operator_alert",
			Data: map[string]interface{}{
				"title": "New Visa Application",
				"rows": []services.MetaRow{
					{Label: "Application", Value: applicationID},
					{Label: "Applicant", Value: applicantName},
					{Label: "Visa Type", Value: application.VisaType},
					{Label: "Destination", Value: application.DestinationCountry},
					{Label: "Arrival", Value: application.ArrivalDate},
				},
			},
		})
	}

	respondSuccess(c, http.StatusCreated, "Application submitted successfully", gin.H{
		"application_id": applicationID,
		"status":         models.VisaStatusPending,
		"documents":      len(documents),
		"next_steps":     "Our consultants will review your application and contact you within 2 business days.",
	})
}

type uploadedFile struct {
	field        string
	documentType string
	header       *multipart.FileHeader
}

// collectFiles gathers and validates all uploads before anything touches
// disk. passport_copy and photo are mandatory; cv is optional; up to 5
// additional documents are accepted.
func (ctl *VisaController) collectFiles(c *gin.Context) ([]uploadedFile, *apperrors.AppError) {
	var files []uploadedFile
	var missing []string

	for _, field := range []string{"passport_copy", "photo"} {
		header, err := c.FormFile(field)
		if err != nil {
			missing = append(missing, field)
			continue
		}
		files = append(files, uploadedFile{field: field, documentType: field, header: header})
	}
	if len(missing) > 0 {
		return nil, apperrors.New(apperrors.ErrCodeMissingFiles,
			fmt.Sprintf("Required files missing: %v", missing))
	}

	if header, err := c.FormFile("cv"); err == nil {
		files = append(files, uploadedFile{field: "cv", documentType: "cv", header: header})
	}

	form := c.Request.MultipartForm
	if form != nil {
		extra := form.File["additional_documents"]
		if len(extra) > maxAdditionalDocuments {
			return nil, apperrors.New(apperrors.ErrCodeUpload,
				fmt.Sprintf("At most %d additional documents are allowed", maxAdditionalDocuments))
		}
		for _, header := range extra {
			files = append(files, uploadedFile{
				field:        "additional_documents",
				documentType: "additional_document",
				header:       header,
			})
		}
	}

	for _, file := range files {
		if file.header.Size > utils.MaxUploadSize {
			return nil, apperrors.New(apperrors.ErrCodeUpload,
				fmt.Sprintf("%s exceeds the %dMB size limit", file.header.Filename, utils.MaxUploadSize/(1024*1024)))
		}
		if !utils.AllowedMimeType(file.field, file.header) {
			return nil, apperrors.New(apperrors.ErrCodeUpload,
				fmt.Sprintf("%s has a file type not allowed for %s", file.header.Filename, file.field))
		}
	}

	return files, nil
}

// storeFiles writes the validated uploads to durable storage. Files land on
// disk before the referencing rows are committed; a failed later write does
// not roll the files back.
func (ctl *VisaController) storeFiles(c *gin.Context, applicationID string, files []uploadedFile) ([]models.VisaDocument, error) {
	if len(files) == 0 {
		return nil, nil
	}

	folder, err := utils.CreateSubmissionFolder(ctl.uploadPath, applicationID)
	if err != nil {
		return nil, err
	}

	documents := make([]models.VisaDocument, 0, len(files))
	for _, file := range files {
		storedName := utils.GenerateUniqueFilename(folder, file.header.Filename)
		fullPath := filepath.Join(folder, storedName)
		if err := c.SaveUploadedFile(file.header, fullPath); err != nil {
			return nil, err
		}
		documents = append(documents, models.VisaDocument{
			ApplicationID: applicationID,
			DocumentType:  file.documentType,
			OriginalName:  file.header.Filename,
			StoredName:    storedName,
			StoredPath:    fullPath,
			FileSize:      file.header.Size,
			MimeType:      file.header.Header.Get("Content-Type"),
			UploadedAt:    time.Now().UTC(),
		})
	}
	return documents, nil
}

// GetApplicationStatus handles GET /visa/status/:applicationId.
func (ctl *VisaController) GetApplicationStatus(c *gin.Context) {
	applicationID := c.Param("applicationId")

	var application models.VisaApplication
	err := ctl.db.Preload("Documents").
		Where("application_id = ?", applicationID).
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondAppError(c, apperrors.New(apperrors.ErrCodeApplicationMiss, "Application not found"))
			return
		}
		respondPersistence(c, "fetch visa application", err)
		return
	}

	var history []models.StatusLogEntry
	if err := ctl.db.Where("application_id = ?", applicationID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		respondPersistence(c, "fetch status history", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Application found", gin.H{
		"application":    application,
		"status_history": history,
	})
}

// ListApplications handles GET /visa/applications with optional filters,
// allow-listed sorting and pagination.
func (ctl *VisaController) ListApplications(c *gin.Context) {
	params := parsePageParams(c, map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"arrival_date": true,
		"status":       true,
	})

	query := ctl.db.Model(&models.VisaApplication{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if visaType := c.Query("visa_type"); visaType != "" {
		query = query.Where("visa_type = ?", visaType)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		respondPersistence(c, "count visa applications", err)
		return
	}

	var applications []models.VisaApplication
	if err := query.Order(params.OrderClause()).
		Offset(params.Offset).Limit(params.Limit).
		Find(&applications).Error; err != nil {
		respondPersistence(c, "list visa applications", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Applications fetched", gin.H{
		"applications": applications,
		"pagination":   paginationEnvelope(params, totalCount),
	})
}

// UpdateApplicationStatus handles PATCH /visa/applications/:id/status. Any
// target within the allowed set is accepted; the transition graph is
// deliberately permissive. Every change appends a status log entry.
func (ctl *VisaController) UpdateApplicationStatus(c *gin.Context) {
	applicationID := c.Param("id")

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAppError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	if !containsString(models.AllowedVisaStatuses, req.Status) {
		respondValidation(c, []validation.FieldError{{
			Field:   "status",
			Message: "status must be one of the allowed application statuses",
			Value:   req.Status,
		}})
		return
	}

	var application models.VisaApplication
	err := ctl.db.Where("application_id = ?", applicationID).First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondAppError(c, apperrors.New(apperrors.ErrCodeApplicationMiss, "Application not found"))
			return
		}
		respondPersistence(c, "fetch visa application", err)
		return
	}

	oldStatus := application.Status
	err = ctl.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&application).Update("status", req.Status).Error; err != nil {
			return err
		}
		return tx.Create(&models.StatusLogEntry{
			ApplicationID: applicationID,
			OldStatus:     oldStatus,
			NewStatus:     req.Status,
			Notes:         req.Notes,
		}).Error
	})
	if err != nil {
		respondPersistence(c, "update visa application status", err)
		return
	}

	if application.Email != "" {
		ctl.notifier.Enqueue(services.Notification{
			To:       []string{application.Email},
			Subject:  "Update on your visa application " + applicationID,
			Template: "visa_status_changed",
			Data: map[string]interface{}{
				"applicant_name": application.FirstName + " " + application.LastName,
				"application_id": applicationID,
				"new_status":     req.Status,
				"notes":          req.Notes,
			},
		})
	}

	respondSuccess(c, http.StatusOK, "Application status updated", gin.H{
		"application_id": applicationID,
		"old_status":     oldStatus,
		"status":         req.Status,
	})
}

// GetStats handles GET /visa/stats: read-only aggregates for the operator
// dashboard.
func (ctl *VisaController) GetStats(c *gin.Context) {
	byStatus, err := countGrouped(ctl.db, &models.VisaApplication{}, "status")
	if err != nil {
		respondPersistence(c, "visa stats by status", err)
		return
	}
	byType, err := countGrouped(ctl.db, &models.VisaApplication{}, "visa_type")
	if err != nil {
		respondPersistence(c, "visa stats by type", err)
		return
	}
	trend, err := monthlyTrend(ctl.db, &models.VisaApplication{})
	if err != nil {
		respondPersistence(c, "visa stats trend", err)
		return
	}
	recent, err := recentCount(ctl.db, &models.VisaApplication{}, recentWindowDays)
	if err != nil {
		respondPersistence(c, "visa stats recent", err)
		return
	}

	var total int64
	if err := ctl.db.Model(&models.VisaApplication{}).Count(&total).Error; err != nil {
		respondPersistence(c, "visa stats total", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Statistics fetched", gin.H{
		"total":          total,
		"by_status":      byStatus,
		"by_visa_type":   byType,
		"monthly_trend":  trend,
		"recent_30_days": recent,
	})
}

func containsString(set []string, value string) bool {
	for _, item := range set {
		if item == value {
			return true
		}
	}
	return false
}
