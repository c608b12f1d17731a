package controllers

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"testing"
	"time"

	"visa-consult-api/models"
	"visa-consult-api/services"
)

var visaIDFormat = regexp.MustCompile(`^VA-\d+-[A-Z0-9]+$`)

const dateLayout = "2006-01-02"

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(dateLayout)
}

func visaFormFields(arrival, departure string, duration int) *multipartBuilder {
	return newMultipartBuilder().
		field("first_name", "Ada").
		field("last_name", "Lovelace").
		field("email", "Ada@Example.com").
		field("phone", "+44 20 7946 0958").
		field("nationality", "British").
		field("passport_number", "ab1234567").
		field("date_of_birth", "1990-12-10").
		field("visa_type", "tourist").
		field("destination_country", "France").
		field("arrival_date", arrival).
		field("departure_date", departure).
		field("duration_of_stay", strconv.Itoa(duration)).
		field("purpose", "Tourism and visiting museums in Paris")
}

func validVisaForm(arrival, departure string, duration int) *multipartBuilder {
	return visaFormFields(arrival, departure, duration).
		file("passport_copy", "passport.pdf", "application/pdf", []byte("%PDF-1.4 fake")).
		file("photo", "photo.jpg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
}

func TestSubmitApplicationAccepted(t *testing.T) {
	env := newTestEnv(t)

	req := validVisaForm(futureDate(30), futureDate(35), 5).
		request("/api/v1/visa/application")
	w := env.do(t, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	appID, _ := dataField(t, body, "application_id").(string)
	if !visaIDFormat.MatchString(appID) {
		t.Fatalf("application_id %q does not match the VA format", appID)
	}
	if status := dataField(t, body, "status"); status != "pending" {
		t.Fatalf("expected initial status pending, got %v", status)
	}

	// Normalization carried into the stored record.
	var stored models.VisaApplication
	if err := env.db.Where("application_id = ?", appID).First(&stored).Error; err != nil {
		t.Fatalf("application row not persisted: %v", err)
	}
	if stored.Email != "ada@example.com" {
		t.Fatalf("email not case-folded: %q", stored.Email)
	}
	if stored.PassportNumber != "AB1234567" {
		t.Fatalf("passport number not uppercased: %q", stored.PassportNumber)
	}

	var docCount int64
	env.db.Model(&models.VisaDocument{}).Where("application_id = ?", appID).Count(&docCount)
	if docCount != 2 {
		t.Fatalf("expected 2 document rows, got %d", docCount)
	}

	var logCount int64
	env.db.Model(&models.StatusLogEntry{}).Where("application_id = ?", appID).Count(&logCount)
	if logCount != 1 {
		t.Fatalf("expected 1 initial status log entry, got %d", logCount)
	}
}

func TestSubmitApplicationDurationMismatch(t *testing.T) {
	env := newTestEnv(t)

	// 5-day gap with a declared duration of 6 must be rejected, never
	// auto-corrected.
	req := validVisaForm(futureDate(30), futureDate(35), 6).
		request("/api/v1/visa/application")
	w := env.do(t, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	errs, _ := body["errors"].([]interface{})
	if len(errs) != 1 {
		t.Fatalf("expected exactly one field error, got %v", errs)
	}
	first, _ := errs[0].(map[string]interface{})
	if first["field"] != "duration_of_stay" {
		t.Fatalf("expected error on duration_of_stay, got %v", first)
	}

	var count int64
	env.db.Model(&models.VisaApplication{}).Count(&count)
	if count != 0 {
		t.Fatal("rejected submission must not be persisted")
	}
}

func TestSubmitApplicationDepartureBeforeArrival(t *testing.T) {
	env := newTestEnv(t)

	req := validVisaForm(futureDate(35), futureDate(30), 5).
		request("/api/v1/visa/application")
	w := env.do(t, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	errs, _ := body["errors"].([]interface{})
	first, _ := errs[0].(map[string]interface{})
	if first["field"] != "departure_date" {
		t.Fatalf("expected error on departure_date, got %v", first)
	}
}

func TestSubmitApplicationMissingRequiredFiles(t *testing.T) {
	env := newTestEnv(t)

	builder := visaFormFields(futureDate(30), futureDate(35), 5)

	w := env.do(t, builder.request("/api/v1/visa/application"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["code"] != "MISSING_REQUIRED_FILES" {
		t.Fatalf("expected MISSING_REQUIRED_FILES, got %v", body["code"])
	}
}

func TestSubmitApplicationRejectsWrongMimeType(t *testing.T) {
	env := newTestEnv(t)

	req := visaFormFields(futureDate(30), futureDate(35), 5).
		file("passport_copy", "passport.pdf", "application/pdf", []byte("%PDF-1.4 fake")).
		file("photo", "photo.exe", "application/x-msdownload", []byte("MZ")).
		request("/api/v1/visa/application")
	w := env.do(t, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["code"] != "UPLOAD_ERROR" {
		t.Fatalf("expected UPLOAD_ERROR, got %v", body["code"])
	}
}

func TestGetApplicationStatus(t *testing.T) {
	env := newTestEnv(t)

	req := validVisaForm(futureDate(30), futureDate(35), 5).
		request("/api/v1/visa/application")
	w := env.do(t, req)
	appID, _ := dataField(t, decodeBody(t, w), "application_id").(string)

	first := env.doJSON(t, http.MethodGet, "/api/v1/visa/status/"+appID, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}

	// Idempotence: no intervening update, byte-identical responses.
	second := env.doJSON(t, http.MethodGet, "/api/v1/visa/status/"+appID, nil)
	if first.Body.String() != second.Body.String() {
		t.Fatal("repeated status lookups must be byte-identical")
	}

	missing := env.doJSON(t, http.MethodGet, "/api/v1/visa/status/VA-0-XXXXXX", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown identifier, got %d", missing.Code)
	}
	if body := decodeBody(t, missing); body["code"] != "APPLICATION_NOT_FOUND" {
		t.Fatalf("expected APPLICATION_NOT_FOUND, got %v", body["code"])
	}
}

func seedApplications(t *testing.T, env *testEnv, status string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		app := models.VisaApplication{
			ApplicationID:      services.NewSubmissionID(services.PrefixVisa) + fmt.Sprintf("%03d", i),
			FirstName:          "Test",
			LastName:           "Applicant",
			Email:              "test@example.com",
			VisaType:           "tourist",
			DestinationCountry: "France",
			Status:             status,
		}
		if err := env.db.Create(&app).Error; err != nil {
			t.Fatalf("seed application: %v", err)
		}
	}
}

func TestListApplicationsPagination(t *testing.T) {
	env := newTestEnv(t)
	seedApplications(t, env, models.VisaStatusApproved, 25)
	seedApplications(t, env, models.VisaStatusPending, 7)

	w := env.doJSON(t, http.MethodGet,
		"/api/v1/visa/applications?status=approved&page=2&limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	apps, _ := dataField(t, body, "applications").([]interface{})
	if len(apps) != 10 {
		t.Fatalf("expected 10 records on page 2, got %d", len(apps))
	}
	for _, raw := range apps {
		app, _ := raw.(map[string]interface{})
		if app["status"] != "approved" {
			t.Fatalf("filtered listing returned status %v", app["status"])
		}
	}

	pagination, _ := dataField(t, body, "pagination").(map[string]interface{})
	if got := pagination["total_count"].(float64); got != 25 {
		t.Fatalf("expected total_count 25, got %v", got)
	}
	if got := pagination["total_pages"].(float64); got != 3 {
		t.Fatalf("expected total_pages ceil(25/10)=3, got %v", got)
	}
}

func TestListApplicationsUnknownSortFallsBack(t *testing.T) {
	env := newTestEnv(t)
	seedApplications(t, env, models.VisaStatusPending, 3)

	w := env.doJSON(t, http.MethodGet,
		"/api/v1/visa/applications?sort_by=passport_number;DROP%20TABLE", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unrecognized sort column must fall back, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateApplicationStatus(t *testing.T) {
	env := newTestEnv(t)

	req := validVisaForm(futureDate(30), futureDate(35), 5).
		request("/api/v1/visa/application")
	appID, _ := dataField(t, decodeBody(t, env.do(t, req)), "application_id").(string)

	// Invalid target status leaves the record unchanged.
	w := env.doJSON(t, http.MethodPatch, "/api/v1/visa/applications/"+appID+"/status",
		map[string]string{"status": "granted"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
	var app models.VisaApplication
	env.db.Where("application_id = ?", appID).First(&app)
	if app.Status != models.VisaStatusPending {
		t.Fatalf("record changed after rejected transition: %q", app.Status)
	}

	// Valid transition appends to the audit trail.
	w = env.doJSON(t, http.MethodPatch, "/api/v1/visa/applications/"+appID+"/status",
		map[string]string{"status": "reviewing", "notes": "Documents look complete"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var history []models.StatusLogEntry
	env.db.Where("application_id = ?", appID).Order("created_at ASC, id ASC").Find(&history)
	if len(history) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(history))
	}
	last := history[len(history)-1]
	if last.OldStatus != models.VisaStatusPending || last.NewStatus != models.VisaStatusReviewing {
		t.Fatalf("unexpected audit entry: %+v", last)
	}
	if last.Notes != "Documents look complete" {
		t.Fatalf("audit notes not stored: %+v", last)
	}

	w = env.doJSON(t, http.MethodPatch, "/api/v1/visa/applications/VA-0-XXXXXX/status",
		map[string]string{"status": "reviewing"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown identifier, got %d", w.Code)
	}
}

func TestVisaStats(t *testing.T) {
	env := newTestEnv(t)
	seedApplications(t, env, models.VisaStatusApproved, 2)
	seedApplications(t, env, models.VisaStatusPending, 3)

	w := env.doJSON(t, http.MethodGet, "/api/v1/visa/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if got := dataField(t, body, "total").(float64); got != 5 {
		t.Fatalf("expected total 5, got %v", got)
	}
	byStatus, _ := dataField(t, body, "by_status").([]interface{})
	if len(byStatus) != 2 {
		t.Fatalf("expected 2 status buckets, got %v", byStatus)
	}
	if got := dataField(t, body, "recent_30_days").(float64); got != 5 {
		t.Fatalf("expected 5 recent records, got %v", got)
	}
}
