package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visa-consult-api/config"
	"visa-consult-api/services"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

// newTestEnv builds a full API instance against an in-memory store, with a
// log-only mail transport.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { config.CloseDB(db) })

	notifier := services.NewNotifier(services.LogOnlyMail, 16)
	t.Cleanup(notifier.Close)

	uploadDir := t.TempDir()

	router := gin.New()
	registerRoutes(router, db, notifier, uploadDir)

	return &testEnv{router: router, db: db}
}

// registerRoutes mirrors routes.SetupRoutes for the paths under test. The
// routes package is not imported here to avoid an import cycle.
func registerRoutes(router *gin.Engine, db *gorm.DB, notifier *services.Notifier, uploadDir string) {
	visa := NewVisaController(db, notifier, "ops@example.org", uploadDir)
	contact := NewContactController(db, notifier, "ops@example.org")
	feedback := NewFeedbackController(db, notifier, "ops@example.org")
	newsletter := NewNewsletterController(db, notifier)
	health := NewHealthController(db)

	v1 := router.Group("/api/v1")
	v1.POST("/visa/application", visa.SubmitApplication)
	v1.GET("/visa/status/:applicationId", visa.GetApplicationStatus)
	v1.GET("/visa/applications", visa.ListApplications)
	v1.PATCH("/visa/applications/:id/status", visa.UpdateApplicationStatus)
	v1.GET("/visa/stats", visa.GetStats)
	v1.POST("/contact", contact.SubmitMessage)
	v1.GET("/contact/messages", contact.ListMessages)
	v1.PATCH("/contact/:id/status", contact.UpdateMessageStatus)
	v1.GET("/contact/stats", contact.GetStats)
	v1.POST("/feedback", feedback.SubmitFeedback)
	v1.GET("/feedback/entries", feedback.ListFeedback)
	v1.PATCH("/feedback/:id/status", feedback.UpdateFeedbackStatus)
	v1.GET("/feedback/stats", feedback.GetStats)
	v1.POST("/newsletter/subscribe", newsletter.Subscribe)
	v1.POST("/newsletter/unsubscribe", newsletter.Unsubscribe)
	v1.GET("/newsletter/stats", newsletter.GetStats)
	v1.GET("/health", health.Health)
	v1.GET("/health/detailed", health.HealthDetailed)
	v1.GET("/health/ping", health.Ping)
}

func (env *testEnv) doJSON(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func dataField(t *testing.T, body map[string]interface{}, key string) interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data[key]
}

// multipartBuilder assembles visa application submissions for tests.
type multipartBuilder struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newMultipartBuilder() *multipartBuilder {
	b := &multipartBuilder{}
	b.writer = multipart.NewWriter(&b.buf)
	return b
}

func (b *multipartBuilder) field(name, value string) *multipartBuilder {
	b.writer.WriteField(name, value)
	return b
}

func (b *multipartBuilder) file(field, filename, contentType string, content []byte) *multipartBuilder {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := b.writer.CreatePart(header)
	if err != nil {
		panic(err)
	}
	part.Write(content)
	return b
}

func (b *multipartBuilder) request(path string) *http.Request {
	b.writer.Close()
	req := httptest.NewRequest(http.MethodPost, path, &b.buf)
	req.Header.Set("Content-Type", b.writer.FormDataContentType())
	return req
}
