// utils/files.go - Upload storage helpers
package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadSize caps each uploaded file at 10MB.
const MaxUploadSize = int64(10 * 1024 * 1024)

// Per-field MIME whitelists for visa application uploads. A file whose
// declared type is not on its field's list is rejected before anything is
// written to storage.
var DocumentMimeWhitelist = map[string][]string{
	"passport_copy":        {"application/pdf", "image/jpeg", "image/jpg", "image/png"},
	"photo":                {"image/jpeg", "image/jpg", "image/png"},
	"cv":                   {"application/pdf", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"additional_documents": {"application/pdf", "image/jpeg", "image/jpg", "image/png", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// AllowedMimeType checks the declared content type of an upload against the
// whitelist for its form field.
func AllowedMimeType(field string, header *multipart.FileHeader) bool {
	allowed, ok := DocumentMimeWhitelist[field]
	if !ok {
		return false
	}
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	// Strip parameters such as "; charset=binary".
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	for _, mime := range allowed {
		if contentType == mime {
			return true
		}
	}
	return false
}

// UploadBasePath returns the root directory for stored documents.
func UploadBasePath() string {
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	return uploadPath
}

// CreateSubmissionFolder creates (if needed) the per-application directory
// files are stored under and returns its path.
func CreateSubmissionFolder(basePath, applicationID string) (string, error) {
	folder := filepath.Join(basePath, applicationID)
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return "", err
	}
	return folder, nil
}

// GenerateUniqueFilename keeps the original filename when it is free and
// appends a numeric suffix otherwise. Path separators in the client-supplied
// name are stripped first.
func GenerateUniqueFilename(folder, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "" || base == "." {
		base = "document"
	}

	candidate := base
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(folder, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}
