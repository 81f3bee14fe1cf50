package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/logging"
)

// defaultMultipartMemory matches http.defaultMaxMemory; larger parts are
// staged to temp files which the handlers remove via Form.RemoveAll.
const defaultMultipartMemory = 4 << 20

// parseUploadForm parses a size-limited multipart request and arranges for
// any disk-staged parts to be removed when the request finishes, on success
// and failure alike.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipart.Form, func(), bool) {
	ctx := r.Context()
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(defaultMultipartMemory); err != nil {
		logging.FromContext(ctx).Warn("invalid multipart payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return nil, nil, false
	}

	form := r.MultipartForm
	cleanup := func() {
		if err := form.RemoveAll(); err != nil {
			logging.FromContext(ctx).Warn("remove staged uploads", "error", err)
		}
	}
	return form, cleanup, true
}

// checkUploadFields validates the request's file fields against the
// configured policy: expected names only, per-field count limits, required
// fields present.
func checkUploadFields(form *multipart.Form, policy []config.UploadField) []string {
	var violations []string

	allowed := make(map[string]config.UploadField, len(policy))
	for _, field := range policy {
		allowed[field.Name] = field
	}

	for name := range form.File {
		if _, ok := allowed[name]; !ok {
			violations = append(violations, fmt.Sprintf("unexpected file field %q", name))
		}
	}

	for _, field := range policy {
		files := form.File[field.Name]
		if field.MaxCount > 0 && len(files) > field.MaxCount {
			violations = append(violations, fmt.Sprintf("field %q accepts at most %d file(s)", field.Name, field.MaxCount))
		}
		if field.Required && len(files) == 0 {
			violations = append(violations, fmt.Sprintf("%s file is required", field.Name))
		}
	}

	return violations
}

// saveUpload streams one staged file to media storage and returns its public
// reference. Uploads are the slowest part of registration, so each one runs
// under its own span.
func saveUpload(ctx context.Context, media MediaStorage, prefix string, header *multipart.FileHeader) (string, error) {
	ctx, span := logging.StartSpan(ctx, "media upload")
	defer span.End()

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)

	return media.Save(ctx, key, header.Header.Get("Content-Type"), file)
}
