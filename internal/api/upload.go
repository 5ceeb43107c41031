package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/md2notion/internal/parser"
)

// upload is a document received either as a multipart "file" field or as
// the raw request body named by ?filename=.
type upload struct {
	filename string
	data     []byte
}

type httpError struct {
	msg  string
	code int
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) *httpError {
	return &httpError{msg: fmt.Sprintf(format, args...), code: http.StatusBadRequest}
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, *httpError) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var (
		filename string
		body     io.Reader
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, badRequest("invalid multipart form: %s", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, badRequest("file is required: %s", err)
		}
		defer file.Close()
		filename, body = header.Filename, file
	} else {
		filename = r.URL.Query().Get("filename")
		if filename == "" {
			return nil, badRequest("filename query parameter is required for raw uploads")
		}
		body = r.Body
	}

	filename = sanitizeFilename(filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, badRequest("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge(s.cfg.MaxUploadBytes)
		}
		return nil, &httpError{msg: "failed to read file", code: http.StatusInternalServerError}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, tooLarge(s.cfg.MaxUploadBytes)
	}
	return &upload{filename: filename, data: data}, nil
}

func tooLarge(limit int64) *httpError {
	return &httpError{msg: fmt.Sprintf("file exceeds max size (%d bytes)", limit), code: http.StatusRequestEntityTooLarge}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// param reads a form field or, for raw uploads, a query parameter.
func param(r *http.Request, key string) string {
	if r.MultipartForm != nil {
		if v := r.FormValue(key); v != "" {
			return v
		}
	}
	return r.URL.Query().Get(key)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
