package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/md2notion/internal/parser"
	"github.com/dgallion1/md2notion/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) parentPage(r *http.Request) string {
	if p := param(r, "parent_page_id"); p != "" {
		return p
	}
	return s.cfg.NotionParentPageID
}

func pollURL(jobID string) string {
	return fmt.Sprintf("/api/pages/%s/status", jobID)
}

// handlePublish queues a document to be published as a new page.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	up, herr := s.readUpload(w, r)
	if herr != nil {
		jsonError(w, herr.msg, herr.code)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	parent := s.parentPage(r)
	if parent == "" {
		jsonError(w, "parent_page_id is required", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(up.filename, param(r, "title"), parent, up.data, param(r, "force") == "true")
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": pollURL(job.ID),
	})
}

func (s *Server) handlePublishStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleBatchPublish queues every file of a multipart "files" field. Files
// are accepted or rejected individually.
func (s *Server) handleBatchPublish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	parent := s.parentPage(r)
	if parent == "" {
		jsonError(w, "parent_page_id is required", http.StatusBadRequest)
		return
	}
	force := r.FormValue("force") == "true"

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		fail := func(msg string) {
			results = append(results, map[string]any{"filename": filename, "error": msg})
		}
		if !parser.IsSupportedExtension(filename) {
			fail(fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)))
			continue
		}

		f, err := fh.Open()
		if err != nil {
			fail("failed to open file")
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			fail("file too large or read error")
			continue
		}

		job := pipeline.NewJob(filename, "", parent, data, force)
		if err := s.orchestrator.Submit(job); err != nil {
			if errors.Is(err, pipeline.ErrQueueFull) {
				s.log.Warn("batch publish: queue full", "filename", filename)
			}
			fail(err.Error())
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": pollURL(job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}
