package api

import (
	"io"
	"net/http"
)

// handleConvert converts a document and returns the blocks without
// publishing anything.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, herr := s.readUpload(w, r)
	if herr != nil {
		jsonError(w, herr.msg, herr.code)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	docs := s.orchestrator.Documents()
	doc, err := docs.Parse(up.filename, up.data)
	if err != nil {
		s.log.Warn("convert: parse failed", "filename", up.filename, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if title := param(r, "title"); title != "" {
		doc.Title = title
	}

	writeJSON(w, http.StatusOK, docs.Convert(doc))
}

// handleConvertInline converts a Markdown snippet to a rich text array.
func (s *Server) handleConvertInline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	runs, err := s.orchestrator.Documents().ConvertInline(string(body))
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rich_text": runs})
}
