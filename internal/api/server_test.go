package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/config"
	"github.com/dgallion1/md2notion/internal/notion"
	"github.com/dgallion1/md2notion/internal/pipeline"
)

const testKey = "test-key"

type fakeNotion struct {
	mu     sync.Mutex
	pages  int
	nextID int
	stats  *notion.Stats
}

func (f *fakeNotion) CreatePage(context.Context, notion.CreatePageRequest) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages++
	return &notion.Page{ID: fmt.Sprintf("page-%d", f.pages), URL: "https://notion.so/x"}, nil
}

func (f *fakeNotion) AppendChildren(_ context.Context, _ string, blocks []block.Block) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(blocks))
	for i := range blocks {
		ids[i] = fmt.Sprintf("b%d", f.nextID)
		f.nextID++
	}
	return ids, nil
}

func (f *fakeNotion) Stats() *notion.Stats { return f.stats }

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *fakeNotion) {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.NotionToken = "tok"
	if mutate != nil {
		mutate(&cfg)
	}

	log := slog.New(slog.DiscardHandler)
	f := &fakeNotion{stats: notion.NewStats(time.Hour)}
	orch := pipeline.NewOrchestrator(cfg, f, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, f, log, cfg), f
}

func do(t *testing.T, srv http.Handler, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json %q: %v", rec.Body.String(), err)
	}
	return out
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, auth := range []string{"", "Bearer wrong", "Basic " + testKey} {
		req := httptest.NewRequest(http.MethodPost, "/api/convert?filename=a.md", strings.NewReader("x"))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: expected 401, got %d", auth, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("auth %q: content type %q", auth, ct)
		}
	}
}

func TestConvertRawBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	md := "# Heading\n\n- [x] done\n\n$$\na+b=c\n$$\n"
	rec := do(t, srv, http.MethodPost, "/api/convert?filename=notes.md&title=Mine", []byte(md), "text/markdown")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if body["title"] != "Mine" {
		t.Errorf("title = %v", body["title"])
	}
	blocks := body["blocks"].([]any)
	var types []string
	for _, b := range blocks {
		types = append(types, b.(map[string]any)["type"].(string))
	}
	if strings.Join(types, ",") != "heading_1,to_do,equation" {
		t.Errorf("unexpected block types %v", types)
	}
	if len(body["warnings"].([]any)) != 0 || len(body["errors"].([]any)) != 0 {
		t.Errorf("expected no warnings or errors, got %v %v", body["warnings"], body["errors"])
	}
}

func TestConvertMultipart(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	body, ct := multipartBody(t, "file", map[string]string{"page.html": "<h2>Hi</h2><p>there</p>"}, nil)
	rec := do(t, srv, http.MethodPost, "/api/convert", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	blocks := decode(t, rec)["blocks"].([]any)
	if len(blocks) != 2 || blocks[0].(map[string]any)["type"] != "heading_2" {
		t.Errorf("unexpected blocks %v", blocks)
	}
}

func TestConvertRejectsBadUploads(t *testing.T) {
	srv, _ := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 16 })

	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"no filename", "/api/convert", "hello", http.StatusBadRequest},
		{"unsupported", "/api/convert?filename=data.xyz", "hello", http.StatusBadRequest},
		{"too large", "/api/convert?filename=a.md", strings.Repeat("x", 64), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.target, []byte(tt.body), "text/plain")
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if decode(t, rec)["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestConvertInline(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/convert/inline", []byte("**bold** and $x$"), "text/markdown")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	runs := decode(t, rec)["rich_text"].([]any)
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %v", runs)
	}
	if runs[2].(map[string]any)["type"] != "equation" {
		t.Errorf("expected trailing equation, got %v", runs[2])
	}
}

func waitForJob(t *testing.T, srv http.Handler, pollURL string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(t, srv, http.MethodGet, pollURL, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status endpoint returned %d", rec.Code)
		}
		snap := decode(t, rec)
		if pipeline.JobStatus(snap["status"].(string)).Done() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return nil
}

func TestPublishAndPoll(t *testing.T) {
	srv, f := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/pages?filename=notes.md&parent_page_id=parent-1", []byte("# Hi\n\n- a\n  - b\n"), "text/markdown")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode(t, rec)
	if accepted["status"] != "queued" {
		t.Errorf("unexpected status %v", accepted["status"])
	}

	snap := waitForJob(t, srv, accepted["poll_url"].(string))
	if snap["status"] != "completed" || snap["parent_page_id"] != "parent-1" || snap["page_id"] != "page-1" {
		t.Errorf("unexpected final snapshot %v", snap)
	}
	progress := snap["progress"].(map[string]any)
	if progress["blocks_published"].(float64) != 3 {
		t.Errorf("unexpected progress %v", progress)
	}

	// Same content again is skipped.
	rec = do(t, srv, http.MethodPost, "/api/pages?filename=notes.md&parent_page_id=parent-1", []byte("# Hi\n\n- a\n  - b\n"), "text/markdown")
	snap = waitForJob(t, srv, decode(t, rec)["poll_url"].(string))
	if snap["status"] != "duplicate_skipped" {
		t.Errorf("expected duplicate_skipped, got %v", snap["status"])
	}
	f.mu.Lock()
	pages := f.pages
	f.mu.Unlock()
	if pages != 1 {
		t.Errorf("expected one page, got %d", pages)
	}
}

func TestPublishRequiresParent(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/pages?filename=notes.md", []byte("x"), "text/markdown")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	srv, _ = newTestServer(t, func(c *config.Config) { c.NotionParentPageID = "default-parent" })
	rec = do(t, srv, http.MethodPost, "/api/pages?filename=notes.md", []byte("x"), "text/markdown")
	if rec.Code != http.StatusAccepted {
		t.Errorf("configured parent should be used, got %d", rec.Code)
	}
}

func TestPublishStatusUnknownJob(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/pages/nope/status", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestBatchPublish(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	body, ct := multipartBody(t, "files",
		map[string]string{"a.md": "# A\n", "b.txt": "plain text", "c.exe": "nope"},
		map[string]string{"parent_page_id": "parent-1"})

	rec := do(t, srv, http.MethodPost, "/api/pages/batch", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	jobs := decode(t, rec)["jobs"].([]any)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(jobs))
	}

	accepted, rejected := 0, 0
	for _, j := range jobs {
		m := j.(map[string]any)
		if _, ok := m["error"]; ok {
			rejected++
			continue
		}
		accepted++
		if snap := waitForJob(t, srv, m["poll_url"].(string)); snap["status"] != "completed" {
			t.Errorf("%v: expected completed, got %v", m["filename"], snap["status"])
		}
	}
	if accepted != 2 || rejected != 1 {
		t.Errorf("expected 2 accepted and 1 rejected, got %d and %d", accepted, rejected)
	}
}

func TestNotionStats(t *testing.T) {
	srv, f := newTestServer(t, nil)
	f.stats.Record(120, 200)

	rec := do(t, srv, http.MethodGet, "/api/stats/notion", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats := decode(t, rec)["stats"].(map[string]any)
	if stats["requests"].(float64) != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"notes.md":          "notes.md",
		"../../etc/passwd":  "passwd",
		`C:\docs\report.md`: "C:_docs_report.md",
		"":                  "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
