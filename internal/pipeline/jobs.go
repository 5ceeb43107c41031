package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a publish job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusConverting JobStatus = "converting"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single document publish.
type Job struct {
	mu sync.Mutex

	ID           string
	Status       JobStatus
	Phase        string
	Filename     string
	Title        string
	ParentPageID string
	Force        bool

	Progress Progress

	ContentHash string
	PageID      string
	PageURL     string
	DuplicateOf string // Job that published the same content.

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	fileData []byte
}

// Progress tracks publishing progress.
type Progress struct {
	TotalBlocks     int      `json:"total_blocks"`
	BlocksPublished int      `json:"blocks_published"`
	Requests        int      `json:"requests"`
	Warnings        []string `json:"warnings"`
	Errors          []string `json:"errors"`
}

// NewJob returns a queued job with a fresh id.
func NewJob(filename, title, parentPageID string, data []byte, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		Status:       StatusQueued,
		Phase:        "queued",
		Filename:     filename,
		Title:        title,
		ParentPageID: parentPageID,
		Force:        force,
		CreatedAt:    now,
		UpdatedAt:    now,
		fileData:     data,
	}
}

// publishedPage is a dedup index entry.
type publishedPage struct {
	jobID   string
	pageID  string
	pageURL string
	at      time.Time
}

type dedupKey struct {
	hash   string
	parent string
}

// JobStore is a thread-safe in-memory job registry with TTL eviction. It
// also remembers which content was published under which parent page.
type JobStore struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	published map[dedupKey]publishedPage
	ttl       time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:      make(map[string]*Job),
		published: make(map[dedupKey]publishedPage),
		ttl:       ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// MarkPublished records that job put its content on a page.
func (s *JobStore) MarkPublished(job *Job) {
	snap := job.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[dedupKey{snap.ContentHash, snap.ParentPageID}] = publishedPage{
		jobID:   snap.ID,
		pageID:  snap.PageID,
		pageURL: snap.PageURL,
		at:      time.Now(),
	}
}

// FindPublished returns the job id and page of earlier identical content
// under the same parent.
func (s *JobStore) FindPublished(hash, parentPageID string) (jobID, pageID, pageURL string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.published[dedupKey{hash, parentPageID}]
	return p.jobID, p.pageID, p.pageURL, ok
}

// Cleanup removes expired jobs and dedup entries.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
	for k, p := range s.published {
		if now.Sub(p.at) > s.ttl {
			delete(s.published, k)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// AddWarning records a degradation that did not stop the job.
func (j *Job) AddWarning(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Warnings = append(j.Progress.Warnings, msg)
	j.UpdatedAt = time.Now()
}

func (j *Job) SetTotalBlocks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalBlocks = n
	j.UpdatedAt = time.Now()
}

// AddPublished counts one successful append request of n blocks.
func (j *Job) AddPublished(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BlocksPublished += n
	j.Progress.Requests++
	j.UpdatedAt = time.Now()
}

// SetPage records the created page.
func (j *Job) SetPage(id, url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.PageID = id
	j.PageURL = url
	j.UpdatedAt = time.Now()
}

func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// SetDuplicate marks the job as skipped in favour of an earlier one.
func (j *Job) SetDuplicate(jobID, pageID, pageURL string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DuplicateOf = jobID
	j.PageID = pageID
	j.PageURL = pageURL
	j.Status = StatusDupSkipped
	j.Phase = "dedup"
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string    `json:"job_id"`
	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	ParentPageID string    `json:"parent_page_id"`
	PageID       string    `json:"page_id,omitempty"`
	PageURL      string    `json:"page_url,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
	DuplicateOf  string    `json:"duplicate_of,omitempty"`
	Progress     Progress  `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:           j.ID,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		Title:        j.Title,
		ParentPageID: j.ParentPageID,
		PageID:       j.PageID,
		PageURL:      j.PageURL,
		ContentHash:  j.ContentHash,
		DuplicateOf:  j.DuplicateOf,
		Progress: Progress{
			TotalBlocks:     j.Progress.TotalBlocks,
			BlocksPublished: j.Progress.BlocksPublished,
			Requests:        j.Progress.Requests,
			Warnings:        nonNil(j.Progress.Warnings),
			Errors:          nonNil(j.Progress.Errors),
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
