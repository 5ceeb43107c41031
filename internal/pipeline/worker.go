package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/chunker"
	"github.com/dgallion1/md2notion/internal/notion"
)

// Publisher is the part of the Notion client the worker uses.
type Publisher interface {
	CreatePage(ctx context.Context, req notion.CreatePageRequest) (*notion.Page, error)
	AppendChildren(ctx context.Context, blockID string, blocks []block.Block) ([]string, error)
}

// Worker processes a single document job.
type Worker struct {
	notion    Publisher
	jobs      *JobStore
	docs      *DocumentConverter
	log       *slog.Logger
	batchCfg  chunker.Config
	backoff   func(attempt int) time.Duration
	maxAppend int
}

func NewWorker(client Publisher, jobs *JobStore, docs *DocumentConverter, log *slog.Logger, maxConcurrentAppend int) *Worker {
	if maxConcurrentAppend <= 0 {
		maxConcurrentAppend = 1
	}
	return &Worker{
		notion:    client,
		jobs:      jobs,
		docs:      docs,
		log:       log,
		batchCfg:  chunker.DefaultConfig(),
		backoff:   Backoff,
		maxAppend: maxConcurrentAppend,
	}
}

// Process runs the full publish pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.docs.Parse(job.Filename, job.FileData())
	job.releaseFileData()
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Phase 2: Convert
	job.SetStatus(StatusConverting, "converting")
	conv := w.docs.Convert(doc)
	for _, warn := range conv.Warnings {
		job.AddWarning(warn)
	}
	if len(conv.Violations) > 0 {
		for _, v := range conv.Violations {
			job.AddError(v.String())
		}
		log.Error("blocks exceed request limits", "violations", len(conv.Violations))
		job.SetStatus(StatusFailed, "validating")
		return
	}
	job.SetTotalBlocks(block.Count(conv.Blocks))
	log.Info("converted document", "blocks", block.Count(conv.Blocks), "warnings", len(conv.Warnings))

	// Phase 2.5: Dedup check
	hash, err := conv.Hash()
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "converting")
		return
	}
	job.SetContentHash(hash)
	if !job.Force {
		if prevJob, pageID, pageURL, ok := w.jobs.FindPublished(hash, job.ParentPageID); ok {
			log.Info("duplicate document, skipping", "existing_job_id", prevJob, "page_id", pageID)
			job.SetDuplicate(prevJob, pageID, pageURL)
			return
		}
	}

	// Phase 3: Publish
	job.SetStatus(StatusPublishing, "creating page")
	var page *notion.Page
	err = w.withRetry(ctx, log, "create page", func() error {
		var err error
		page, err = w.notion.CreatePage(ctx, notion.CreatePageRequest{
			ParentPageID: job.ParentPageID,
			Title:        conv.Title,
		})
		return err
	})
	if err != nil {
		log.Error("create page failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "creating page")
		return
	}
	job.SetPage(page.ID, page.URL)

	job.SetStatus(StatusPublishing, "appending blocks")
	hadErrors := w.publishTree(ctx, log, job, page.ID, conv.Blocks)

	snap := job.Snapshot()
	log.Info("publish complete", "page_id", page.ID, "published", snap.Progress.BlocksPublished, "total", snap.Progress.TotalBlocks)
	if hadErrors {
		job.SetStatus(StatusPartial, "done")
		return
	}
	w.jobs.MarkPublished(job)
	job.SetStatus(StatusCompleted, "done")
}

// level is a run of sibling blocks waiting for their parent to exist.
type level struct {
	parentID string
	blocks   []block.Block
}

// publishTree appends the forest one nesting level at a time. Each batch is
// sent with children stripped; children are queued under the ids the API
// returns. Siblings under one parent are appended strictly in order, while
// different parents proceed concurrently, bounded by maxAppend requests in
// flight. A failed batch abandons the rest of its siblings and their
// subtrees.
func (w *Worker) publishTree(ctx context.Context, log *slog.Logger, job *Job, rootID string, blocks []block.Block) bool {
	sem := make(chan struct{}, w.maxAppend)
	current := []level{{parentID: rootID, blocks: blocks}}
	hadErrors := false

	for depth := 0; len(current) > 0; depth++ {
		var (
			mu   sync.Mutex
			next []level
			wg   sync.WaitGroup
		)
		for _, lv := range current {
			wg.Add(1)
			go func(lv level) {
				defer wg.Done()
				children, err := w.appendSiblings(ctx, log, job, sem, lv)
				mu.Lock()
				defer mu.Unlock()
				next = append(next, children...)
				if err != nil {
					hadErrors = true
					job.AddError(err.Error())
				}
			}(lv)
		}
		wg.Wait()
		log.Debug("published level", "depth", depth, "parents", len(current))
		current = next
	}
	return hadErrors
}

// appendSiblings sends lv.blocks in batches and returns the child levels of
// every created container block.
func (w *Worker) appendSiblings(ctx context.Context, log *slog.Logger, job *Job, sem chan struct{}, lv level) ([]level, error) {
	stripped := make([]block.Block, len(lv.blocks))
	for i, b := range lv.blocks {
		stripped[i] = block.WithoutChildren(b)
	}

	var children []level
	offset := 0
	for _, batch := range chunker.Batch(stripped, w.batchCfg) {
		var ids []string
		err := w.withRetry(ctx, log, "append children", func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			var err error
			ids, err = w.notion.AppendChildren(ctx, lv.parentID, batch)
			return err
		})
		if err != nil {
			log.Error("append failed", "parent", lv.parentID, "offset", offset, "error", err)
			return children, fmt.Errorf("append under %s at block %d: %w", lv.parentID, offset, err)
		}
		job.AddPublished(len(batch))

		for i, id := range ids {
			if kids := lv.blocks[offset+i].Children(); len(kids) > 0 {
				children = append(children, level{parentID: id, blocks: kids})
			}
		}
		offset += len(batch)
	}
	return children, nil
}
