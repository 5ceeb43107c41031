// Package chunker fits converted blocks into the Notion request limits.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/richtext"
)

// Config controls splitting and batching.
type Config struct {
	MaxContent       int // Runes per text run.
	MaxBatchBlocks   int // Top-level blocks per append request.
	MaxBatchElements int // Blocks per request, children included.
}

// DefaultConfig returns the limits the API enforces.
func DefaultConfig() Config {
	return Config{
		MaxContent:       richtext.MaxContentLength,
		MaxBatchBlocks:   100,
		MaxBatchElements: 1000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxContent <= 0 {
		c.MaxContent = d.MaxContent
	}
	if c.MaxBatchBlocks <= 0 {
		c.MaxBatchBlocks = d.MaxBatchBlocks
	}
	if c.MaxBatchElements <= 0 {
		c.MaxBatchElements = d.MaxBatchElements
	}
	return c
}

// Prepare returns a copy of the forest with every over-long text run split.
func Prepare(blocks []block.Block, cfg Config) []block.Block {
	cfg = cfg.withDefaults()
	split := func(runs []richtext.RichText) []richtext.RichText {
		return SplitRuns(runs, cfg.MaxContent)
	}
	out := make([]block.Block, len(blocks))
	for i, b := range blocks {
		out[i] = block.MapRichText(b, split)
	}
	return out
}

// SplitRuns splits text runs longer than max runes into several runs with
// the same annotations and link. Equation runs are left alone.
func SplitRuns(runs []richtext.RichText, max int) []richtext.RichText {
	if runs == nil {
		return nil
	}
	out := make([]richtext.RichText, 0, len(runs))
	for _, r := range runs {
		if r.IsEquation() || utf8.RuneCountInString(r.Content()) <= max {
			out = append(out, r)
			continue
		}
		for _, part := range SplitText(r.Content(), max) {
			out = append(out, r.WithContent(part))
		}
	}
	return out
}

// SplitText breaks text into parts of at most max runes, preferring
// paragraph breaks, then sentence ends, then whitespace. Nothing is trimmed:
// the parts concatenate back to text.
func SplitText(text string, max int) []string {
	if max <= 0 {
		max = richtext.MaxContentLength
	}
	var parts []string
	for utf8.RuneCountInString(text) > max {
		cut := cutPoint(text, max)
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" || len(parts) == 0 {
		parts = append(parts, text)
	}
	return parts
}

// cutPoint returns a byte offset within the first max runes of text.
// It is always positive.
func cutPoint(text string, max int) int {
	limit := byteOffset(text, max)
	window := text[:limit]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i + 2
	}
	if i := lastSentenceEnd(window); i > 0 {
		return i
	}
	if i := strings.LastIndexAny(window, " \t\n"); i > 0 {
		return i + 1
	}
	return limit
}

// lastSentenceEnd returns the offset just past the last ". ", "! " or "? ".
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i > 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			if s[i+1] == ' ' {
				return i + 2
			}
		}
	}
	return 0
}

// byteOffset returns the byte index of the n-th rune of s.
func byteOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// Batch groups blocks into append requests. Each batch holds at most
// MaxBatchBlocks blocks and MaxBatchElements blocks counting children; a
// single block over the element limit still gets a batch of its own.
func Batch(blocks []block.Block, cfg Config) [][]block.Block {
	cfg = cfg.withDefaults()

	var batches [][]block.Block
	var current []block.Block
	elements := 0

	for _, b := range blocks {
		n := block.Count([]block.Block{b})
		if len(current) > 0 && (len(current) >= cfg.MaxBatchBlocks || elements+n > cfg.MaxBatchElements) {
			batches = append(batches, current)
			current = nil
			elements = 0
		}
		current = append(current, b)
		elements += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
