package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/md2notion/internal/source"
)

func TestCSVParser_Table(t *testing.T) {
	input := "name, score\nada,10\n\"lin, k\",7,extra\n"
	doc, err := (&CSVParser{}).Parse(strings.NewReader(input), "dir/scores.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "scores" {
		t.Errorf("expected title %q, got %q", "scores", doc.Title)
	}
	if len(doc.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(doc.Children))
	}
	table, ok := doc.Children[0].(*source.Table)
	if !ok {
		t.Fatalf("expected *source.Table, got %T", doc.Children[0])
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}

	cell := func(r, c int) string {
		var b strings.Builder
		for _, n := range table.Rows[r][c] {
			b.WriteString(source.PlainText(n))
		}
		return b.String()
	}
	if got := cell(0, 1); got != "score" {
		t.Errorf("header cell = %q", got)
	}
	if got := cell(2, 0); got != "lin, k" {
		t.Errorf("quoted cell = %q", got)
	}
	if len(table.Rows[2]) != 3 {
		t.Errorf("ragged row should keep all cells, got %d", len(table.Rows[2]))
	}
}

func TestCSVParser_Empty(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 0 {
		t.Errorf("expected no children, got %d", len(doc.Children))
	}
}
