package notion

import (
	"strings"
	"testing"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/richtext"
)

func TestValidate_CleanForest(t *testing.T) {
	blocks := []block.Block{
		block.NewHeading(1, []richtext.RichText{richtext.Plain("Title")}),
		&block.ListItem{
			RichText: []richtext.RichText{richtext.Plain("item")},
			Blocks:   []block.Block{block.NewParagraph(richtext.Plain("child"))},
		},
		&block.Equation{Expression: "x"},
	}
	if v := Validate(blocks, 0); len(v) != 0 {
		t.Errorf("expected no violations, got %v", v)
	}
}

func TestValidate_Limits(t *testing.T) {
	manyRuns := make([]richtext.RichText, 101)
	for i := range manyRuns {
		manyRuns[i] = richtext.Plain("r")
	}

	tests := []struct {
		name  string
		block block.Block
		path  string
	}{
		{"too many runs", block.NewParagraph(manyRuns...), "0"},
		{"long text", block.NewParagraph(richtext.Plain(strings.Repeat("a", 2001))), "0"},
		{"long link", block.NewParagraph(richtext.Text("x", richtext.Annotations{}, "https://"+strings.Repeat("a", 2000))), "0"},
		{"long equation", &block.Equation{Expression: strings.Repeat("x", 1001)}, "0"},
		{"long inline equation", block.NewParagraph(richtext.Equation(strings.Repeat("x", 1001))), "0"},
		{"nested child", &block.Quote{Blocks: []block.Block{
			block.NewParagraph(richtext.Plain(strings.Repeat("a", 2001))),
		}}, "0.children.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate([]block.Block{tt.block}, 0)
			if len(v) != 1 {
				t.Fatalf("expected 1 violation, got %v", v)
			}
			if v[0].Path != tt.path {
				t.Errorf("path = %q, want %q", v[0].Path, tt.path)
			}
		})
	}
}

func TestValidate_Depth(t *testing.T) {
	leaf := block.NewParagraph(richtext.Plain("deep"))
	nested := &block.Quote{Blocks: []block.Block{&block.Quote{Blocks: []block.Block{leaf}}}}

	if v := Validate([]block.Block{nested}, 3); len(v) != 0 {
		t.Errorf("depth 3 should pass a limit of 3, got %v", v)
	}
	v := Validate([]block.Block{nested}, 2)
	if len(v) != 1 || v[0].Path != "0.children.0.children.0" {
		t.Errorf("expected depth violation at the leaf, got %v", v)
	}
}
