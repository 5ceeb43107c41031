package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/md2notion/internal/source"
)

// CSVParser reads a CSV file as a single table. The first record is the
// header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*source.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &source.Document{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	table := &source.Table{Rows: make([][][]source.Node, 0, len(records))}
	for _, rec := range records {
		row := make([][]source.Node, len(rec))
		for i, cell := range rec {
			if cell != "" {
				row[i] = []source.Node{&source.Text{Value: cell}}
			}
		}
		table.Rows = append(table.Rows, row)
	}
	doc.Children = append(doc.Children, table)
	return doc, nil
}
