package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/model"
)

// ErrMissingColumn is returned when the header lacks a required column
var ErrMissingColumn = errors.New("missing column")

// Columns names the header fields holding each part of an edge
type Columns struct {
	Source string
	Target string
	Weight string
}

// ParseCSV reads edge records from CSV with a header row.
// Extra columns are ignored; rows are returned unvalidated with their line numbers.
func ParseCSV(r io.Reader, cols Columns) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		index[name] = i
	}

	positions := make([]int, 3)
	for i, name := range []string{cols.Source, cols.Target, cols.Weight} {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		positions[i] = pos
	}

	var records []model.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		records = append(records, model.Record{
			Line:   line,
			Source: field(row, positions[0]),
			Target: field(row, positions[1]),
			Weight: field(row, positions[2]),
		})
	}

	return records, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Load parses CSV edges from r and builds the edge store
func Load(r io.Reader, cols Columns) (*graph.FlowGraph, error) {
	records, err := ParseCSV(r, cols)
	if err != nil {
		return nil, err
	}
	return graph.FromRecords(records)
}
