// Package cases provides a presentational preview of a test-case spreadsheet
// for the dashboard. it reads headers and row cells as plain strings; the
// backend owns all interpretation of the columns.
package cases

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Preview is a parsed spreadsheet shown in the dashboard.
type Preview struct {
	File    string     `json:"file"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// SupportedFile reports whether the filename has a spreadsheet extension the
// backend accepts.
func SupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// ParseFile loads a CSV spreadsheet into a Preview. excel files are accepted
// by the backend but not previewed locally.
func ParseFile(path string) (*Preview, error) {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return nil, fmt.Errorf("preview supports csv only, got %s", filepath.Base(path))
	}

	f, err := os.Open(path) //nolint:gosec // user-supplied spreadsheet path
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows, this is display only
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse spreadsheet: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("spreadsheet %s is empty", filepath.Base(path))
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(c)
	}

	return &Preview{
		File:    filepath.Base(path),
		Columns: columns,
		Rows:    records[1:],
	}, nil
}

// JSON returns the preview serialized for the dashboard API.
func (p *Preview) JSON() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal preview: %w", err)
	}
	return data, nil
}
