// Package csvcodec converts board tasks to and from the four-column CSV
// interchange format: title, description, columnId, priority.
package csvcodec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"kanban/internal/models"
)

// Header lists the CSV columns in the order Encode writes them.
var Header = []string{"title", "description", "columnId", "priority"}

// ErrEmptyResult is returned when a CSV yields no usable rows.
var ErrEmptyResult = errors.New("no valid tasks found in csv")

// ValidationError describes a structural or content problem in a CSV file.
// Row is the 1-based record number in the file, or 0 for file-level errors.
type ValidationError struct {
	Row   int
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Row == 0 {
		return e.Msg
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Msg)
}

// Encode writes tasks as CSV, prefixed with a UTF-8 byte-order mark.
func Encode(w io.Writer, tasks []models.Task) error {
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, strings.Join(Header, ","))

	for _, t := range tasks {
		lines = append(lines, strings.Join([]string{
			escape(t.Title),
			escape(t.Description),
			escape(string(t.ColumnID)),
			escape(string(t.Priority)),
		}, ","))
	}

	if _, err := io.WriteString(w, bom+strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func escape(s string) string {
	if strings.ContainsAny(s, "\",\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Record is a decoded row together with its 1-based record number in the
// file (the header is record 1).
type Record struct {
	Row   int
	Input models.CreateInput
}

// Decode reads CSV text and returns the validated creation inputs in file
// order. The header row is required; its names are matched
// case-insensitively and may appear in any order.
func Decode(r io.Reader) ([]models.CreateInput, error) {
	records, err := DecodeRecords(r)
	if err != nil {
		return nil, err
	}
	out := make([]models.CreateInput, len(records))
	for i, rec := range records {
		out[i] = rec.Input
	}
	return out, nil
}

// DecodeString is Decode for in-memory text.
func DecodeString(text string) ([]models.CreateInput, error) {
	return Decode(strings.NewReader(text))
}

// DecodeRecords is Decode that also reports where each row came from.
func DecodeRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	rows := scan(string(data))
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv is empty: %w", ErrEmptyResult)
	}

	idx, err := resolveHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, r := range rows[1:] {
		in, skip, err := parseRow(r, idx)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		out = append(out, Record{Row: r.line, Input: in})
	}

	if len(out) == 0 {
		return nil, ErrEmptyResult
	}

	return out, nil
}

type columnIndex struct {
	title, description, columnID, priority int
}

func resolveHeader(h row) (columnIndex, error) {
	positions := make(map[string]int, len(h.fields))
	for i, name := range h.fields {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	lookup := func(name string) (int, error) {
		i, ok := positions[strings.ToLower(name)]
		if !ok {
			return 0, &ValidationError{Field: name, Msg: "missing csv column: " + name}
		}
		return i, nil
	}

	var (
		idx columnIndex
		err error
	)
	if idx.title, err = lookup("title"); err != nil {
		return idx, err
	}
	if idx.description, err = lookup("description"); err != nil {
		return idx, err
	}
	if idx.columnID, err = lookup("columnId"); err != nil {
		return idx, err
	}
	if idx.priority, err = lookup("priority"); err != nil {
		return idx, err
	}
	return idx, nil
}

func parseRow(r row, idx columnIndex) (models.CreateInput, bool, error) {
	title := strings.TrimSpace(r.field(idx.title))
	description := strings.TrimSpace(r.field(idx.description))

	if title == "" && description == "" {
		return models.CreateInput{}, true, nil
	}

	if title == "" {
		return models.CreateInput{}, false, &ValidationError{Row: r.line, Field: "title", Msg: "title is required"}
	}
	if description == "" {
		return models.CreateInput{}, false, &ValidationError{Row: r.line, Field: "description", Msg: "description is required"}
	}

	columnID, ok := models.ParseColumnID(r.field(idx.columnID))
	if !ok {
		return models.CreateInput{}, false, &ValidationError{
			Row:   r.line,
			Field: "columnId",
			Msg:   fmt.Sprintf("invalid columnId %q (todo/inprogress/done)", r.field(idx.columnID)),
		}
	}

	priority, ok := models.ParsePriority(r.field(idx.priority))
	if !ok {
		return models.CreateInput{}, false, &ValidationError{
			Row:   r.line,
			Field: "priority",
			Msg:   fmt.Sprintf("invalid priority %q (low/medium/high)", r.field(idx.priority)),
		}
	}

	return models.CreateInput{
		Title:       title,
		Description: description,
		ColumnID:    columnID,
		Priority:    priority,
	}, false, nil
}
