// Package vocab loads vocabulary entries from bundled, remote and cached sources.
package vocab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEntry marks a vocabulary row that carries no usable term
var ErrMalformedEntry = errors.New("malformed vocabulary entry")

// Entry is one dictionary item. SourceTerm is the lookup key.
type Entry struct {
	SourceTerm string `json:"sourceTerm,omitempty"`
	TargetTerm string `json:"targetTerm,omitempty"`
	GlossTerm  string `json:"glossTerm,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Term returns the text used for matching: the source term, else the target term.
func (e Entry) Term() string {
	if e.SourceTerm != "" {
		return e.SourceTerm
	}
	return e.TargetTerm
}

// entryFields accepts both the service field names and the bundled
// dataset's chinese/taiwanese/english columns.
type entryFields struct {
	SourceTerm string `json:"sourceTerm"`
	TargetTerm string `json:"targetTerm"`
	GlossTerm  string `json:"glossTerm"`
	Note       string `json:"note"`
	Chinese    string `json:"chinese"`
	Taiwanese  string `json:"taiwanese"`
	English    string `json:"english"`
}

// UnmarshalJSON decodes either a bare string or an object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = Entry{SourceTerm: s}
		return nil
	}

	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("%w: unexpected JSON %.20q", ErrMalformedEntry, data)
	}

	var f entryFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*e = Entry{
		SourceTerm: firstNonEmpty(f.SourceTerm, f.Chinese),
		TargetTerm: firstNonEmpty(f.TargetTerm, f.Taiwanese),
		GlossTerm:  firstNonEmpty(f.GlossTerm, f.English),
		Note:       f.Note,
	}
	return nil
}

// ParseEntries decodes a JSON array of entries. Rows that fail to decode or
// carry no term are skipped and counted rather than failing the whole list.
func ParseEntries(data []byte) ([]Entry, int, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("vocabulary must be a JSON array: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		var e Entry
		if err := json.Unmarshal(row, &e); err != nil || e.Term() == "" {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped, nil
}

// FromStrings wraps plain terms as entries.
func FromStrings(terms ...string) []Entry {
	entries := make([]Entry, 0, len(terms))
	for _, t := range terms {
		entries = append(entries, Entry{SourceTerm: t})
	}
	return entries
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
