// Package interests loads the controlled vocabulary of interest tags.
package interests

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Vocabulary is the ordered, read-only list of valid interest tags, loaded
// once per process lifetime.
type Vocabulary struct {
	tags   []string
	lookup map[string]string // lowercased tag -> canonical form
}

// Load reads the vocabulary from a CSV file with an "interest" header column.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interests csv: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads the vocabulary from CSV content.
func Parse(r io.Reader) (*Vocabulary, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "interest") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv missing %q column", "interest")
	}

	var tags []string
	lookup := make(map[string]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		tag := strings.TrimSpace(row[col])
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, seen := lookup[key]; seen {
			continue
		}
		tags = append(tags, tag)
		lookup[key] = tag
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("interests csv contains no tags")
	}

	return &Vocabulary{tags: tags, lookup: lookup}, nil
}

// Tags returns the ordered tag list.
func (v *Vocabulary) Tags() []string {
	out := make([]string, len(v.tags))
	copy(out, v.tags)
	return out
}

// Contains reports whether tag is part of the vocabulary, ignoring case.
func (v *Vocabulary) Contains(tag string) bool {
	_, ok := v.lookup[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Canonical maps a tag to its canonical vocabulary form, ignoring case.
func (v *Vocabulary) Canonical(tag string) (string, bool) {
	canonical, ok := v.lookup[strings.ToLower(strings.TrimSpace(tag))]
	return canonical, ok
}

// Len returns the number of tags.
func (v *Vocabulary) Len() int {
	return len(v.tags)
}
