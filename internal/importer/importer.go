// Package importer reads notice and course records from JSONL, JSON and
// YAML files into domain documents ready for ingestion.
package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 4 << 20

// dateLayouts are tried in order when parsing a record date.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"02-01-2006",
	"02/01/2006",
}

// Record is one imported notice. Field aliases follow the feeds the
// scraper produces: content or body, notice_type or source_type, date or
// published_at.
type Record struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Content     string            `json:"content" yaml:"content"`
	Body        string            `json:"body" yaml:"body"`
	NoticeType  string            `json:"notice_type" yaml:"notice_type"`
	SourceType  string            `json:"source_type" yaml:"source_type"`
	Date        string            `json:"date" yaml:"date"`
	PublishedAt string            `json:"published_at" yaml:"published_at"`
	URL         string            `json:"url" yaml:"url"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata"`
}

// Document converts the record. A record without an id gets one derived
// from its URL, so re-importing the same page updates the same document.
func (r Record) Document() (domain.Document, error) {
	doc := domain.Document{
		ID:       strings.TrimSpace(r.ID),
		Title:    strings.TrimSpace(r.Title),
		Body:     firstNonEmpty(r.Content, r.Body),
		URL:      strings.TrimSpace(r.URL),
		Metadata: r.Metadata,
	}

	st, ok := domain.ParseSourceType(firstNonEmpty(r.NoticeType, r.SourceType))
	if !ok {
		return doc, fmt.Errorf("%w: unknown notice type %q", domain.ErrInvalidInput, st)
	}
	doc.SourceType = st

	if raw := firstNonEmpty(r.Date, r.PublishedAt); raw != "" {
		published, err := ParseDate(raw)
		if err != nil {
			return doc, err
		}
		doc.PublishedAt = published
	}

	if doc.ID == "" {
		if doc.URL == "" {
			return doc, fmt.Errorf("%w: record needs an id or a url", domain.ErrInvalidInput)
		}
		doc.ID = DocumentID(doc.URL)
	}
	if doc.Title == "" && strings.TrimSpace(doc.Body) == "" {
		return doc, fmt.Errorf("%w: record %s has no title or content", domain.ErrInvalidInput, doc.ID)
	}
	return doc, nil
}

// DocumentID derives a stable logical id from a source URL.
func DocumentID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// ParseDate parses the date formats seen in notice feeds. Times are
// dropped; publication dates are calendar days.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", domain.ErrInvalidInput, s)
}

// Result is the outcome of reading one source. Bad records are reported
// in Errors and do not stop the rest.
type Result struct {
	Documents []domain.Document
	Errors    []error
}

func (r *Result) add(where string, rec Record) {
	doc, err := rec.Document()
	if err != nil {
		r.Errors = append(r.Errors, fmt.Errorf("%s: %w", where, err))
		return
	}
	r.Documents = append(r.Documents, doc)
}

// ReadJSONL reads one JSON record per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) (*Result, error) {
	result := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("line %d: %w: %w", line, domain.ErrInvalidInput, err))
			continue
		}
		result.add(fmt.Sprintf("line %d", line), rec)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read jsonl: %w", err)
	}
	return result, nil
}

// ReadJSON reads a JSON array of records.
func ReadJSON(r io.Reader) (*Result, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", domain.ErrInvalidInput, err)
	}
	result := &Result{}
	for i, rec := range records {
		result.add(fmt.Sprintf("record %d", i+1), rec)
	}
	return result, nil
}

// ReadYAML reads a YAML stream. Each document in the stream may be a
// single record or a list of records.
func ReadYAML(r io.Reader) (*Result, error) {
	result := &Result{}
	dec := yaml.NewDecoder(r)

	n := 0
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("%w: decode yaml: %w", domain.ErrInvalidInput, err)
		}

		var records []Record
		content := &node
		if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
			content = node.Content[0]
		}
		switch content.Kind {
		case yaml.SequenceNode:
			err = content.Decode(&records)
		case yaml.MappingNode:
			var rec Record
			err = content.Decode(&rec)
			records = []Record{rec}
		default:
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("yaml document at line %d: %w: %w",
				content.Line, domain.ErrInvalidInput, err))
			continue
		}
		for _, rec := range records {
			n++
			result.add(fmt.Sprintf("record %d", n), rec)
		}
	}
	return result, nil
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ReadFile reads path, choosing the format by extension.
func ReadFile(path string) (*Result, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	case ".json":
		return ReadJSON(f)
	default:
		return ReadYAML(f)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
