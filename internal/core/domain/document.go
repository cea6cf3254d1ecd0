package domain

import (
	"slices"
	"strings"
	"time"
)

// SourceType classifies where a document came from on the university site.
type SourceType string

// Recognised source types.
const (
	SourceTypeGeneral          SourceType = "general"
	SourceTypeExam             SourceType = "exam"
	SourceTypeHoliday          SourceType = "holiday"
	SourceTypeAcademicCalendar SourceType = "academic_calendar"
	SourceTypeCourse           SourceType = "course"
)

// AllSourceTypes returns every recognised source type in display order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeGeneral,
		SourceTypeExam,
		SourceTypeHoliday,
		SourceTypeAcademicCalendar,
		SourceTypeCourse,
	}
}

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeGeneral, SourceTypeExam, SourceTypeHoliday,
		SourceTypeAcademicCalendar, SourceTypeCourse:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// Description returns a human-readable description of the source type.
func (t SourceType) Description() string {
	switch t {
	case SourceTypeGeneral:
		return "General notice"
	case SourceTypeExam:
		return "Exam notice"
	case SourceTypeHoliday:
		return "Holiday"
	case SourceTypeAcademicCalendar:
		return "Academic calendar"
	case SourceTypeCourse:
		return "Course"
	default:
		return unknownDescription
	}
}

// ParseSourceType parses a source type, accepting the aliases used by
// imported notice feeds ("academic" for the academic calendar).
func ParseSourceType(s string) (SourceType, bool) {
	v := SourceType(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "academic", "calendar":
		return SourceTypeAcademicCalendar, true
	case "notice", "":
		return SourceTypeGeneral, true
	}
	return v, v.IsValid()
}

// Document is a single notice or course record held by the document store.
// ID is the logical identity and is stable across updates; every update
// stores a new Version.
type Document struct {
	// ID is the logical identifier shared by all versions.
	ID string

	// Title is the human-readable title.
	Title string

	// Body is the cleaned text content.
	Body string

	// SourceType classifies the document.
	SourceType SourceType

	// PublishedAt is the publication date on the source site.
	PublishedAt time.Time

	// URL is the original location of the document.
	URL string

	// Version starts at 1 and increases on every content change.
	Version int

	// PreviousVersion is the version this one superseded, zero for the first.
	PreviousVersion int

	// ContentHash is the sha256 of the title, body, type, date and URL.
	ContentHash string

	// Metadata contains arbitrary key-value pairs carried from ingestion.
	Metadata map[string]string

	// CreatedAt is when this version was stored.
	CreatedAt time.Time

	// UpdatedAt is when this version was last touched.
	UpdatedAt time.Time
}

// Supersedes reports whether d is a newer version of the same logical document.
func (d Document) Supersedes(other Document) bool {
	return d.ID == other.ID && d.Version > other.Version
}

// PublishedDate returns the publication date formatted as YYYY-MM-DD,
// or "unknown" when no date was recorded.
func (d Document) PublishedDate() string {
	if d.PublishedAt.IsZero() {
		return "unknown"
	}
	return d.PublishedAt.Format(time.DateOnly)
}

// LatestVersions keeps only the highest version of each logical document.
// The relative order of the surviving documents follows their first
// appearance in docs.
func LatestVersions(docs []Document) []Document {
	latest := make(map[string]int, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if i, ok := latest[d.ID]; ok {
			if d.Version > out[i].Version {
				out[i] = d
			}
			continue
		}
		latest[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}

// SortNewestFirst orders docs by publication date, newest first, with
// ties broken by ascending id.
func SortNewestFirst(docs []Document) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
