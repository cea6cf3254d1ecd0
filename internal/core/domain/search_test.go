package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestFilters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		wantErr bool
	}{
		{"empty", Filters{}, false},
		{"valid types", Filters{SourceTypes: []SourceType{SourceTypeExam, SourceTypeCourse}}, false},
		{"unknown type", Filters{SourceTypes: []SourceType{"sports"}}, true},
		{"ordered range", Filters{StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)}, false},
		{"single day", Filters{StartDate: date(2025, 10, 15), EndDate: date(2025, 10, 15)}, false},
		{"inverted range", Filters{StartDate: date(2025, 12, 31), EndDate: date(2025, 1, 1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidQuery))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilters_Matches(t *testing.T) {
	exam := Document{ID: "1", SourceType: SourceTypeExam, PublishedAt: time.Date(2025, 10, 15, 14, 0, 0, 0, time.UTC)}
	undated := Document{ID: "2", SourceType: SourceTypeGeneral}

	tests := []struct {
		name    string
		filters Filters
		doc     Document
		want    bool
	}{
		{"no filters", Filters{}, exam, true},
		{"type match", Filters{SourceTypes: []SourceType{SourceTypeExam}}, exam, true},
		{"type mismatch", Filters{SourceTypes: []SourceType{SourceTypeHoliday}}, exam, false},
		{"start inclusive", Filters{StartDate: date(2025, 10, 15)}, exam, true},
		{"end inclusive same day", Filters{EndDate: date(2025, 10, 15)}, exam, true},
		{"before start", Filters{StartDate: date(2025, 10, 16)}, exam, false},
		{"after end", Filters{EndDate: date(2025, 10, 14)}, exam, false},
		{"undated excluded by range", Filters{StartDate: date(2020, 1, 1)}, undated, false},
		{"undated without range", Filters{SourceTypes: []SourceType{SourceTypeGeneral}}, undated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.Matches(tt.doc))
		})
	}
}

func TestFilters_Key(t *testing.T) {
	a := Filters{SourceTypes: []SourceType{SourceTypeExam, SourceTypeHoliday}, StartDate: date(2025, 1, 1)}
	b := Filters{SourceTypes: []SourceType{SourceTypeHoliday, SourceTypeExam, SourceTypeExam}, StartDate: date(2025, 1, 1)}
	c := Filters{SourceTypes: []SourceType{SourceTypeExam}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "types=;from=;to=", Filters{}.Key())
	assert.True(t, Filters{}.IsZero())
	assert.False(t, c.IsZero())
}

func TestRetrievalResult_IsEmpty(t *testing.T) {
	var nilResult *RetrievalResult
	assert.True(t, nilResult.IsEmpty())
	assert.True(t, (&RetrievalResult{}).IsEmpty())
	assert.False(t, (&RetrievalResult{Hits: []Hit{{}}}).IsEmpty())
}

func TestContextBundle_Render(t *testing.T) {
	doc := Document{
		ID:          "exam-1",
		Title:       "Mid-Semester Exam Schedule",
		SourceType:  SourceTypeExam,
		URL:         "https://kiit.ac.in/notices/exam-1",
		PublishedAt: time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
	}
	bundle := ContextBundle{Items: []ContextItem{
		{Marker: 1, Document: doc, Excerpt: "Exams start 20 October."},
		{Marker: 2, Document: Document{Title: "Holiday", SourceType: SourceTypeHoliday}, Excerpt: "Closed."},
	}}

	want := "[1] Mid-Semester Exam Schedule (Published: 2025-10-15, Source: exam)\n" +
		"URL: https://kiit.ac.in/notices/exam-1\n" +
		"Content: Exams start 20 October.\n\n" +
		"[2] Holiday (Published: unknown, Source: holiday)\n" +
		"URL: \n" +
		"Content: Closed."
	assert.Equal(t, want, bundle.Render())

	item, ok := bundle.Item(2)
	assert.True(t, ok)
	assert.Equal(t, "Holiday", item.Document.Title)
	_, ok = bundle.Item(3)
	assert.False(t, ok)
	assert.False(t, bundle.IsEmpty())
	assert.True(t, ContextBundle{}.IsEmpty())
}

func TestTextSize_CountsRunes(t *testing.T) {
	assert.Equal(t, 5, TextSize("héllo"))
}

func TestParseFilters(t *testing.T) {
	f, err := ParseFilters([]string{"exam,holiday", "academic", "exam"}, "2025-10-01", "")
	assert.NoError(t, err)
	assert.Equal(t, []SourceType{SourceTypeExam, SourceTypeHoliday, SourceTypeAcademicCalendar}, f.SourceTypes)
	assert.Equal(t, date(2025, time.October, 1), f.StartDate)
	assert.Nil(t, f.EndDate)

	f, err = ParseFilters(nil, "", "")
	assert.NoError(t, err)
	assert.True(t, f.IsZero())

	for _, tc := range []struct{ types, start, end string }{
		{"gossip", "", ""},
		{"", "01/10/2025", ""},
		{"", "2025-10-05", "2025-10-01"},
	} {
		_, err := ParseFilters([]string{tc.types}, tc.start, tc.end)
		assert.True(t, errors.Is(err, ErrInvalidQuery), "%+v", tc)
	}
}
