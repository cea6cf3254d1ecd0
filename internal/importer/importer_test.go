package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

func TestReadJSONL(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"n1","title":"Mid-Semester Exam Schedule","content":"Exams begin on 20 October.","notice_type":"exam","date":"2025-10-15","url":"https://kiit.ac.in/n1"}`,
		``,
		`{"title":"Diwali Holidays","body":"Closed 31 Oct to 3 Nov.","source_type":"holiday","published_at":"2025-10-10T09:30:00Z","url":"https://kiit.ac.in/diwali"}`,
		`{not json`,
		`{"id":"n3","title":"Rumour","notice_type":"gossip"}`,
		`{"title":"No identity","content":"x"}`,
	}, "\n")

	result, err := ReadJSONL(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Documents, 2)

	exam := result.Documents[0]
	assert.Equal(t, "n1", exam.ID)
	assert.Equal(t, domain.SourceTypeExam, exam.SourceType)
	assert.Equal(t, "Exams begin on 20 October.", exam.Body)
	assert.Equal(t, "2025-10-15", exam.PublishedDate())

	holiday := result.Documents[1]
	assert.Equal(t, DocumentID("https://kiit.ac.in/diwali"), holiday.ID)
	assert.Equal(t, domain.SourceTypeHoliday, holiday.SourceType)
	assert.Equal(t, "2025-10-10", holiday.PublishedDate())

	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0].Error(), "line 4")
	for _, e := range result.Errors {
		assert.ErrorIs(t, e, domain.ErrInvalidInput)
	}
}

func TestReadYAML(t *testing.T) {
	input := `
- id: cal-1
  title: Academic Calendar
  content: Classes commence on 21 July.
  notice_type: academic
  date: 2025-07-01
- title: Library Timings
  body: Open until midnight.
  url: https://kiit.ac.in/library
---
id: cs101
title: CS101 Introduction to Programming
body: Covers pointers.
source_type: course
metadata:
  credits: "4"
`

	result, err := ReadYAML(strings.NewReader(input))

	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Documents, 3)

	assert.Equal(t, domain.SourceTypeAcademicCalendar, result.Documents[0].SourceType)
	assert.Equal(t, domain.SourceTypeGeneral, result.Documents[1].SourceType, "missing type is a general notice")
	assert.True(t, result.Documents[1].PublishedAt.IsZero())
	assert.Equal(t, "cs101", result.Documents[2].ID)
	assert.Equal(t, "4", result.Documents[2].Metadata["credits"])
}

func TestReadJSON(t *testing.T) {
	result, err := ReadJSON(strings.NewReader(`[{"id":"a","title":"A","content":"x"},{"id":"b","notice_type":"exam"}]`))

	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)
	assert.Len(t, result.Errors, 1)

	_, err = ReadJSON(strings.NewReader(`{"id":"a"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	jsonl := filepath.Join(dir, "notices.jsonl")
	require.NoError(t, os.WriteFile(jsonl, []byte(`{"id":"a","title":"A","content":"x"}`+"\n"), 0o600))
	result, err := ReadFile(jsonl)
	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)

	yml := filepath.Join(dir, "notices.YML")
	require.NoError(t, os.WriteFile(yml, []byte("id: b\ntitle: B\n"), 0o600))
	result, err = ReadFile(yml)
	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)

	_, err = ReadFile(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2025-10-15", "2025-10-15T18:45:00+05:30", "2025-10-15 08:00:00", "15-10-2025", "15/10/2025"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	_, err := ParseDate("next Tuesday")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentID(t *testing.T) {
	a := DocumentID("https://kiit.ac.in/notices/1")

	assert.Equal(t, a, DocumentID("https://kiit.ac.in/notices/1"))
	assert.NotEqual(t, a, DocumentID("https://kiit.ac.in/notices/2"))
	assert.Len(t, a, 36)
}
