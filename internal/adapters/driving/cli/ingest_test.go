package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

func writeCorpus(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestIngestCmd(t *testing.T) {
	ts, buf, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.statuses = []domain.IngestStatus{domain.IngestCreated, domain.IngestUnchanged}

	notices := writeCorpus(t, "notices.jsonl",
		`{"id":"exam-midsem","title":"Mid-Semester Exams","content":"Exams begin on 20 October.","notice_type":"exam","date":"2025-10-15"}`,
		`{"id":"holiday-diwali","title":"Diwali Holidays","content":"Closed 31 October.","notice_type":"holiday"}`,
		`{"id":"bad","title":"Rumour","notice_type":"gossip"}`,
	)
	courses := writeCorpus(t, "courses.yaml",
		"id: cs101",
		"title: CS101 Introduction to Programming",
		"body: Covers pointers and recursion.",
		"source_type: course",
	)

	require.NoError(t, execute("ingest", notices, courses))

	require.Len(t, ts.docs.ingested, 3)
	assert.Equal(t, domain.SourceTypeCourse, ts.docs.ingested[2].SourceType)

	out := buf.String()
	assert.Contains(t, out, "notices.jsonl: 1 created, 0 updated, 1 unchanged, 0 failed, 1 invalid")
	assert.Contains(t, out, "courses.yaml: 1 created, 0 updated, 0 unchanged, 0 failed, 0 invalid")
	assert.Contains(t, out, "Total: 2 created, 0 updated, 1 unchanged, 0 failed, 1 invalid")
}

func TestIngestCmd_UnsupportedFile(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	err := execute("ingest", writeCorpus(t, "notices.csv", "id,title"))

	assert.Error(t, err)
}

func TestIngestFile_StoreFailure(t *testing.T) {
	ts, _, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.err = errors.New("disk full")

	path := writeCorpus(t, "notices.jsonl", `{"id":"a","title":"A","content":"x"}`)
	_, err := ingestFile(context.Background(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingesting notices.jsonl")
}

func TestIngestFile_OnlyInvalidRecords(t *testing.T) {
	ts, _, cleanup := setupTestServices()
	defer cleanup()

	path := writeCorpus(t, "notices.jsonl", `{not json`)
	summary, err := ingestFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, ingestSummary{Invalid: 1}, summary)
	assert.Empty(t, ts.docs.ingested)
}

func TestIngestSummary_Add(t *testing.T) {
	s := ingestSummary{Created: 1, Failed: 1}
	s.add(ingestSummary{Created: 2, Updated: 1, Invalid: 3})

	assert.Equal(t, ingestSummary{Created: 3, Updated: 1, Failed: 1, Invalid: 3}, s)
	assert.Equal(t, "3 created, 1 updated, 0 unchanged, 1 failed, 3 invalid", s.String())
}
