package cli

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

func TestNoticesRecent(t *testing.T) {
	ts, buf, cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, execute("notices", "recent", "-n", "5", "--type", "exam"))

	assert.Equal(t, 5, ts.docs.limit)
	assert.Equal(t, []domain.SourceType{domain.SourceTypeExam}, ts.docs.filters.SourceTypes)
	out := buf.String()
	assert.Contains(t, out, "2025-10-15  Exam notice        Mid-Semester Examination Schedule")
	assert.Contains(t, out, "id: holiday-diwali")
	assert.Less(t, strings.Index(out, "exam-midsem"), strings.Index(out, "holiday-diwali"), "dated notices first")
}

func TestNoticesRecent_JSON(t *testing.T) {
	_, buf, cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, execute("notices", "recent", "--json"))

	var out []struct {
		ID      string `json:"id"`
		Date    string `json:"date"`
		Version int    `json:"version"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "exam-midsem", out[0].ID)
	assert.Equal(t, 2, out[0].Version)
	assert.Equal(t, "unknown", out[1].Date)
}

func TestNoticesRecent_Empty(t *testing.T) {
	ts, buf, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.docs = map[string]domain.Document{}

	require.NoError(t, execute("notices", "recent"))

	assert.Contains(t, buf.String(), "No notices found.")
}

func TestNoticesShow(t *testing.T) {
	ts, buf, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.versions = []domain.Document{
		{ID: examNotice.ID, Version: 1, ContentHash: "aaaaaaaaaaaaaaaa", CreatedAt: time.Date(2025, 10, 14, 9, 0, 0, 0, time.UTC)},
		{ID: examNotice.ID, Version: 2, ContentHash: "short", CreatedAt: time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, execute("notices", "show", "exam-midsem", "--versions"))

	out := buf.String()
	assert.Contains(t, out, "Type: Exam notice | Published: 2025-10-15 | Version: 2")
	assert.Contains(t, out, "URL: https://kiit.ac.in/notices/exam-midsem")
	assert.Contains(t, out, "Mid-semester examinations begin on 20 October.")
	assert.Contains(t, out, "v1  2025-10-14 09:00:00  aaaaaaaaaaaa")
	assert.Contains(t, out, "v2  2025-10-15 09:00:00  short")
}

func TestNoticesShow_NotFound(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	err := execute("notices", "show", "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `notice "missing" not found`)
}

func TestNoticesDelete(t *testing.T) {
	ts, buf, cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, execute("notices", "delete", "holiday-diwali"))
	assert.Equal(t, []string{"holiday-diwali"}, ts.docs.deleted)
	assert.Contains(t, buf.String(), "Deleted holiday-diwali")

	assert.ErrorIs(t, execute("notices", "delete", "missing"), domain.ErrNotFound)
}
