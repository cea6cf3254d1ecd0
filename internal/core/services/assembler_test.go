package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
)

func rankedCorpus(t *testing.T) *domain.RetrievalResult {
	t.Helper()
	docs := append(testCorpus(),
		testDoc("exam-rules", "Examination Rules",
			strings.Repeat("Mobile phones and smart watches are not allowed in the examination hall. ", 20),
			domain.SourceTypeExam, "2025-10-14"),
	)
	search := NewSearchService(buildIndex(t, docs), nil, testSettings())
	result, err := search.Search(context.Background(), domain.SearchQuery{
		Text:  "examination exam semester library holidays programming",
		Limit: domain.MaxSearchLimit,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Hits), 4)
	return result
}

func TestContextAssembler_Assemble_WithinBudget(t *testing.T) {
	result := rankedCorpus(t)
	assembler := NewContextAssembler(domain.ContextSettings{PerDocChars: 600, MinExcerptChars: 50})

	for budget := 0; budget <= 4000; budget += 37 {
		bundle := assembler.Assemble(result, budget)

		assert.LessOrEqual(t, bundle.Size, budget, "budget %d", budget)
		assert.Equal(t, domain.TextSize(bundle.Render()), bundle.Size, "budget %d", budget)
		assert.Equal(t, budget, bundle.Budget)
	}
}

func TestContextAssembler_Assemble_PrefixOfRanking(t *testing.T) {
	result := rankedCorpus(t)
	assembler := NewContextAssembler(domain.ContextSettings{PerDocChars: 400, MinExcerptChars: 50})
	ranked := hitIDs(result)

	for _, budget := range []int{200, 500, 900, 1500, 3000, 10000} {
		bundle := assembler.Assemble(result, budget)

		require.LessOrEqual(t, len(bundle.Items), len(ranked))
		for i, item := range bundle.Items {
			assert.Equal(t, ranked[i], item.Document.ID, "item %d at budget %d", i, budget)
			assert.Equal(t, i+1, item.Marker)
		}
	}
	assert.Len(t, assembler.Assemble(result, 100000).Items, len(ranked))
}

func TestContextAssembler_Assemble_TruncatesLongBodies(t *testing.T) {
	result := rankedCorpus(t)
	assembler := NewContextAssembler(domain.ContextSettings{PerDocChars: 300, MinExcerptChars: 50})

	bundle := assembler.Assemble(result, 100000)

	var rules *domain.ContextItem
	for i := range bundle.Items {
		assert.LessOrEqual(t, domain.TextSize(bundle.Items[i].Excerpt), 300)
		if bundle.Items[i].Document.ID == "exam-rules" {
			rules = &bundle.Items[i]
		}
	}
	require.NotNil(t, rules)
	assert.True(t, rules.Truncated)
	assert.Contains(t, rules.Excerpt, "examination")

	for _, item := range bundle.Items {
		if item.Document.ID == "holiday-diwali" {
			assert.False(t, item.Truncated)
			assert.Equal(t, item.Document.Body, item.Excerpt)
		}
	}
}

func TestContextAssembler_Assemble_AttributionInRender(t *testing.T) {
	result := rankedCorpus(t)
	bundle := NewContextAssembler(domain.DefaultAppSettings().Context).Assemble(result, 8000)

	rendered := bundle.Render()
	for _, item := range bundle.Items {
		assert.Contains(t, rendered, item.Document.Title)
		assert.Contains(t, rendered, item.Document.URL)
		assert.Contains(t, rendered, item.Document.PublishedDate())
	}
	assert.True(t, strings.HasPrefix(rendered, "[1] "))
}

func TestContextAssembler_Assemble_Empty(t *testing.T) {
	assembler := NewContextAssembler(domain.DefaultAppSettings().Context)

	tests := []struct {
		name   string
		result *domain.RetrievalResult
		budget int
	}{
		{"nil result", nil, 1000},
		{"no hits", &domain.RetrievalResult{}, 1000},
		{"zero budget", rankedCorpus(t), 0},
		{"negative budget", rankedCorpus(t), -5},
		{"budget below first header", rankedCorpus(t), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := assembler.Assemble(tt.result, tt.budget)
			assert.True(t, bundle.IsEmpty())
			assert.NotNil(t, bundle.Items)
			assert.Zero(t, bundle.Size)
			assert.Empty(t, bundle.Render())
		})
	}
}
