package pages

import (
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFeedbackDetail() feedback.Detail {
	quality := 3
	return feedback.Detail{
		ID:        "fb-1",
		NumID:     42,
		CreatedAt: time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC),
		Attribution: feedback.LinkedAttribution(feedback.LinkedModel{
			AuthorSlug: "mistralai",
			ModelSlug:  "mistral-7b",
			Name:       "Mistral 7B",
		}, "mistral-7b-instruct.Q4_K_M.gguf"),
		Messages: []feedback.Message{
			{ID: "m-0", Index: 0, Role: "user", Content: "first **bold**"},
			{ID: "m-1", Index: 1, Role: "assistant", Content: "second"},
			{ID: "m-2", Index: 2, Role: "user", Content: "third"},
		},
		Quality: &quality,
		Tags:    []string{"creative", "local-only"},
		NSFW:    true,
		Total:   12345,
	}
}

func TestNewFeedbackPageKeepsTranscriptOrder(t *testing.T) {
	page, err := NewFeedbackPage(sampleFeedbackDetail(), AnonymousViewer(), NewMarkdownRenderer())
	require.NoError(t, err)

	require.Len(t, page.Transcript, 3)
	assert.Contains(t, string(page.Transcript[0].HTML), "<strong>bold</strong>")
	assert.Contains(t, string(page.Transcript[1].HTML), "second")
	assert.Contains(t, string(page.Transcript[2].HTML), "third")
	assert.Equal(t, "3/9/2024, 2:05:06 PM", page.Title)
	assert.Equal(t, "Sample #42 of 12,345", page.Position)
	assert.Len(t, page.Quality, 3)

	output := renderPage(t, FeedbackTemplate, page)
	first := strings.Index(output, "first")
	second := strings.Index(output, "second")
	third := strings.Index(output, "third")
	assert.True(t, first < second && second < third, "transcript rendered out of order")
	assert.Contains(t, output, `<a href="/mistralai/mistral-7b">Mistral 7B</a>, mistral-7b-instruct.Q4_K_M.gguf`)
	assert.NotContains(t, output, "label-panel")
}

func TestNewFeedbackPageFreeTextAttribution(t *testing.T) {
	detail := sampleFeedbackDetail()
	detail.Attribution = feedback.FreeTextAttribution("some-local-model")
	page, err := NewFeedbackPage(detail, AnonymousViewer(), NewMarkdownRenderer())
	require.NoError(t, err)

	assert.Empty(t, page.Byline.ModelHref)
	output := renderPage(t, FeedbackTemplate, page)
	assert.Contains(t, output, "some-local-model")
	assert.NotContains(t, output, `href="/mistralai/mistral-7b"`)
}

func TestMarkdownRendererOmitsRawHTML(t *testing.T) {
	rendered, err := NewMarkdownRenderer().Render("hello <script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.NotContains(t, string(rendered), "<script>")
	assert.Contains(t, string(rendered), "<table>")
}
