package pages

import (
	"errors"
	"testing"

	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelPanelTransitions(t *testing.T) {
	testCases := []struct {
		from  LabelPanelState
		event PanelEvent
		want  LabelPanelState
	}{
		{from: PanelClosed, event: EventOpen, want: PanelOpen},
		{from: PanelOpen, event: EventSubmit, want: PanelSubmitting},
		{from: PanelOpen, event: EventDismiss, want: PanelClosed},
		{from: PanelSubmitting, event: EventSucceed, want: PanelSaved},
		{from: PanelSubmitting, event: EventFail, want: PanelFailed},
		{from: PanelSaved, event: EventOpen, want: PanelOpen},
		{from: PanelSaved, event: EventDismiss, want: PanelClosed},
		{from: PanelFailed, event: EventSubmit, want: PanelSubmitting},
		{from: PanelFailed, event: EventDismiss, want: PanelClosed},
	}
	for _, testCase := range testCases {
		got, err := testCase.from.Next(testCase.event)
		require.NoError(t, err, "%s on %s", testCase.from, testCase.event)
		assert.Equal(t, testCase.want, got, "%s on %s", testCase.from, testCase.event)
	}
}

func TestLabelPanelRejectsInvalidTransitions(t *testing.T) {
	invalid := []struct {
		from  LabelPanelState
		event PanelEvent
	}{
		{from: PanelClosed, event: EventSubmit},
		{from: PanelClosed, event: EventSucceed},
		{from: PanelOpen, event: EventSucceed},
		{from: PanelSubmitting, event: EventSubmit},
		{from: PanelSubmitting, event: EventDismiss},
		{from: PanelSaved, event: EventFail},
	}
	for _, testCase := range invalid {
		got, err := testCase.from.Next(testCase.event)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "%s on %s", testCase.from, testCase.event)
		assert.Equal(t, testCase.from, got)
	}
}

func TestPanelStateFromQuery(t *testing.T) {
	assert.Equal(t, PanelOpen, PanelStateFromQuery("open"))
	assert.Equal(t, PanelSaved, PanelStateFromQuery(" saved "))
	assert.Equal(t, PanelClosed, PanelStateFromQuery("submitting"))
	assert.Equal(t, PanelClosed, PanelStateFromQuery(""))
}

func TestNewLabelPanelPrefillsCurrentLabels(t *testing.T) {
	panel := NewLabelPanel(sampleFeedbackDetail(), []string{"helpful", "creative"}, PanelOpen)

	assert.Equal(t, "/human-feedback/fb-1/label", panel.Action)
	assert.Equal(t, "/human-feedback/42?label=open", panel.OpenHref)
	require.Len(t, panel.QualityOptions, 5)
	assert.True(t, panel.QualityOptions[2].Checked)
	assert.Len(t, panel.QualityOptions[4].Stars, 5)
	assert.Equal(t, []TagOption{{Name: "helpful"}, {Name: "creative", Checked: true}}, panel.TagOptions)
	assert.Equal(t, "local-only", panel.ExtraTags)
	assert.True(t, panel.NSFW)
	assert.True(t, panel.Open())

	output := renderPage(t, FeedbackTemplate, FeedbackPage{Title: "t", Viewer: AnonymousViewer()}.WithPanel(panel))
	assert.Contains(t, output, "Label sample #42")
	assert.Contains(t, output, `value="3" checked`)
	assert.Contains(t, output, `value="creative" checked`)
	assert.Contains(t, output, `id="nsfw" name="nsfw" checked`)
}

func TestLabelPanelClosedAndSaved(t *testing.T) {
	closed := NewLabelPanel(sampleFeedbackDetail(), nil, PanelClosed)
	assert.False(t, closed.Open())
	output := renderPage(t, FeedbackTemplate, FeedbackPage{Title: "t", Viewer: AnonymousViewer()}.WithPanel(closed))
	assert.Contains(t, output, "Label your sample")
	assert.NotContains(t, output, "<form")

	saved := NewLabelPanel(sampleFeedbackDetail(), nil, PanelSaved)
	assert.True(t, saved.Saved())
	assert.Contains(t, renderPage(t, FeedbackTemplate, FeedbackPage{Title: "t", Viewer: AnonymousViewer()}.WithPanel(saved)), "Labels saved.")
}

func TestLabelPanelFailedKeepsSubmission(t *testing.T) {
	quality := 5
	panel := NewLabelPanel(sampleFeedbackDetail(), []string{"helpful"}, PanelSubmitting).
		Failed(feedback.LabelInput{Quality: &quality, Tags: []string{"helpful", "extra"}}, []string{"helpful"}, "could not save labels")

	assert.Equal(t, PanelFailed, panel.State)
	assert.True(t, panel.Open())
	assert.True(t, panel.QualityOptions[4].Checked)
	assert.Equal(t, []TagOption{{Name: "helpful", Checked: true}}, panel.TagOptions)
	assert.Equal(t, "extra", panel.ExtraTags)
	assert.False(t, panel.NSFW)
	assert.Equal(t, "could not save labels", panel.Error)
}
