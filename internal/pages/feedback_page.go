package pages

import (
	"fmt"
	"html/template"

	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"github.com/dustin/go-humanize"
)

// Byline names the model a sample came from. ModelHref is empty when the
// sample is not linked to a catalog model.
type Byline struct {
	ModelHref string
	ModelName string
	FreeText  string
}

// TranscriptEntry is one rendered message.
type TranscriptEntry struct {
	Role string
	HTML template.HTML
}

// FeedbackPage is the view model of a human feedback sample page.
type FeedbackPage struct {
	Title      string
	Viewer     Viewer
	CreatedAt  string
	Byline     Byline
	Transcript []TranscriptEntry
	Tags       []string
	Quality    []Star
	NSFW       bool
	Position   string
	Panel      *LabelPanel
}

// NewFeedbackPage builds the sample view. The transcript keeps the order of detail.Messages.
func NewFeedbackPage(detail feedback.Detail, viewer Viewer, renderer *MarkdownRenderer) (FeedbackPage, error) {
	createdAt := formatFeedbackTimestamp(detail.CreatedAt)
	page := FeedbackPage{
		Title:     createdAt,
		Viewer:    viewer,
		CreatedAt: createdAt,
		Byline:    Byline{FreeText: detail.Attribution.FreeText()},
		Tags:      detail.Tags,
		NSFW:      detail.NSFW,
		Position:  fmt.Sprintf("Sample #%d of %s", detail.NumID, humanize.Comma(detail.Total)),
	}
	if linked, ok := detail.Attribution.LinkedModel(); ok {
		page.Byline.ModelHref = ModelPath(linked.AuthorSlug, linked.ModelSlug)
		page.Byline.ModelName = linked.Name
	}
	if detail.Quality != nil {
		page.Quality = StarRating(*detail.Quality)
	}

	page.Transcript = make([]TranscriptEntry, 0, len(detail.Messages))
	for _, message := range detail.Messages {
		rendered, err := renderer.Render(message.Content)
		if err != nil {
			return FeedbackPage{}, fmt.Errorf("render message %s: %w", message.ID, err)
		}
		page.Transcript = append(page.Transcript, TranscriptEntry{Role: message.Role, HTML: rendered})
	}
	return page, nil
}

// WithPanel attaches the label panel.
func (p FeedbackPage) WithPanel(panel LabelPanel) FeedbackPage {
	p.Panel = &panel
	return p
}
