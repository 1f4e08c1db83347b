package pages

import (
	"github.com/MarcoPoloResearchLab/modelhub/internal/catalog"
)

// AuthorLink is the byline link to an author page.
type AuthorLink struct {
	Name string
	Href string
}

// TryItSection points at a downloadable GGUF and clients that can run it.
type TryItSection struct {
	DownloadURL string
	FreeChatURL string
	LMStudioURL string
}

// ScoreSection shows a model's aggregate review score.
type ScoreSection struct {
	Average string
	Stars   []Star
}

// ReviewForm is the review submission form shown to signed-in viewers.
type ReviewForm struct {
	Action string
	Text   string
	Error  string
}

// ReviewCard is one review in the reviews grid.
type ReviewCard struct {
	Text         string
	ReviewerName string
}

// ModelPage is the view model of a model detail page.
type ModelPage struct {
	Title          string
	Viewer         Viewer
	Name           string
	ParameterBadge string
	ArchBadge      string
	Author         AuthorLink
	LastModified   string
	DetailsURL     string
	TryIt          *TryItSection
	Score          *ScoreSection
	ReviewForm     *ReviewForm
	Reviews        []ReviewCard
}

// NewModelPage builds the model detail view for viewer.
func NewModelPage(detail catalog.ModelDetail, viewer Viewer, links Links) ModelPage {
	model := detail.Model
	page := ModelPage{
		Title:          model.Name,
		Viewer:         viewer,
		Name:           model.Name,
		ParameterBadge: formatParameterCount(model.NumParameters),
		ArchBadge:      model.Arch,
		Author: AuthorLink{
			Name: detail.Author.Name,
			Href: AuthorPath(detail.Author.Slug),
		},
		LastModified: formatModelDate(model.LastModifiedAt),
	}

	if model.RemoteID != "" {
		page.DetailsURL = links.HubURL(model.RemoteID)
	}
	if model.GGUFID != "" {
		page.TryIt = &TryItSection{
			DownloadURL: links.HubURL(model.GGUFID),
			FreeChatURL: FreeChatURL,
			LMStudioURL: LMStudioURL,
		}
	}
	if model.Average != nil {
		page.Score = &ScoreSection{
			Average: formatAverage(*model.Average),
			Stars:   StarRating(roundedRating(*model.Average)),
		}
	}
	if viewer.SignedIn() {
		page.ReviewForm = &ReviewForm{Action: ReviewsPath(detail.Author.Slug, model.Slug)}
	}

	page.Reviews = make([]ReviewCard, 0, len(detail.Reviews))
	for _, review := range detail.Reviews {
		page.Reviews = append(page.Reviews, ReviewCard{Text: review.Text, ReviewerName: review.ReviewerName})
	}
	return page
}

// WithReviewError returns the page with the review form showing a rejected submission.
func (p ModelPage) WithReviewError(text, message string) ModelPage {
	if p.ReviewForm == nil {
		return p
	}
	form := *p.ReviewForm
	form.Text = text
	form.Error = message
	p.ReviewForm = &form
	return p
}

// ModelSummary is a model row in listings.
type ModelSummary struct {
	Name           string
	Href           string
	ParameterBadge string
	ArchBadge      string
	AuthorName     string
	LastModified   string
}

func newModelSummary(model catalog.Model, author catalog.Author) ModelSummary {
	return ModelSummary{
		Name:           model.Name,
		Href:           ModelPath(author.Slug, model.Slug),
		ParameterBadge: formatParameterCount(model.NumParameters),
		ArchBadge:      model.Arch,
		AuthorName:     author.Name,
		LastModified:   formatModelDate(model.LastModifiedAt),
	}
}

// HomePage lists recently updated models.
type HomePage struct {
	Title  string
	Viewer Viewer
	Models []ModelSummary
}

// NewHomePage builds the landing page.
func NewHomePage(details []catalog.ModelDetail, viewer Viewer) HomePage {
	page := HomePage{Title: "Models", Viewer: viewer, Models: make([]ModelSummary, 0, len(details))}
	for _, detail := range details {
		page.Models = append(page.Models, newModelSummary(detail.Model, detail.Author))
	}
	return page
}

// AuthorPage lists an author's models.
type AuthorPage struct {
	Title  string
	Viewer Viewer
	Name   string
	Models []ModelSummary
}

// NewAuthorPage builds the author page.
func NewAuthorPage(detail catalog.AuthorDetail, viewer Viewer) AuthorPage {
	page := AuthorPage{
		Title:  detail.Author.Name,
		Viewer: viewer,
		Name:   detail.Author.Name,
		Models: make([]ModelSummary, 0, len(detail.Models)),
	}
	for _, model := range detail.Models {
		page.Models = append(page.Models, newModelSummary(model, detail.Author))
	}
	return page
}

// StatusPage renders not-found and error responses.
type StatusPage struct {
	Title   string
	Viewer  Viewer
	Message string
}
