package pages

import "net/url"

const (
	FreeChatURL = "https://www.freechat.run/"
	LMStudioURL = "https://lmstudio.ai"
)

// Links builds outbound and in-site URLs.
type Links struct {
	HubBaseURL string
}

// HubURL points at a repository on the model hub. The id is interpolated as is.
func (l Links) HubURL(id string) string {
	return l.HubBaseURL + "/" + id
}

// AuthorPath is the in-site page for an author.
func AuthorPath(authorSlug string) string {
	return "/" + url.PathEscape(authorSlug)
}

// ModelPath is the in-site page for a model.
func ModelPath(authorSlug, modelSlug string) string {
	return AuthorPath(authorSlug) + "/" + url.PathEscape(modelSlug)
}

// ReviewsPath is the review submission target for a model.
func ReviewsPath(authorSlug, modelSlug string) string {
	return ModelPath(authorSlug, modelSlug) + "/reviews"
}

// FeedbackPath is the in-site page for a sample, addressed by id or display id.
func FeedbackPath(ref string) string {
	return "/human-feedback/" + url.PathEscape(ref)
}

// LabelPath is the label submission target for a sample.
func LabelPath(id string) string {
	return FeedbackPath(id) + "/label"
}
