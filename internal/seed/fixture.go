// Package seed loads catalog and feedback fixtures into storage. It stands in
// for the ingestion pipelines that populate production databases.
package seed

import "time"

// Fixture is the document accepted by the importer.
type Fixture struct {
	Authors  []AuthorFixture   `json:"authors" validate:"dive"`
	Feedback []FeedbackFixture `json:"feedback" validate:"dive"`
}

// AuthorFixture describes an author and its models.
type AuthorFixture struct {
	Slug   string         `json:"slug" validate:"required,max=190"`
	Name   string         `json:"name" validate:"required,max=320"`
	Models []ModelFixture `json:"models" validate:"dive"`
}

// ModelFixture describes one model listing.
type ModelFixture struct {
	Slug          string          `json:"slug" validate:"required,max=190"`
	Name          string          `json:"name" validate:"required,max=320"`
	Arch          string          `json:"arch" validate:"max=64"`
	NumParameters float64         `json:"numParameters" validate:"gte=0"`
	RemoteID      string          `json:"remoteId" validate:"max=320"`
	GGUFID        string          `json:"ggufId" validate:"max=320"`
	Average       *float64        `json:"average" validate:"omitempty,gte=0,lte=5"`
	LastModified  time.Time       `json:"lastModified"`
	Reviews       []ReviewFixture `json:"reviews" validate:"dive"`
}

// ReviewFixture is one stored review.
type ReviewFixture struct {
	Text         string    `json:"text" validate:"required,max=4000"`
	ReviewerID   string    `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FeedbackFixture is one human feedback sample. Model references a catalog
// model as "authorSlug/modelSlug"; an unresolved reference leaves the sample
// attributed by ModelName only.
type FeedbackFixture struct {
	NumID     int64            `json:"numId" validate:"required,gt=0"`
	CreatedAt time.Time        `json:"createdAt"`
	Model     string           `json:"model"`
	ModelName string           `json:"modelName" validate:"max=320"`
	Messages  []MessageFixture `json:"messages" validate:"dive"`
	Quality   *int             `json:"quality" validate:"omitempty,min=1,max=5"`
	Tags      []string         `json:"tags" validate:"dive,required,max=64"`
	NSFW      bool             `json:"nsfw"`
}

// MessageFixture is one transcript turn.
type MessageFixture struct {
	Index   int    `json:"index"`
	Role    string `json:"role" validate:"required,max=32"`
	Content string `json:"content"`
}
