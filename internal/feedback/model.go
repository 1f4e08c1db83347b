package feedback

import (
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/catalog"
)

// HumanFeedback is a recorded conversation sample, optionally attributed to a
// catalog model. Quality, Tags and NSFW are the only fields this site writes.
type HumanFeedback struct {
	ID        string         `gorm:"column:id;primaryKey;size:64"`
	NumID     int64          `gorm:"column:num_id;not null;uniqueIndex"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;index"`
	ModelID   *string        `gorm:"column:model_id;size:64;index"`
	Model     *catalog.Model `gorm:"foreignKey:ModelID;references:ID"`
	ModelName string         `gorm:"column:model_name;size:320;not null;default:''"`
	Messages  []Message      `gorm:"foreignKey:HumanFeedbackID"`
	Quality   *int           `gorm:"column:quality"`
	Tags      []Tag          `gorm:"many2many:human_feedback_tags;"`
	NSFW      bool           `gorm:"column:nsfw;not null;default:false"`
}

// TableName provides the explicit table binding for GORM.
func (HumanFeedback) TableName() string {
	return "human_feedback"
}

// Message is one turn of a feedback transcript. Index orders the transcript;
// gaps and duplicates are tolerated.
type Message struct {
	ID              string `gorm:"column:id;primaryKey;size:64"`
	HumanFeedbackID string `gorm:"column:human_feedback_id;size:64;not null;index"`
	Index           int    `gorm:"column:message_index;not null"`
	Role            string `gorm:"column:role;size:32;not null;default:''"`
	Content         string `gorm:"column:content;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Message) TableName() string {
	return "human_feedback_messages"
}

// Tag is a named label shared across feedback samples.
type Tag struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;size:64;not null;uniqueIndex"`
}

// TableName provides the explicit table binding for GORM.
func (Tag) TableName() string {
	return "tags"
}

// FeedbackTag is the join row between HumanFeedback and Tag.
type FeedbackTag struct {
	HumanFeedbackID string `gorm:"column:human_feedback_id;primaryKey;size:64"`
	TagID           uint   `gorm:"column:tag_id;primaryKey;index"`
}

// TableName provides the explicit table binding for GORM.
func (FeedbackTag) TableName() string {
	return "human_feedback_tags"
}

// LinkedModel identifies the catalog model a sample is attributed to.
type LinkedModel struct {
	AuthorSlug string
	ModelSlug  string
	Name       string
}

// Attribution says who produced a sample: a catalog model when the relation
// and its author resolve, otherwise only the free-text model name.
type Attribution struct {
	linked   *LinkedModel
	freeText string
}

// LinkedModel returns the catalog model, if the sample is linked to one.
func (a Attribution) LinkedModel() (LinkedModel, bool) {
	if a.linked == nil {
		return LinkedModel{}, false
	}
	return *a.linked, true
}

// FreeText returns the recorded model name.
func (a Attribution) FreeText() string {
	return a.freeText
}

// FreeTextAttribution attributes a sample to a model name only.
func FreeTextAttribution(modelName string) Attribution {
	return Attribution{freeText: modelName}
}

// LinkedAttribution attributes a sample to a catalog model.
func LinkedAttribution(linked LinkedModel, modelName string) Attribution {
	return Attribution{linked: &linked, freeText: modelName}
}

func newAttribution(record HumanFeedback) Attribution {
	if record.Model == nil || record.Model.Author == nil {
		return FreeTextAttribution(record.ModelName)
	}
	return LinkedAttribution(LinkedModel{
		AuthorSlug: record.Model.Author.Slug,
		ModelSlug:  record.Model.Slug,
		Name:       record.Model.Name,
	}, record.ModelName)
}

// Detail is a loaded sample ready for display.
type Detail struct {
	ID          string
	NumID       int64
	CreatedAt   time.Time
	Attribution Attribution
	Messages    []Message
	Quality     *int
	Tags        []string
	NSFW        bool
	// Total is the number of samples in storage.
	Total int64
}

func newDetail(record HumanFeedback, total int64) Detail {
	tags := make([]string, 0, len(record.Tags))
	for _, tag := range record.Tags {
		tags = append(tags, tag.Name)
	}
	return Detail{
		ID:          record.ID,
		NumID:       record.NumID,
		CreatedAt:   record.CreatedAt,
		Attribution: newAttribution(record),
		Messages:    SortMessages(record.Messages),
		Quality:     record.Quality,
		Tags:        tags,
		NSFW:        record.NSFW,
		Total:       total,
	}
}
