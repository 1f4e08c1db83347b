package catalog

import "time"

// Author owns a set of models and is addressed by a unique slug.
type Author struct {
	ID     string  `gorm:"column:id;primaryKey;size:64"`
	Slug   string  `gorm:"column:slug;size:190;not null;uniqueIndex"`
	Name   string  `gorm:"column:name;size:320;not null"`
	Models []Model `gorm:"foreignKey:AuthorID"`
}

// TableName provides the explicit table binding for GORM.
func (Author) TableName() string {
	return "authors"
}

// Model is a published model listing. RemoteID and GGUFID are empty when absent;
// Average is nil until an aggregate score has been computed.
type Model struct {
	ID             string    `gorm:"column:id;primaryKey;size:64"`
	AuthorID       *string   `gorm:"column:author_id;size:64;uniqueIndex:idx_models_author_slug,priority:1"`
	Author         *Author   `gorm:"foreignKey:AuthorID;references:ID"`
	Name           string    `gorm:"column:name;size:320;not null"`
	Slug           string    `gorm:"column:slug;size:190;not null;uniqueIndex:idx_models_author_slug,priority:2"`
	Arch           string    `gorm:"column:arch;size:64;not null;default:''"`
	NumParameters  float64   `gorm:"column:num_parameters;not null;default:0"`
	RemoteID       string    `gorm:"column:remote_id;size:320;not null;default:''"`
	GGUFID         string    `gorm:"column:gguf_id;size:320;not null;default:''"`
	Average        *float64  `gorm:"column:average"`
	LastModifiedAt time.Time `gorm:"column:last_modified_at;not null;index"`
	Reviews        []Review  `gorm:"foreignKey:ModelID"`
}

// TableName provides the explicit table binding for GORM.
func (Model) TableName() string {
	return "models"
}

// Review is free-text feedback on a model.
type Review struct {
	ID           string    `gorm:"column:id;primaryKey;size:64"`
	ModelID      string    `gorm:"column:model_id;size:64;not null;index:idx_reviews_model_created,priority:1"`
	ReviewerID   string    `gorm:"column:reviewer_id;size:190;not null;default:''"`
	ReviewerName string    `gorm:"column:reviewer_name;size:320;not null;default:''"`
	Text         string    `gorm:"column:text;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;index:idx_reviews_model_created,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Review) TableName() string {
	return "reviews"
}

// ModelDetail is a model whose author relation has been resolved. Loaders
// never return a ModelDetail without an Author.
type ModelDetail struct {
	Model   Model
	Author  Author
	Reviews []Review
}

func newModelDetail(model Model) (ModelDetail, bool) {
	if model.Author == nil {
		return ModelDetail{}, false
	}
	author := *model.Author
	author.Models = nil
	reviews := model.Reviews
	model.Author = nil
	model.Reviews = nil
	return ModelDetail{Model: model, Author: author, Reviews: reviews}, true
}

// AuthorDetail lists an author's models, most recently modified first.
type AuthorDetail struct {
	Author Author
	Models []Model
}
