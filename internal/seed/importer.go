package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/catalog"
	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"github.com/MarcoPoloResearchLab/modelhub/internal/ids"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidFixture indicates the fixture document failed to decode or validate.
	ErrInvalidFixture = errors.New("seed: invalid fixture")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
)

// ImporterConfig describes the importer dependencies.
type ImporterConfig struct {
	Database   *gorm.DB
	IDProvider ids.Provider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Importer writes fixtures into storage.
type Importer struct {
	db         *gorm.DB
	idProvider ids.Provider
	clock      func() time.Time
	validate   *validator.Validate
	logger     *zap.Logger
}

// Summary counts the rows an import created.
type Summary struct {
	Authors  int
	Models   int
	Reviews  int
	Feedback int
	Skipped  int
}

// NewImporter constructs an importer.
func NewImporter(cfg ImporterConfig) (*Importer, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	idProvider := cfg.IDProvider
	if idProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		db:         cfg.Database,
		idProvider: idProvider,
		clock:      clock,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}, nil
}

// Decode reads and validates a fixture document.
func (i *Importer) Decode(reader io.Reader) (Fixture, error) {
	var fixture Fixture
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fixture); err != nil {
		return Fixture{}, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if err := i.validate.Struct(fixture); err != nil {
		return Fixture{}, errors.Join(ErrInvalidFixture, err)
	}
	return fixture, nil
}

// Import writes the fixture in one transaction. Authors and models are matched
// by slug and updated in place; samples whose display id already exists are skipped.
func (i *Importer) Import(ctx context.Context, fixture Fixture) (Summary, error) {
	var summary Summary
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		modelIDs := make(map[string]string)
		for _, authorFixture := range fixture.Authors {
			author, created, err := i.upsertAuthor(tx, authorFixture)
			if err != nil {
				return err
			}
			if created {
				summary.Authors++
			}
			for _, modelFixture := range authorFixture.Models {
				model, created, err := i.upsertModel(tx, author, modelFixture)
				if err != nil {
					return err
				}
				if created {
					summary.Models++
				}
				modelIDs[author.Slug+"/"+model.Slug] = model.ID
				for _, reviewFixture := range modelFixture.Reviews {
					if err := i.createReview(tx, model.ID, reviewFixture); err != nil {
						return err
					}
					summary.Reviews++
				}
			}
		}

		for _, feedbackFixture := range fixture.Feedback {
			created, err := i.createFeedback(tx, modelIDs, feedbackFixture)
			if err != nil {
				return err
			}
			if created {
				summary.Feedback++
			} else {
				summary.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	i.logger.Info("fixture imported",
		zap.Int("authors", summary.Authors),
		zap.Int("models", summary.Models),
		zap.Int("reviews", summary.Reviews),
		zap.Int("feedback", summary.Feedback),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (i *Importer) upsertAuthor(tx *gorm.DB, fixture AuthorFixture) (catalog.Author, bool, error) {
	var author catalog.Author
	err := tx.Where("slug = ?", fixture.Slug).Take(&author).Error
	switch {
	case err == nil:
		if author.Name != fixture.Name {
			if err := tx.Model(&author).Update("name", fixture.Name).Error; err != nil {
				return catalog.Author{}, false, err
			}
		}
		return author, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return catalog.Author{}, false, err
	}

	id, err := i.idProvider.NewID()
	if err != nil {
		return catalog.Author{}, false, err
	}
	author = catalog.Author{ID: id, Slug: fixture.Slug, Name: fixture.Name}
	if err := tx.Create(&author).Error; err != nil {
		return catalog.Author{}, false, err
	}
	return author, true, nil
}

func (i *Importer) upsertModel(tx *gorm.DB, author catalog.Author, fixture ModelFixture) (catalog.Model, bool, error) {
	lastModified := fixture.LastModified
	if lastModified.IsZero() {
		lastModified = i.clock()
	}
	fields := map[string]any{
		"name":             fixture.Name,
		"arch":             fixture.Arch,
		"num_parameters":   fixture.NumParameters,
		"remote_id":        fixture.RemoteID,
		"gguf_id":          fixture.GGUFID,
		"average":          fixture.Average,
		"last_modified_at": lastModified.UTC(),
	}

	var model catalog.Model
	err := tx.Where("author_id = ? AND slug = ?", author.ID, fixture.Slug).Take(&model).Error
	switch {
	case err == nil:
		if err := tx.Model(&model).Updates(fields).Error; err != nil {
			return catalog.Model{}, false, err
		}
		return model, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return catalog.Model{}, false, err
	}

	id, err := i.idProvider.NewID()
	if err != nil {
		return catalog.Model{}, false, err
	}
	authorID := author.ID
	model = catalog.Model{
		ID:             id,
		AuthorID:       &authorID,
		Name:           fixture.Name,
		Slug:           fixture.Slug,
		Arch:           fixture.Arch,
		NumParameters:  fixture.NumParameters,
		RemoteID:       fixture.RemoteID,
		GGUFID:         fixture.GGUFID,
		Average:        fixture.Average,
		LastModifiedAt: lastModified.UTC(),
	}
	if err := tx.Omit("Author", "Reviews").Create(&model).Error; err != nil {
		return catalog.Model{}, false, err
	}
	return model, true, nil
}

func (i *Importer) createReview(tx *gorm.DB, modelID string, fixture ReviewFixture) error {
	id, err := i.idProvider.NewID()
	if err != nil {
		return err
	}
	createdAt := fixture.CreatedAt
	if createdAt.IsZero() {
		createdAt = i.clock()
	}
	return tx.Create(&catalog.Review{
		ID:           id,
		ModelID:      modelID,
		ReviewerID:   fixture.ReviewerID,
		ReviewerName: fixture.ReviewerName,
		Text:         strings.TrimSpace(fixture.Text),
		CreatedAt:    createdAt.UTC(),
	}).Error
}

func (i *Importer) createFeedback(tx *gorm.DB, modelIDs map[string]string, fixture FeedbackFixture) (bool, error) {
	var existing int64
	if err := tx.Model(&feedback.HumanFeedback{}).Where("num_id = ?", fixture.NumID).Count(&existing).Error; err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	id, err := i.idProvider.NewID()
	if err != nil {
		return false, err
	}
	createdAt := fixture.CreatedAt
	if createdAt.IsZero() {
		createdAt = i.clock()
	}
	record := feedback.HumanFeedback{
		ID:        id,
		NumID:     fixture.NumID,
		CreatedAt: createdAt.UTC(),
		ModelName: fixture.ModelName,
		Quality:   fixture.Quality,
		NSFW:      fixture.NSFW,
	}
	if modelID, ok := i.resolveModel(tx, modelIDs, fixture.Model); ok {
		record.ModelID = &modelID
	}
	for _, messageFixture := range fixture.Messages {
		messageID, err := i.idProvider.NewID()
		if err != nil {
			return false, err
		}
		record.Messages = append(record.Messages, feedback.Message{
			ID:              messageID,
			HumanFeedbackID: id,
			Index:           messageFixture.Index,
			Role:            messageFixture.Role,
			Content:         messageFixture.Content,
		})
	}
	if err := tx.Omit("Model", "Tags").Create(&record).Error; err != nil {
		return false, err
	}

	for _, name := range fixture.Tags {
		tag := feedback.Tag{Name: strings.ToLower(strings.TrimSpace(name))}
		if tag.Name == "" {
			continue
		}
		if err := tx.Where("name = ?", tag.Name).FirstOrCreate(&tag).Error; err != nil {
			return false, err
		}
		link := feedback.FeedbackTag{HumanFeedbackID: id, TagID: tag.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func (i *Importer) resolveModel(tx *gorm.DB, modelIDs map[string]string, reference string) (string, bool) {
	reference = strings.Trim(strings.TrimSpace(reference), "/")
	if reference == "" {
		return "", false
	}
	if id, ok := modelIDs[reference]; ok {
		return id, true
	}
	authorSlug, modelSlug, found := strings.Cut(reference, "/")
	if !found {
		return "", false
	}
	var model catalog.Model
	err := tx.Joins("JOIN authors ON authors.id = models.author_id").
		Where("authors.slug = ? AND models.slug = ?", authorSlug, modelSlug).
		Take(&model).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			i.logger.Warn("model reference lookup failed", zap.String("model", reference), zap.Error(err))
		}
		return "", false
	}
	return model.ID, true
}
