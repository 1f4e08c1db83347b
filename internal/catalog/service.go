package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/ids"
	"github.com/MarcoPoloResearchLab/modelhub/internal/svcerror"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrModelNotFound indicates no model matches the author and model slugs,
	// or the matching model has no resolvable author.
	ErrModelNotFound = errors.New("catalog: model not found")
	// ErrAuthorNotFound indicates no author matches the slug.
	ErrAuthorNotFound = errors.New("catalog: author not found")
	// ErrInvalidReview indicates the submitted review failed validation.
	ErrInvalidReview = errors.New("catalog: invalid review")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew        = "catalog.service.new"
	opLoadModel         = "catalog.load_model"
	opLoadAuthor        = "catalog.load_author"
	opListRecentModels  = "catalog.list_recent_models"
	opSubmitReview      = "catalog.submit_review"
	reasonMissingDB     = "missing_database"
	reasonQueryFailed   = "query_failed"
	reasonIDFailed      = "id_generation_failed"
	reasonInsertFailed  = "insert_failed"
	defaultRecentModels = 24
)

// ServiceConfig describes the dependencies of the catalog service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// Service reads model listings and records reviews.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider ids.Provider
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService constructs the catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, svcerror.New(opServiceNew, reasonMissingDB, errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, svcerror.New(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}, nil
}

// LoadModel returns the first model with the given slug whose author has the
// given slug, with its author and reviews.
func (s *Service) LoadModel(ctx context.Context, modelSlug, authorSlug string) (ModelDetail, error) {
	if s.db == nil {
		s.logError(opLoadModel, reasonMissingDB, errMissingDatabase)
		return ModelDetail{}, svcerror.New(opLoadModel, reasonMissingDB, errMissingDatabase)
	}

	var model Model
	err := s.db.WithContext(ctx).
		Joins("JOIN authors ON authors.id = models.author_id").
		Where("models.slug = ? AND authors.slug = ?", modelSlug, authorSlug).
		Preload("Author").
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ModelDetail{}, ErrModelNotFound
	}
	if err != nil {
		s.logError(opLoadModel, reasonQueryFailed, err,
			zap.String("author_slug", authorSlug),
			zap.String("model_slug", modelSlug))
		return ModelDetail{}, svcerror.New(opLoadModel, reasonQueryFailed, err)
	}

	detail, ok := newModelDetail(model)
	if !ok {
		s.loggerOrDefault().Warn("model without author treated as missing",
			zap.String("model_id", model.ID))
		return ModelDetail{}, ErrModelNotFound
	}
	return detail, nil
}

// LoadAuthor returns the author with the given slug and their models.
func (s *Service) LoadAuthor(ctx context.Context, authorSlug string) (AuthorDetail, error) {
	if s.db == nil {
		s.logError(opLoadAuthor, reasonMissingDB, errMissingDatabase)
		return AuthorDetail{}, svcerror.New(opLoadAuthor, reasonMissingDB, errMissingDatabase)
	}

	var author Author
	err := s.db.WithContext(ctx).
		Where("slug = ?", authorSlug).
		Preload("Models", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("last_modified_at DESC, id ASC")
		}).
		Take(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthorDetail{}, ErrAuthorNotFound
	}
	if err != nil {
		s.logError(opLoadAuthor, reasonQueryFailed, err, zap.String("author_slug", authorSlug))
		return AuthorDetail{}, svcerror.New(opLoadAuthor, reasonQueryFailed, err)
	}

	models := author.Models
	author.Models = nil
	return AuthorDetail{Author: author, Models: models}, nil
}

// ListRecentModels returns recently modified models that have an author.
func (s *Service) ListRecentModels(ctx context.Context, limit int) ([]ModelDetail, error) {
	if s.db == nil {
		s.logError(opListRecentModels, reasonMissingDB, errMissingDatabase)
		return nil, svcerror.New(opListRecentModels, reasonMissingDB, errMissingDatabase)
	}
	if limit <= 0 {
		limit = defaultRecentModels
	}

	var models []Model
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Order("last_modified_at DESC, id ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		s.logError(opListRecentModels, reasonQueryFailed, err)
		return nil, svcerror.New(opListRecentModels, reasonQueryFailed, err)
	}

	details := make([]ModelDetail, 0, len(models))
	for _, model := range models {
		if detail, ok := newModelDetail(model); ok {
			details = append(details, detail)
		}
	}
	return details, nil
}

// ReviewInput is a review submitted by a signed-in reviewer.
type ReviewInput struct {
	ModelID      string `validate:"required"`
	ReviewerID   string `validate:"required"`
	ReviewerName string
	Text         string `validate:"required,max=4000"`
}

// SubmitReview stores one review against a model.
func (s *Service) SubmitReview(ctx context.Context, input ReviewInput) (Review, error) {
	if s.db == nil {
		s.logError(opSubmitReview, reasonMissingDB, errMissingDatabase)
		return Review{}, svcerror.New(opSubmitReview, reasonMissingDB, errMissingDatabase)
	}

	input.Text = strings.TrimSpace(input.Text)
	input.ReviewerName = strings.TrimSpace(input.ReviewerName)
	if err := s.validate.Struct(input); err != nil {
		return Review{}, errors.Join(ErrInvalidReview, err)
	}

	reviewID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSubmitReview, reasonIDFailed, err)
		return Review{}, svcerror.New(opSubmitReview, reasonIDFailed, err)
	}

	review := Review{
		ID:           reviewID,
		ModelID:      input.ModelID,
		ReviewerID:   input.ReviewerID,
		ReviewerName: input.ReviewerName,
		Text:         input.Text,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		s.logError(opSubmitReview, reasonInsertFailed, err, zap.String("model_id", input.ModelID))
		return Review{}, svcerror.New(opSubmitReview, reasonInsertFailed, err)
	}
	return review, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("catalog service error", attrs...)
}
