package feedback

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/svcerror"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	// ErrFeedbackNotFound indicates no sample matches the identifier.
	ErrFeedbackNotFound = errors.New("feedback: sample not found")

	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew         = "feedback.service.new"
	opLoad               = "feedback.load"
	opSuggestedTags      = "feedback.suggested_tags"
	reasonMissingDB      = "missing_database"
	reasonQueryFailed    = "query_failed"
	reasonCountFailed    = "count_failed"
	defaultSuggestionCap = 20
)

// ServiceConfig describes the dependencies of the feedback service.
type ServiceConfig struct {
	Database      *gorm.DB
	Clock         func() time.Time
	SuggestedTags []string
	Logger        *zap.Logger
}

// Service loads feedback samples and applies labels to them.
type Service struct {
	db            *gorm.DB
	clock         func() time.Time
	suggestedTags []string
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewService constructs the feedback service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, svcerror.New(opServiceNew, reasonMissingDB, errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	suggested, _ := normalizeTagNames(cfg.SuggestedTags)
	return &Service{
		db:            cfg.Database,
		clock:         clock,
		suggestedTags: suggested,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}, nil
}

// SetupJoinTables registers the explicit join model for the tags relation.
// It must run before AutoMigrate.
func SetupJoinTables(db *gorm.DB) error {
	return db.SetupJoinTable(&HumanFeedback{}, "Tags", &FeedbackTag{})
}

// ParseNumID reports whether ref is a numeric display id.
func ParseNumID(ref string) (int64, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return 0, false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Load fetches the sample with the given id together with the total sample count.
func (s *Service) Load(ctx context.Context, id string) (Detail, error) {
	return s.load(ctx, "id = ?", id)
}

// LoadByNumID fetches the sample with the given display id together with the total sample count.
func (s *Service) LoadByNumID(ctx context.Context, numID int64) (Detail, error) {
	return s.load(ctx, "num_id = ?", numID)
}

func (s *Service) load(ctx context.Context, query string, arg any) (Detail, error) {
	if s.db == nil {
		s.logError(opLoad, reasonMissingDB, errMissingDatabase)
		return Detail{}, svcerror.New(opLoad, reasonMissingDB, errMissingDatabase)
	}

	var (
		record HumanFeedback
		total  int64
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := s.db.WithContext(groupCtx).
			Preload("Messages").
			Preload("Model.Author").
			Preload("Tags", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("tags.name ASC")
			}).
			Where(query, arg).
			Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		if err != nil {
			s.logError(opLoad, reasonQueryFailed, err, zap.Any("ref", arg))
			return svcerror.New(opLoad, reasonQueryFailed, err)
		}
		return nil
	})
	group.Go(func() error {
		if err := s.db.WithContext(groupCtx).Model(&HumanFeedback{}).Count(&total).Error; err != nil {
			s.logError(opLoad, reasonCountFailed, err)
			return svcerror.New(opLoad, reasonCountFailed, err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return Detail{}, err
	}

	return newDetail(record, total), nil
}

// SuggestedTags returns the configured tags followed by the most used stored
// tags, without duplicates.
func (s *Service) SuggestedTags(ctx context.Context) ([]string, error) {
	if s.db == nil {
		s.logError(opSuggestedTags, reasonMissingDB, errMissingDatabase)
		return nil, svcerror.New(opSuggestedTags, reasonMissingDB, errMissingDatabase)
	}

	var rows []struct {
		Name string
		Uses int64
	}
	if err := s.db.WithContext(ctx).
		Table(Tag{}.TableName()).
		Select("tags.name AS name, COUNT(human_feedback_tags.tag_id) AS uses").
		Joins("LEFT JOIN human_feedback_tags ON human_feedback_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("uses DESC, tags.name ASC").
		Limit(defaultSuggestionCap).
		Scan(&rows).Error; err != nil {
		s.logError(opSuggestedTags, reasonQueryFailed, err)
		return nil, svcerror.New(opSuggestedTags, reasonQueryFailed, err)
	}

	names := append([]string(nil), s.suggestedTags...)
	for _, row := range rows {
		names = append(names, row.Name)
	}
	merged, _ := normalizeTagNames(names)
	return merged, nil
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
	s.loggerOrDefault().Error("feedback service error", attrs...)
}
