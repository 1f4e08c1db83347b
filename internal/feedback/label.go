package feedback

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/svcerror"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidLabel indicates the submitted labels failed validation.
var ErrInvalidLabel = errors.New("feedback: invalid label")

const (
	opLabel                 = "feedback.label"
	reasonSelectFailed      = "select_failed"
	reasonTagUpsertFailed   = "tag_upsert_failed"
	reasonTagLinkFailed     = "tag_link_failed"
	reasonTagUnlinkFailed   = "tag_unlink_failed"
	reasonUpdateFailed      = "update_failed"
	maxTagNameLength        = 64
	columnQuality           = "quality"
	columnNSFW              = "nsfw"
	queryFeedbackTagUnlinks = "human_feedback_id = ? AND tag_id IN ?"
)

// LabelInput carries the labels chosen for one sample. A nil Quality clears the rating.
type LabelInput struct {
	Quality *int     `validate:"omitempty,min=1,max=5"`
	Tags    []string `validate:"dive,required,max=64"`
	NSFW    bool
}

// LabelResult reports the stored labels and the tag changes that were applied.
type LabelResult struct {
	Quality   *int
	Tags      []string
	NSFW      bool
	Added     []string
	Removed   []string
	AppliedAt time.Time
}

// Label replaces the quality, tag set and NSFW flag of one sample. Tags are
// reconciled against the stored set so only the difference is written; applying
// the same input twice leaves the second call with nothing to add or remove.
// No other column of the sample is touched. Concurrent labelers: last writer wins.
func (s *Service) Label(ctx context.Context, id string, input LabelInput) (LabelResult, error) {
	if s.db == nil {
		s.logError(opLabel, reasonMissingDB, errMissingDatabase)
		return LabelResult{}, svcerror.New(opLabel, reasonMissingDB, errMissingDatabase)
	}

	desired, err := normalizeTagNames(input.Tags)
	if err != nil {
		return LabelResult{}, err
	}
	input.Tags = desired
	if err := s.validate.Struct(input); err != nil {
		return LabelResult{}, errors.Join(ErrInvalidLabel, err)
	}

	result := LabelResult{Quality: input.Quality, NSFW: input.NSFW, Tags: desired}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record HumanFeedback
		err := tx.Select("id").Preload("Tags").Where("id = ?", id).Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		if err != nil {
			s.logError(opLabel, reasonSelectFailed, err, zap.String("feedback_id", id))
			return svcerror.New(opLabel, reasonSelectFailed, err)
		}

		added, removed := diffTags(record.Tags, desired)

		if len(added) > 0 {
			links := make([]FeedbackTag, 0, len(added))
			for _, name := range added {
				tag := Tag{Name: name}
				if err := tx.Where(Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
					s.logError(opLabel, reasonTagUpsertFailed, err, zap.String("feedback_id", id), zap.String("tag", name))
					return svcerror.New(opLabel, reasonTagUpsertFailed, err)
				}
				links = append(links, FeedbackTag{HumanFeedbackID: id, TagID: tag.ID})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				s.logError(opLabel, reasonTagLinkFailed, err, zap.String("feedback_id", id))
				return svcerror.New(opLabel, reasonTagLinkFailed, err)
			}
		}

		if len(removed) > 0 {
			tagIDs := make([]uint, 0, len(removed))
			for _, tag := range removed {
				tagIDs = append(tagIDs, tag.ID)
			}
			if err := tx.Where(queryFeedbackTagUnlinks, id, tagIDs).Delete(&FeedbackTag{}).Error; err != nil {
				s.logError(opLabel, reasonTagUnlinkFailed, err, zap.String("feedback_id", id))
				return svcerror.New(opLabel, reasonTagUnlinkFailed, err)
			}
		}

		if err := tx.Model(&HumanFeedback{}).
			Where("id = ?", id).
			Select(columnQuality, columnNSFW).
			Updates(map[string]interface{}{
				columnQuality: input.Quality,
				columnNSFW:    input.NSFW,
			}).Error; err != nil {
			s.logError(opLabel, reasonUpdateFailed, err, zap.String("feedback_id", id))
			return svcerror.New(opLabel, reasonUpdateFailed, err)
		}

		result.Added = added
		result.Removed = tagNames(removed)
		return nil
	})
	if txErr != nil {
		return LabelResult{}, txErr
	}

	result.AppliedAt = s.clock().UTC()
	s.loggerOrDefault().Info("feedback labeled",
		zap.String("feedback_id", id),
		zap.Strings("tags_added", result.Added),
		zap.Strings("tags_removed", result.Removed),
		zap.Bool("nsfw", result.NSFW))
	return result, nil
}

// diffTags returns the names to link and the stored tags to unlink so that the
// stored set equals desired.
func diffTags(current []Tag, desired []string) ([]string, []Tag) {
	want := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		want[name] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	var removed []Tag
	for _, tag := range current {
		have[tag.Name] = struct{}{}
		if _, ok := want[tag.Name]; !ok {
			removed = append(removed, tag)
		}
	}
	var added []string
	for _, name := range desired {
		if _, ok := have[name]; !ok {
			added = append(added, name)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].Name < removed[j].Name })
	return added, removed
}

// normalizeTagNames trims and lowercases names, drops empties and duplicates,
// and keeps first-seen order.
func normalizeTagNames(names []string) ([]string, error) {
	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if len(name) > maxTagNameLength {
			return nil, errors.Join(ErrInvalidLabel, errors.New("tag name exceeds 64 characters"))
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	return normalized, nil
}

func tagNames(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
