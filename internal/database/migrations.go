package database

import (
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	migrationNormalizeTagNames   = "2024-05-01_normalize_tag_names"
	migrationClearInvalidQuality = "2024-05-14_clear_out_of_range_quality"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeTagNames, apply: normalizeTagNames},
		{name: migrationClearInvalidQuality, apply: clearInvalidQuality},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := migration.apply(tx); err != nil {
				return err
			}
			appliedAt := time.Now().UTC().Unix()
			return tx.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error
		})
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// normalizeTagNames lowercases and trims tag names written by ingestion. Tags
// that collapse onto an existing name are merged into it.
func normalizeTagNames(db *gorm.DB) error {
	var tags []feedback.Tag
	if err := db.Order("id ASC").Find(&tags).Error; err != nil {
		return err
	}

	canonical := make(map[string]uint, len(tags))
	for _, tag := range tags {
		if tag.Name == strings.ToLower(strings.TrimSpace(tag.Name)) {
			canonical[tag.Name] = tag.ID
		}
	}

	for _, tag := range tags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		if name == tag.Name {
			continue
		}
		targetID, exists := canonical[name]
		if !exists {
			if err := db.Model(&feedback.Tag{}).Where("id = ?", tag.ID).Update("name", name).Error; err != nil {
				return err
			}
			canonical[name] = tag.ID
			continue
		}

		var links []feedback.FeedbackTag
		if err := db.Where("tag_id = ?", tag.ID).Find(&links).Error; err != nil {
			return err
		}
		for index := range links {
			links[index].TagID = targetID
		}
		if len(links) > 0 {
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				return err
			}
		}
		if err := db.Where("tag_id = ?", tag.ID).Delete(&feedback.FeedbackTag{}).Error; err != nil {
			return err
		}
		if err := db.Delete(&feedback.Tag{}, tag.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

// clearInvalidQuality drops ratings outside the 1..5 scale.
func clearInvalidQuality(db *gorm.DB) error {
	return db.Model(&feedback.HumanFeedback{}).
		Where("quality < ? OR quality > ?", 1, 5).
		Update("quality", nil).Error
}
