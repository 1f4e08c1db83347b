package feedback

import (
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/catalog"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := SetupJoinTables(db); err != nil {
		t.Fatalf("failed to set up join tables: %v", err)
	}
	if err := db.AutoMigrate(&catalog.Author{}, &catalog.Model{}, &catalog.Review{}, &Tag{}, &HumanFeedback{}, &Message{}, &FeedbackTag{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database:      db,
		SuggestedTags: []string{"Helpful", "concise"},
		Clock: func() time.Time {
			return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func intPtr(value int) *int {
	return &value
}

func stringPtr(value string) *string {
	return &value
}

// seedFeedback stores two samples: fb-1 (linked to a catalog model, tagged
// "creative", messages stored out of order) and fb-2 (free-text model only).
func seedFeedback(t *testing.T, db *gorm.DB) {
	t.Helper()
	author := catalog.Author{ID: "author-1", Slug: "mistralai", Name: "Mistral AI"}
	if err := db.Create(&author).Error; err != nil {
		t.Fatalf("failed to seed author: %v", err)
	}
	model := catalog.Model{ID: "model-1", AuthorID: stringPtr("author-1"), Name: "Mistral 7B", Slug: "mistral-7b", LastModifiedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := db.Create(&model).Error; err != nil {
		t.Fatalf("failed to seed model: %v", err)
	}
	creative := Tag{Name: "creative"}
	if err := db.Create(&creative).Error; err != nil {
		t.Fatalf("failed to seed tag: %v", err)
	}

	samples := []HumanFeedback{
		{
			ID:        "fb-1",
			NumID:     1,
			CreatedAt: time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC),
			ModelID:   stringPtr("model-1"),
			ModelName: "mistral-7b-instruct.Q4_K_M.gguf",
			Quality:   intPtr(2),
			NSFW:      true,
		},
		{
			ID:        "fb-2",
			NumID:     2,
			CreatedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
			ModelName: "some-local-model",
		},
	}
	if err := db.Omit("Tags", "Messages", "Model").Create(&samples).Error; err != nil {
		t.Fatalf("failed to seed feedback: %v", err)
	}
	if err := db.Create(&FeedbackTag{HumanFeedbackID: "fb-1", TagID: creative.ID}).Error; err != nil {
		t.Fatalf("failed to seed feedback tag: %v", err)
	}

	messages := []Message{
		{ID: "m-3", HumanFeedbackID: "fb-1", Index: 2, Role: "assistant", Content: "third"},
		{ID: "m-1", HumanFeedbackID: "fb-1", Index: 0, Role: "user", Content: "first"},
		{ID: "m-2", HumanFeedbackID: "fb-1", Index: 1, Role: "assistant", Content: "second"},
	}
	if err := db.Create(&messages).Error; err != nil {
		t.Fatalf("failed to seed messages: %v", err)
	}
}
