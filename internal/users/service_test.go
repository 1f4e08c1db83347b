package users

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/auth"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Identity{}); err != nil {
		t.Fatalf("failed to migrate identity schema: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock: func() time.Time {
			return time.Unix(1, 0)
		},
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, db
}

func TestResolveReviewerStripsProviderPrefix(t *testing.T) {
	service, db := newTestService(t)

	session := auth.Session{
		UserID:      "google:12345",
		Email:       "user@example.com",
		DisplayName: "Example User",
		AvatarURL:   "https://example.com/avatar.png",
	}
	reviewer, err := service.ResolveReviewer(context.Background(), session)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if reviewer.UserID != "12345" {
		t.Fatalf("expected canonical user id without provider prefix, got %q", reviewer.UserID)
	}
	if reviewer.DisplayName != "Example User" {
		t.Fatalf("unexpected display name %q", reviewer.DisplayName)
	}

	// second call should hit cache and not create a duplicate record.
	reviewer, err = service.ResolveReviewer(context.Background(), session)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if reviewer.UserID != "12345" {
		t.Fatalf("expected canonical user id to remain stable, got %q", reviewer.UserID)
	}

	var count int64
	if err := db.Model(&Identity{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one identity row, got %d", count)
	}
}

func TestResolveReviewerRefreshesDisplayName(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	if _, err := service.ResolveReviewer(ctx, auth.Session{UserID: "user-7", DisplayName: "Old"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	reviewer, err := service.ResolveReviewer(ctx, auth.Session{UserID: "user-7", DisplayName: "New"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if reviewer.DisplayName != "New" {
		t.Fatalf("expected refreshed display name, got %q", reviewer.DisplayName)
	}

	var stored Identity
	if err := db.Where("subject = ?", "user-7").Take(&stored).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.DisplayName != "New" {
		t.Fatalf("expected stored display name to update, got %q", stored.DisplayName)
	}
}

func TestResolveReviewerRejectsEmptySession(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.ResolveReviewer(context.Background(), auth.Session{}); err != ErrInvalidIdentity {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}
