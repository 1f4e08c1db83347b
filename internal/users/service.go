package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/auth"
	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the session did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("users: invalid identity")

// ServiceConfig describes the dependencies required for user identity resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages canonical user identifiers and provider-specific identities.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
	}, nil
}

// ResolveReviewer returns the canonical reviewer for a signed-in session,
// creating the identity mapping the first time a provider+subject pair is seen.
func (s *Service) ResolveReviewer(ctx context.Context, session auth.Session) (Reviewer, error) {
	provider, subject := deriveProviderSubject(session)
	if subject == "" {
		return Reviewer{}, ErrInvalidIdentity
	}
	displayName := normalize(session.Name())

	cacheKey := provider + ":" + subject
	if cached, ok := s.cache.Load(cacheKey); ok {
		if reviewer, ok := cached.(Reviewer); ok && (displayName == "" || reviewer.DisplayName == displayName) {
			return reviewer, nil
		}
	}

	db := s.db.WithContext(ctx)
	var identity Identity
	err := db.
		Where("provider = ? AND subject = ?", provider, subject).
		First(&identity).
		Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity = Identity{
			Provider:    provider,
			Subject:     subject,
			UserID:      subject,
			Email:       normalize(session.Email),
			DisplayName: displayName,
			AvatarURL:   normalize(session.AvatarURL),
			LastSeenAt:  s.now(),
		}
		if err := db.Create(&identity).Error; err != nil {
			return Reviewer{}, err
		}
	case err != nil:
		return Reviewer{}, err
	default:
		updates := map[string]interface{}{"last_seen_at": s.now()}
		if email := normalize(session.Email); email != "" && email != identity.Email {
			updates["user_email"] = email
		}
		if displayName != "" && displayName != identity.DisplayName {
			updates["user_display_name"] = displayName
			identity.DisplayName = displayName
		}
		if avatar := normalize(session.AvatarURL); avatar != "" && avatar != identity.AvatarURL {
			updates["user_avatar_url"] = avatar
		}
		if err := db.Model(&Identity{}).
			Where("provider = ? AND subject = ?", provider, subject).
			Updates(updates).
			Error; err != nil {
			return Reviewer{}, err
		}
	}

	reviewer := Reviewer{UserID: identity.UserID, DisplayName: identity.DisplayName}
	if reviewer.DisplayName == "" {
		reviewer.DisplayName = reviewer.UserID
	}
	s.cache.Store(cacheKey, reviewer)
	return reviewer, nil
}

func deriveProviderSubject(session auth.Session) (string, string) {
	provider := "default"
	subject := normalize(session.Subject)

	raw := normalize(session.UserID)
	if raw != "" {
		if strings.Contains(raw, ":") {
			segments := strings.SplitN(raw, ":", 2)
			if normalize(segments[0]) != "" && normalize(segments[1]) != "" {
				provider = normalize(segments[0])
				subject = normalize(segments[1])
			}
		} else if subject == "" {
			subject = raw
		}
	}

	if subject == "" {
		subject = normalize(session.Email)
	}

	return provider, subject
}
