package services

import (
	"context"
	"fmt"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg/cache"
	"github.com/rossosss/zvonok/repository"
)

// ProfileService maps external identities to local profiles.
type ProfileService interface {
	// InitialProfile returns the profile of identity, creating it or
	// refreshing its name, email and image when they changed.
	InitialProfile(ctx context.Context, identity models.Identity) (*models.Profile, error)

	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
	cache       *cache.TTLCache[string, *models.Profile]
}

// NewProfileService caches profiles by user id so authenticated requests
// skip the upsert while the claims are unchanged. cache may be nil.
func NewProfileService(profileRepo repository.ProfileRepository, cache *cache.TTLCache[string, *models.Profile]) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		cache:       cache,
	}
}

func (s *profileService) InitialProfile(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	if s.cache != nil {
		p, ok := s.cache.Get(identity.UserID)
		if ok && matchesIdentity(p, identity) {
			return p, nil
		}
		if ok {
			// The claims changed; never serve the old profile again.
			s.cache.Delete(identity.UserID)
		}
	}

	profile := &models.Profile{
		UserID:   identity.UserID,
		Name:     identity.Name,
		Email:    identity.Email,
		ImageURL: identity.ImageURL,
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(identity.UserID, profile)
	}
	return profile, nil
}

func (s *profileService) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, id)
}

func matchesIdentity(p *models.Profile, identity models.Identity) bool {
	return p.Name == identity.Name && p.Email == identity.Email && p.ImageURL == identity.ImageURL
}
