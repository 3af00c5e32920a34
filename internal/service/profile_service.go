package service

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ProfileService exposes directory reads over profiles.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService builds the service.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// ListTechnicians returns every profile holding the technician role, for
// the admin assignment picker.
func (s *ProfileService) ListTechnicians(ctx context.Context) ([]domain.Profile, error) {
	technicians, err := s.profiles.ListByRole(ctx, domain.RoleTechnician)
	if err != nil {
		return nil, mapStoreError(err, "profile")
	}
	return technicians, nil
}

// GetProfile fetches a single profile.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "profile")
	}
	return profile, nil
}

// ListByRole returns profiles for one role; admin user management view.
func (s *ProfileService) ListByRole(ctx context.Context, actorID string, role domain.Role) ([]domain.Profile, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewPermissionDenied("admin role required")
	}
	profiles, err := s.profiles.ListByRole(ctx, role)
	if err != nil {
		return nil, mapStoreError(err, "profile")
	}
	return profiles, nil
}
