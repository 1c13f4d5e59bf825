package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkov/profilekeeper/internal/models"
)

// ProfileReader defines the storage reads needed by the ProfileService.
type ProfileReader interface {
	GetSettings(ctx context.Context, tx *sql.Tx, key models.ProfileKey) (models.Settings, error)
	GetLoadouts(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]models.Loadout, error)
	GetAnnotations(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]models.ItemAnnotation, error)
	GetTriumphs(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]int64, error)
	GetSearches(ctx context.Context, tx *sql.Tx, key models.ProfileKey) ([]models.Search, error)
}

// Component names accepted by ProfileService.GetProfile.
const (
	ComponentSettings = "settings"
	ComponentLoadouts = "loadouts"
	ComponentTags     = "tags"
	ComponentTriumphs = "triumphs"
	ComponentSearches = "searches"
)

// ProfileService serves read access to synced profiles.
type ProfileService struct {
	gw   Gateway
	repo ProfileReader
}

// NewProfileService constructs a ProfileService over the given gateway and
// reader.
func NewProfileService(gw Gateway, repo ProfileReader) *ProfileService {
	return &ProfileService{gw: gw, repo: repo}
}

// GetProfile loads the requested components of one profile inside a single
// read transaction, so the caller sees a consistent snapshot. An empty
// components list means all components. A profile that was never written
// yields empty components rather than an error.
func (s *ProfileService) GetProfile(ctx context.Context, key models.ProfileKey, components []string) (*models.ProfileResponse, error) {
	if len(components) == 0 {
		components = []string{ComponentSettings, ComponentLoadouts, ComponentTags, ComponentTriumphs, ComponentSearches}
	}

	var resp models.ProfileResponse
	err := s.gw.RunInReadTransaction(ctx, func(tx *sql.Tx) error {
		for _, c := range components {
			var err error
			switch c {
			case ComponentSettings:
				resp.Settings, err = s.repo.GetSettings(ctx, tx, key)
			case ComponentLoadouts:
				resp.Loadouts, err = s.repo.GetLoadouts(ctx, tx, key)
			case ComponentTags:
				resp.Tags, err = s.repo.GetAnnotations(ctx, tx, key)
			case ComponentTriumphs:
				resp.Triumphs, err = s.repo.GetTriumphs(ctx, tx, key)
			case ComponentSearches:
				resp.Searches, err = s.repo.GetSearches(ctx, tx, key)
			default:
				return fmt.Errorf("%w: unknown profile component %q", models.ErrValidation, c)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
