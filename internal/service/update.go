// Package service provides business-logic services for profile reads and
// update-batch processing, delegating persistence to repository interfaces.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/avolkov/profilekeeper/internal/db"
	"github.com/avolkov/profilekeeper/internal/metrics"
	"github.com/avolkov/profilekeeper/internal/models"
)

// Gateway demarcates a transaction around one unit of work.
type Gateway interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	RunInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
	// RunInReadTransaction always rolls back; fn must not mutate.
	RunInReadTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ProfileRepository defines the per-operation storage writes needed by the
// UpdateService. Each method runs on the transaction it is handed.
type ProfileRepository interface {
	UpsertAnnotation(ctx context.Context, tx *sql.Tx, key models.ProfileKey, a models.ItemAnnotation) error
	DeleteAnnotations(ctx context.Context, tx *sql.Tx, key models.ProfileKey, ids []string) error
	MergeSettings(ctx context.Context, tx *sql.Tx, key models.ProfileKey, raw json.RawMessage) error
	UpsertLoadout(ctx context.Context, tx *sql.Tx, key models.ProfileKey, l models.Loadout) error
	DeleteLoadout(ctx context.Context, tx *sql.Tx, key models.ProfileKey, id string) error
	SetTriumphTracked(ctx context.Context, tx *sql.Tx, key models.ProfileKey, recordHash int64, tracked bool) error
	RecordSearchUsed(ctx context.Context, tx *sql.Tx, key models.ProfileKey, query string) error
	SaveSearch(ctx context.Context, tx *sql.Tx, key models.ProfileKey, query string, saved bool) error
}

// UpdateService applies ordered batches of profile updates. Each operation
// runs in its own transaction so a failing operation never rolls back what a
// sibling already committed.
type UpdateService struct {
	gw   Gateway
	repo ProfileRepository
	log  *zap.Logger
	sink metrics.Sink
}

// NewUpdateService constructs an UpdateService over the given gateway and
// repository.
func NewUpdateService(gw Gateway, repo ProfileRepository, log *zap.Logger, sink metrics.Sink) *UpdateService {
	return &UpdateService{gw: gw, repo: repo, log: log, sink: sink}
}

// ApplyBatch applies the updates strictly in order and returns one result
// per update, positionally aligned with the input. Later operations observe
// the committed effects of earlier ones. Per-operation failures of any kind
// become result entries; the returned error is non-nil only when the
// connection pool itself is gone and no operation can make progress.
func (s *UpdateService) ApplyBatch(ctx context.Context, key models.ProfileKey, updates []models.ProfileUpdate) ([]models.UpdateResult, error) {
	results := make([]models.UpdateResult, 0, len(updates))

	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			// Committed operations stay committed; the rest never start.
			results = append(results, models.UpdateResult{
				Status:  models.StatusStorageError,
				Message: "batch canceled before operation started",
			})
			continue
		}

		res, err := s.applyOne(ctx, key, u)
		if err != nil {
			return results, err
		}
		s.sink.Increment(fmt.Sprintf("update.%s.%s", u.Action, res.Status))
		results = append(results, res)
	}

	return assembleResults(len(updates), results), nil
}

// applyOne validates the operation, then runs its handler in a transaction.
// The returned error is non-nil only for an unusable pool.
func (s *UpdateService) applyOne(ctx context.Context, key models.ProfileKey, u models.ProfileUpdate) (models.UpdateResult, error) {
	// Validation failures never open a transaction.
	apply, err := s.planOperation(ctx, key, u)
	if err != nil {
		return models.UpdateResult{Status: models.StatusValidationError, Message: err.Error()}, nil
	}

	if err := s.gw.RunInTransaction(ctx, apply); err != nil {
		if db.IsUnavailable(err) {
			return models.UpdateResult{}, fmt.Errorf("apply %s: %w", u.Action, err)
		}
		s.log.Warn("update operation failed",
			zap.String("action", string(u.Action)),
			zap.String("membershipId", key.PlatformMembershipID),
			zap.Error(err),
		)
		return resultForError(err), nil
	}

	return models.UpdateResult{Status: models.StatusSuccess}, nil
}

// planOperation decodes and validates the payload for its action and returns
// the unit of work to run. It performs no storage access itself.
func (s *UpdateService) planOperation(ctx context.Context, key models.ProfileKey, u models.ProfileUpdate) (func(tx *sql.Tx) error, error) {
	switch u.Action {
	case models.ActionTag:
		var a models.ItemAnnotation
		if err := json.Unmarshal(u.Payload, &a); err != nil {
			return nil, fmt.Errorf("%w: tag payload: %v", models.ErrValidation, err)
		}
		if a.ID == "" {
			return nil, fmt.Errorf("%w: tag update requires an item instance id", models.ErrValidation)
		}
		return func(tx *sql.Tx) error { return s.repo.UpsertAnnotation(ctx, tx, key, a) }, nil

	case models.ActionTagCleanup:
		var ids []string
		if err := json.Unmarshal(u.Payload, &ids); err != nil {
			return nil, fmt.Errorf("%w: tag_cleanup payload: %v", models.ErrValidation, err)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: tag_cleanup requires at least one instance id", models.ErrValidation)
		}
		return func(tx *sql.Tx) error { return s.repo.DeleteAnnotations(ctx, tx, key, ids) }, nil

	case models.ActionSetting:
		var settings models.Settings
		if err := json.Unmarshal(u.Payload, &settings); err != nil {
			return nil, fmt.Errorf("%w: setting payload must be a JSON object: %v", models.ErrValidation, err)
		}
		raw := json.RawMessage(u.Payload)
		return func(tx *sql.Tx) error { return s.repo.MergeSettings(ctx, tx, key, raw) }, nil

	case models.ActionLoadout:
		var l models.Loadout
		if err := json.Unmarshal(u.Payload, &l); err != nil {
			return nil, fmt.Errorf("%w: loadout payload: %v", models.ErrValidation, err)
		}
		if l.ID == "" {
			return nil, fmt.Errorf("%w: loadout requires an id", models.ErrValidation)
		}
		if l.Name == "" {
			return nil, fmt.Errorf("%w: loadout requires a name", models.ErrValidation)
		}
		for _, item := range append(append([]models.LoadoutItem{}, l.Equipped...), l.Unequipped...) {
			if item.Hash == 0 {
				return nil, fmt.Errorf("%w: loadout item requires a definition hash", models.ErrValidation)
			}
		}
		return func(tx *sql.Tx) error { return s.repo.UpsertLoadout(ctx, tx, key, l) }, nil

	case models.ActionDeleteLoadout:
		var id string
		if err := json.Unmarshal(u.Payload, &id); err != nil {
			return nil, fmt.Errorf("%w: delete_loadout payload: %v", models.ErrValidation, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: delete_loadout requires a loadout id", models.ErrValidation)
		}
		return func(tx *sql.Tx) error { return s.repo.DeleteLoadout(ctx, tx, key, id) }, nil

	case models.ActionTrackTriumph:
		var p models.TrackTriumphPayload
		if err := json.Unmarshal(u.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: track_triumph payload: %v", models.ErrValidation, err)
		}
		if p.RecordHash == nil {
			return nil, fmt.Errorf("%w: track_triumph requires a record hash", models.ErrValidation)
		}
		return func(tx *sql.Tx) error {
			return s.repo.SetTriumphTracked(ctx, tx, key, *p.RecordHash, p.Tracked)
		}, nil

	case models.ActionSearch:
		var p models.UsedSearchPayload
		if err := json.Unmarshal(u.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: search payload: %v", models.ErrValidation, err)
		}
		if p.Query == "" {
			return nil, fmt.Errorf("%w: search requires a query", models.ErrValidation)
		}
		return func(tx *sql.Tx) error { return s.repo.RecordSearchUsed(ctx, tx, key, p.Query) }, nil

	case models.ActionSaveSearch:
		var p models.SavedSearchPayload
		if err := json.Unmarshal(u.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: save_search payload: %v", models.ErrValidation, err)
		}
		if p.Query == "" {
			return nil, fmt.Errorf("%w: save_search requires a query", models.ErrValidation)
		}
		return func(tx *sql.Tx) error { return s.repo.SaveSearch(ctx, tx, key, p.Query, p.Saved) }, nil

	default:
		return nil, fmt.Errorf("%w: unknown update action %q", models.ErrValidation, u.Action)
	}
}

// resultForError maps a handler failure to its result entry.
func resultForError(err error) models.UpdateResult {
	status := models.StatusStorageError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = models.StatusValidationError
	case errors.Is(err, models.ErrNotFound):
		status = models.StatusNotFound
	}
	return models.UpdateResult{Status: status, Message: err.Error()}
}

// assembleResults is the final correlation step: the result list must mirror
// the request 1:1. The mismatch branch is unreachable by construction and
// exists as a safety net.
func assembleResults(n int, results []models.UpdateResult) []models.UpdateResult {
	if len(results) != n {
		panic(fmt.Sprintf("update results out of step with batch: %d results for %d updates", len(results), n))
	}
	return results
}
