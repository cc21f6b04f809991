package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/models"
	"github.com/platewise/backend/internal/queue"
)

// SavedRecipeService persists per-user recipe snapshots. While the backend
// connection is down, writes apply optimistically to an in-memory copy and a
// single deferred action per write is queued for replay. The row id is
// generated before the first write attempt, so a replayed insert is
// idempotent by primary key.
type SavedRecipeService struct {
	db     *gorm.DB
	queue  *queue.Queue
	logger *zap.Logger

	mu    sync.RWMutex
	local map[string][]models.SavedRecipe // userID -> newest first
}

func NewSavedRecipeService(db *gorm.DB, q *queue.Queue, logger *zap.Logger) *SavedRecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedRecipeService{
		db:     db,
		queue:  q,
		logger: logger,
		local:  make(map[string][]models.SavedRecipe),
	}
}

// List returns the user's saved recipes, newest first. Each embedded recipe's
// id is rewritten to the row id so deletes always address the stored row.
// While offline the last known copy plus optimistic updates is served.
func (s *SavedRecipeService) List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error) {
	if !s.queue.Online() {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return append([]models.SavedRecipe(nil), s.local[userID.String()]...), nil
	}

	var rows []models.SavedRecipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewUnknown("failed to load saved recipes").WithCause(err)
	}

	for i := range rows {
		rows[i].RecipeData.ID = rows[i].ID.String()
	}

	s.mu.Lock()
	s.local[userID.String()] = append([]models.SavedRecipe(nil), rows...)
	s.mu.Unlock()

	return rows, nil
}

// Save stores a recipe snapshot for the user and returns the stored row.
// Offline saves never fail; the write is deferred.
func (s *SavedRecipeService) Save(ctx context.Context, userID uuid.UUID, recipe models.Recipe) (*models.SavedRecipe, error) {
	row := models.SavedRecipe{
		ID:         uuid.New(),
		UserID:     userID,
		RecipeData: models.RecipeJSON(recipe),
	}
	row.RecipeData.ID = row.ID.String()

	if !s.queue.Online() {
		s.applyLocalSave(userID.String(), row)
		s.queue.Enqueue(
			fmt.Sprintf("save recipe %q", recipe.Name),
			func(ctx context.Context) error { return s.insert(ctx, &row) },
		)
		return &row, nil
	}

	if err := s.insert(ctx, &row); err != nil {
		return nil, apperrors.NewUnknown("failed to save recipe").WithCause(err)
	}
	s.applyLocalSave(userID.String(), row)
	return &row, nil
}

// Remove deletes a saved recipe by row id. Offline removals never fail; the
// delete is deferred.
func (s *SavedRecipeService) Remove(ctx context.Context, userID, savedID uuid.UUID) error {
	if !s.queue.Online() {
		s.applyLocalRemove(userID.String(), savedID)
		s.queue.Enqueue(
			fmt.Sprintf("remove saved recipe %s", savedID),
			func(ctx context.Context) error {
				// A replayed delete whose row is already gone has converged.
				if err := s.delete(ctx, userID, savedID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				return nil
			},
		)
		return nil
	}

	if err := s.delete(ctx, userID, savedID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewValidation(
				fmt.Sprintf("saved recipe %s not found", savedID),
				"That recipe is no longer in your collection.")
		}
		return apperrors.NewUnknown("failed to remove saved recipe").WithCause(err)
	}
	s.applyLocalRemove(userID.String(), savedID)
	return nil
}

// Sync replays any deferred writes now.
func (s *SavedRecipeService) Sync(ctx context.Context) {
	s.queue.Sync(ctx)
}

// insert is idempotent by primary key; a replayed save that already landed is
// a no-op.
func (s *SavedRecipeService) insert(ctx context.Context, row *models.SavedRecipe) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row).Error
}

func (s *SavedRecipeService) delete(ctx context.Context, userID, savedID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", savedID, userID).
		Delete(&models.SavedRecipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *SavedRecipeService) applyLocalSave(userID string, row models.SavedRecipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[userID] = append([]models.SavedRecipe{row}, s.local[userID]...)
}

func (s *SavedRecipeService) applyLocalRemove(userID string, savedID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.local[userID]
	for i := range list {
		if list[i].ID == savedID {
			s.local[userID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}
