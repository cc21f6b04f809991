package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/models"
)

// ProfileService manages plan and usage data. Profiles are created at
// registration and only soft-deleted, so a missing profile indicates drift;
// GetProfile repairs it from the user row.
type ProfileService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProfileService(db *gorm.DB, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{db: db, logger: logger}
}

// GetProfile returns the user's profile, recreating it if the row is missing.
// The monthly counter is reset lazily when the calendar month has rolled
// over since the last recorded generation.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.recreateProfile(ctx, userID)
	}
	if err != nil {
		return nil, apperrors.NewUnknown("failed to load profile").WithCause(err)
	}

	if monthRolledOver(profile.LastResetDate) {
		profile.RecipesGeneratedThisMonth = 0
		profile.LastResetDate = time.Now()
		if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
			return nil, apperrors.NewUnknown("failed to reset monthly counter").WithCause(err)
		}
	}

	return &profile, nil
}

// UpgradePlan moves the user to the pro tier. Upgrading an already-pro
// account is a no-op.
func (s *ProfileService) UpgradePlan(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Plan == models.PlanPro {
		return profile, nil
	}

	profile.Plan = models.PlanPro
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, apperrors.NewUnknown("failed to upgrade plan").WithCause(err)
	}

	s.logger.Info("plan upgraded", zap.String("user_id", userID.String()))
	return profile, nil
}

// RecordGeneration increments the monthly usage counter, resetting it first
// if the month rolled over.
func (s *ProfileService) RecordGeneration(ctx context.Context, userID uuid.UUID, count int) (*models.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.RecipesGeneratedThisMonth += count
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, apperrors.NewUnknown("failed to record generation").WithCause(err)
	}
	return profile, nil
}

func (s *ProfileService) recreateProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidation(
				fmt.Sprintf("no account for user %s", userID),
				"Account not found.")
		}
		return nil, apperrors.NewUnknown("failed to load account").WithCause(err)
	}

	profile := &models.UserProfile{
		ID:            uuid.New(),
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Plan:          models.PlanFree,
		LastResetDate: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, apperrors.NewUnknown("failed to recreate profile").WithCause(err)
	}

	s.logger.Warn("recreated missing profile", zap.String("user_id", userID.String()))
	return profile, nil
}

func monthRolledOver(last time.Time) bool {
	now := time.Now()
	return last.Year() != now.Year() || last.Month() != now.Month()
}
