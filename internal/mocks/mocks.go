// Package mocks provides testify mocks for the service interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/platewise/backend/internal/models"
	"github.com/platewise/backend/internal/service"
)

// MockLLMService mocks service.LLMServiceInterface.
type MockLLMService struct {
	mock.Mock
}

func (m *MockLLMService) GenerateRecipes(ctx context.Context, params service.GenerateParams) ([]models.Recipe, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

// MockVisionService mocks service.VisionServiceInterface.
type MockVisionService struct {
	mock.Mock
}

func (m *MockVisionService) AnalyzeDish(ctx context.Context, userID string, image []byte, contentType string) (*models.DishAnalysisResult, error) {
	args := m.Called(ctx, userID, image, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DishAnalysisResult), args.Error(1)
}

// MockAuthService mocks service.IAuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// MockSavedRecipeService mocks service.ISavedRecipeService.
type MockSavedRecipeService struct {
	mock.Mock
}

func (m *MockSavedRecipeService) List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedRecipe), args.Error(1)
}

func (m *MockSavedRecipeService) Save(ctx context.Context, userID uuid.UUID, recipe models.Recipe) (*models.SavedRecipe, error) {
	args := m.Called(ctx, userID, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SavedRecipe), args.Error(1)
}

func (m *MockSavedRecipeService) Remove(ctx context.Context, userID, savedID uuid.UUID) error {
	return m.Called(ctx, userID, savedID).Error(0)
}

func (m *MockSavedRecipeService) Sync(ctx context.Context) {
	m.Called(ctx)
}

// MockProfileService mocks service.IProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileService) UpgradePlan(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileService) RecordGeneration(ctx context.Context, userID uuid.UUID, count int) (*models.UserProfile, error) {
	args := m.Called(ctx, userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}
