package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/platewise/backend/internal/models"
)

// LLMServiceInterface defines the recipe-generation contract for handlers
// and test doubles.
type LLMServiceInterface interface {
	GenerateRecipes(ctx context.Context, params GenerateParams) ([]models.Recipe, error)
}

// VisionServiceInterface defines the dish-analysis contract.
type VisionServiceInterface interface {
	AnalyzeDish(ctx context.Context, userID string, image []byte, contentType string) (*models.DishAnalysisResult, error)
}

// IAuthService defines the authentication contract.
type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, userID string) error
	ValidateToken(ctx context.Context, token string) (string, error)
}

// ISavedRecipeService defines the saved-recipes contract.
type ISavedRecipeService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.SavedRecipe, error)
	Save(ctx context.Context, userID uuid.UUID, recipe models.Recipe) (*models.SavedRecipe, error)
	Remove(ctx context.Context, userID, savedID uuid.UUID) error
	Sync(ctx context.Context)
}

// IProfileService defines the profile contract.
type IProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	UpgradePlan(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	RecordGeneration(ctx context.Context, userID uuid.UUID, count int) (*models.UserProfile, error)
}
