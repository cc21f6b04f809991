package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Difficulty levels a recipe may carry.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Nutrition holds per-recipe macro estimates.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Recipe is the application recipe shape produced by the generation service.
// Generated recipes live in memory until saved; saved copies are stored as a
// JSONB snapshot inside SavedRecipe.
type Recipe struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PrepTime     int       `json:"prep_time"`
	CookingTime  int       `json:"cooking_time"`
	Servings     int       `json:"servings"`
	Cuisine      string    `json:"cuisine"`
	Difficulty   string    `json:"difficulty"`
	Image        string    `json:"image"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	Nutrition    Nutrition `json:"nutrition"`
	Tags         []string  `json:"tags"`
}

// RecipeJSON stores a Recipe snapshot in a JSONB column.
type RecipeJSON Recipe

// Value implements the driver.Valuer interface
func (r RecipeJSON) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface
func (r *RecipeJSON) Scan(value interface{}) error {
	if value == nil {
		*r = RecipeJSON{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for RecipeJSON")
	}

	return json.Unmarshal(bytes, r)
}

// SavedRecipe associates a user with a recipe snapshot. The snapshot's
// displayed id is always the row id, never the original generation id.
type SavedRecipe struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeData RecipeJSON     `gorm:"type:jsonb;not null" json:"recipe_data"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
