package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan tiers.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"not null" json:"-"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
}

// UserProfile carries plan and usage data shown on the account page. Profiles
// are created at sign-up and never hard-deleted by the application.
type UserProfile struct {
	ID                        uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	UserID                    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Email                     string         `gorm:"not null" json:"email"`
	Name                      string         `gorm:"size:100;not null" json:"name"`
	Plan                      string         `gorm:"size:20;not null;default:'free'" json:"plan"`
	RecipesGeneratedThisMonth int            `gorm:"not null;default:0" json:"recipes_generated_this_month"`
	LastResetDate             time.Time      `json:"last_reset_date"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
	DeletedAt                 gorm.DeletedAt `gorm:"index" json:"-"`
}
