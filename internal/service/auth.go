package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/models"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 24 * time.Hour
	minPasswordLen   = 8
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type sessionRecord struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

// AuthService handles registration, login and token validation. The Redis
// client may be nil; session bookkeeping is then skipped and tokens are
// validated on signature and expiry alone.
type AuthService struct {
	db        *gorm.DB
	redis     *redis.Client
	jwtSecret []byte
	logger    *zap.Logger
}

func NewAuthService(db *gorm.DB, redisClient *redis.Client, jwtSecret string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		db:        db,
		redis:     redisClient,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// Register creates a user and their profile, then signs them in. The
// duplicate check runs before anything is written so a rejected sign-up
// leaves no rows behind.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperrors.NewAuth(apperrors.CodeUserExists,
			fmt.Sprintf("account already exists for %s", email),
			"An account with this email already exists. Try signing in instead.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewUnknown("failed to check existing account").WithCause(err)
	}

	if len(password) < minPasswordLen {
		return nil, apperrors.NewAuth(apperrors.CodeWeakPassword,
			"password shorter than minimum length",
			"Password must be at least 8 characters long.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewUnknown("failed to hash password").WithCause(err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		// No confirmation pipeline; accounts are usable immediately.
		EmailVerified: true,
	}
	profile := &models.UserProfile{
		ID:            uuid.New(),
		UserID:        user.ID,
		Email:         email,
		Name:          name,
		Plan:          models.PlanFree,
		LastResetDate: time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, apperrors.NewUnknown("failed to create account").WithCause(err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", zap.String("user_id", user.ID.String()))
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error so the response does not leak which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	invalid := func() *apperrors.AppError {
		return apperrors.NewAuth(apperrors.CodeInvalidCredentials,
			"invalid email or password",
			"Invalid email or password.")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid()
	}
	if err != nil {
		return nil, apperrors.NewUnknown("failed to look up account").WithCause(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid()
	}

	if !user.EmailVerified {
		return nil, apperrors.NewAuth(apperrors.CodeEmailNotConfirmed,
			"email address not confirmed",
			"Please confirm your email address before signing in.")
	}

	token, err := s.issueToken(ctx, &user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &AuthResult{Token: token, User: &user}, nil
}

// Logout removes the user's session record.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, sessionKeyPrefix+userID).Err(); err != nil {
		return apperrors.NewUnknown("failed to clear session").WithCause(err)
	}
	return nil
}

// ValidateToken parses and verifies a bearer token, then checks the session
// record still exists. A token that verifies but has no session means the
// session store and token drifted apart; the stale key is swept and the
// caller must sign in again.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.NewAuth(apperrors.CodeInvalidCredentials,
			"invalid or expired token",
			"Your session has expired. Please sign in again.")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.NewAuth(apperrors.CodeInvalidCredentials,
			"unexpected token claims", "Your session has expired. Please sign in again.")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", apperrors.NewAuth(apperrors.CodeInvalidCredentials,
			"token missing user_id claim", "Your session has expired. Please sign in again.")
	}

	if s.redis != nil {
		key := sessionKeyPrefix + userID
		if _, err := s.redis.Get(ctx, key).Result(); err != nil {
			if errors.Is(err, redis.Nil) {
				s.redis.Del(ctx, key)
				s.logger.Warn("swept corrupted session", zap.String("user_id", userID))
				return "", apperrors.NewAuth(apperrors.CodeSessionCorrupted,
					"session record missing for valid token",
					"Your session is no longer valid. Please sign in again.")
			}
			// Redis being down must not lock every user out.
			s.logger.Warn("session lookup failed, accepting token", zap.Error(err))
		}
	}

	return userID, nil
}

func (s *AuthService) issueToken(ctx context.Context, user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"iat":     now.Unix(),
		"exp":     now.Add(sessionTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.NewUnknown("failed to sign token").WithCause(err)
	}

	if s.redis != nil {
		record, _ := json.Marshal(sessionRecord{
			UserID:   user.ID.String(),
			Email:    user.Email,
			IssuedAt: now,
		})
		if err := s.redis.Set(ctx, sessionKeyPrefix+user.ID.String(), record, sessionTTL).Err(); err != nil {
			s.logger.Warn("failed to store session record", zap.Error(err))
		}
	}

	return token, nil
}
