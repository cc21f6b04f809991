package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platewise/backend/internal/api"
	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/mocks"
	"github.com/platewise/backend/internal/models"
	"github.com/platewise/backend/internal/router"
	"github.com/platewise/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine  *gin.Engine
	auth    *mocks.MockAuthService
	llm     *mocks.MockLLMService
	vision  *mocks.MockVisionService
	saved   *mocks.MockSavedRecipeService
	profile *mocks.MockProfileService
	sink    *apperrors.Sink
	userID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		auth:    new(mocks.MockAuthService),
		llm:     new(mocks.MockLLMService),
		vision:  new(mocks.MockVisionService),
		saved:   new(mocks.MockSavedRecipeService),
		profile: new(mocks.MockProfileService),
		sink:    apperrors.NewSink(nil),
		userID:  uuid.New(),
	}

	handler := api.NewHandler(env.auth, env.llm, env.vision, env.saved, env.profile, env.sink, nil, nil)
	env.engine = router.New(router.Deps{
		Handler:   handler,
		Validator: env.auth,
	})

	// Requests carrying this token act as env.userID.
	env.auth.On("ValidateToken", mock.Anything, "valid-token").Return(env.userID.String(), nil).Maybe()
	return env
}

func (env *testEnv) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer valid-token")
	}

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Register", mock.Anything, "Alice", "alice@example.com", "password123").
			Return(&service.AuthResult{Token: "jwt", User: &models.User{Email: "alice@example.com"}}, nil)

		w := env.request(t, http.MethodPost, "/api/v1/auth/register", gin.H{
			"name": "Alice", "email": "alice@example.com", "password": "password123",
		}, false)

		assert.Equal(t, http.StatusCreated, w.Code)
		env.auth.AssertExpectations(t)
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.NewAuth(apperrors.CodeUserExists, "duplicate", "Account exists."))

		w := env.request(t, http.MethodPost, "/api/v1/auth/register", gin.H{
			"name": "Alice", "email": "alice@example.com", "password": "password123",
		}, false)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid payload rejected before service", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/auth/register", gin.H{
			"name": "Alice", "email": "not-an-email", "password": "short",
		}, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	t.Run("invalid credentials map to 401", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Login", mock.Anything, "alice@example.com", "wrong-password").
			Return(nil, apperrors.NewAuth(apperrors.CodeInvalidCredentials, "bad", "Invalid email or password."))

		w := env.request(t, http.MethodPost, "/api/v1/auth/login", gin.H{
			"email": "alice@example.com", "password": "wrong-password",
		}, false)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodeInvalidCredentials)
	})
}

func TestGenerateRecipes(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.request(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{
			"ingredients": []string{"rice"},
		}, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("success records usage", func(t *testing.T) {
		env := newTestEnv(t)
		recipes := []models.Recipe{{ID: uuid.New().String(), Name: "Fried Rice"}}
		env.llm.On("GenerateRecipes", mock.Anything, mock.MatchedBy(func(p service.GenerateParams) bool {
			return len(p.Ingredients) == 1 && p.Ingredients[0] == "rice"
		})).Return(recipes, nil)
		env.profile.On("RecordGeneration", mock.Anything, env.userID, 1).
			Return(&models.UserProfile{}, nil)

		w := env.request(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{
			"ingredients": []string{"rice"},
		}, true)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Fried Rice")
		env.profile.AssertExpectations(t)
	})

	t.Run("missing ingredients rejected", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.request(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{
			"ingredients": []string{},
		}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env.llm.AssertNotCalled(t, "GenerateRecipes", mock.Anything, mock.Anything)
	})

	t.Run("configuration error maps to 503", func(t *testing.T) {
		env := newTestEnv(t)
		env.llm.On("GenerateRecipes", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewConfiguration("no key"))

		w := env.request(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{
			"ingredients": []string{"rice"},
		}, true)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("parse error maps to 502", func(t *testing.T) {
		env := newTestEnv(t)
		env.llm.On("GenerateRecipes", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewParse("bad JSON", "We failed to process the generated recipes."))

		w := env.request(t, http.MethodPost, "/api/v1/recipes/generate", gin.H{
			"ingredients": []string{"rice"},
		}, true)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestSavedRecipes(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		env := newTestEnv(t)
		env.saved.On("List", mock.Anything, env.userID).Return([]models.SavedRecipe{
			{ID: uuid.New(), UserID: env.userID, RecipeData: models.RecipeJSON{Name: "Kept"}},
		}, nil)

		w := env.request(t, http.MethodGet, "/api/v1/recipes/saved", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Kept")
	})

	t.Run("save", func(t *testing.T) {
		env := newTestEnv(t)
		env.saved.On("Save", mock.Anything, env.userID, mock.Anything).
			Return(&models.SavedRecipe{ID: uuid.New(), UserID: env.userID}, nil)

		w := env.request(t, http.MethodPost, "/api/v1/recipes/saved", gin.H{
			"recipe": gin.H{"name": "Carbonara"},
		}, true)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("save without name rejected", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.request(t, http.MethodPost, "/api/v1/recipes/saved", gin.H{
			"recipe": gin.H{},
		}, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("remove", func(t *testing.T) {
		env := newTestEnv(t)
		savedID := uuid.New()
		env.saved.On("Remove", mock.Anything, env.userID, savedID).Return(nil)

		w := env.request(t, http.MethodDelete, "/api/v1/recipes/saved/"+savedID.String(), nil, true)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("remove with bad id", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.request(t, http.MethodDelete, "/api/v1/recipes/saved/not-a-uuid", nil, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("sync", func(t *testing.T) {
		env := newTestEnv(t)
		env.saved.On("Sync", mock.Anything).Return()

		w := env.request(t, http.MethodPost, "/api/v1/recipes/saved/sync", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
		env.saved.AssertExpectations(t)
	})
}

func TestAnalyzeDish(t *testing.T) {
	newPhotoRequest := func(t *testing.T, field string) (*http.Request, *httptest.ResponseRecorder) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile(field, "dish.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte{0xFF, 0xD8, 0xFF})
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/dish", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer valid-token")
		return req, httptest.NewRecorder()
	}

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.vision.On("AnalyzeDish", mock.Anything, env.userID.String(), mock.Anything, mock.Anything).
			Return(&models.DishAnalysisResult{DishName: "Ramen", HealthGrade: "B"}, nil)

		req, w := newPhotoRequest(t, "photo")
		env.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Ramen")
	})

	t.Run("missing photo field", func(t *testing.T) {
		env := newTestEnv(t)
		req, w := newPhotoRequest(t, "wrong_field")
		env.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProfileEndpoints(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		env := newTestEnv(t)
		env.profile.On("GetProfile", mock.Anything, env.userID).
			Return(&models.UserProfile{UserID: env.userID, Plan: models.PlanFree}, nil)

		w := env.request(t, http.MethodGet, "/api/v1/profile", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), models.PlanFree)
	})

	t.Run("upgrade", func(t *testing.T) {
		env := newTestEnv(t)
		env.profile.On("UpgradePlan", mock.Anything, env.userID).
			Return(&models.UserProfile{UserID: env.userID, Plan: models.PlanPro}, nil)

		w := env.request(t, http.MethodPost, "/api/v1/profile/upgrade", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), models.PlanPro)
	})
}

func TestRecentErrorsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	reported := apperrors.NewConfiguration("no vision key")
	env.sink.Report(reported)

	w := env.request(t, http.MethodGet, "/api/v1/errors", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), reported.ID)

	w = env.request(t, http.MethodDelete, "/api/v1/errors/"+reported.ID, nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, env.sink.Recent())
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.request(t, http.MethodGet, "/api/v1/profile", nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("ValidateToken", mock.Anything, "expired-token").
			Return("", apperrors.NewAuth(apperrors.CodeSessionCorrupted, "gone", "Please sign in again."))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodeSessionCorrupted)
	})
}
