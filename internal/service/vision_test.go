package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/backend/config"
	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/httpclient"
)

func newTestVision(url string) *VisionService {
	return NewVisionService(&config.Config{
		VisionAPIKey: "test-key",
		VisionAPIURL: url,
		VisionModel:  "test-vision",
	}, httpclient.New(apperrors.NewSink(nil), nil), nil, nil)
}

var testPhoto = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}

func TestAnalyzeRejectsEmptyImage(t *testing.T) {
	svc := newTestVision("http://unused")
	_, err := svc.AnalyzeDish(context.Background(), "user-1", nil, "image/jpeg")

	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.From(err).Kind)
}

func TestAnalyzeRequiresAPIKey(t *testing.T) {
	svc := NewVisionService(&config.Config{VisionAPIURL: "http://unused"}, httpclient.New(apperrors.NewSink(nil), nil), nil, nil)
	_, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/jpeg")

	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfiguration, apperrors.From(err).Kind)
}

func TestAnalyzeFillsAllDefaults(t *testing.T) {
	srv := chatServer(t, "{}", nil)
	defer srv.Close()

	svc := newTestVision(srv.URL)
	result, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Unknown Dish", result.DishName)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 5.0, result.HealthScore)
	assert.Equal(t, "C", result.HealthGrade)
	assert.InDelta(t, 33.3, result.MacroBreakdown.ProteinPct, 0.01)
	assert.InDelta(t, 33.3, result.MacroBreakdown.CarbsPct, 0.01)
	assert.InDelta(t, 33.4, result.MacroBreakdown.FatPct, 0.01)
	assert.NotNil(t, result.Ingredients.Primary)
	assert.NotNil(t, result.Ingredients.Secondary)
	assert.NotNil(t, result.Ingredients.Seasonings)
	assert.NotNil(t, result.CookingMethods)
	assert.NotNil(t, result.Suggestions)
	assert.NotNil(t, result.HealthierSwaps)
}

func TestAnalyzeDecodesFullResult(t *testing.T) {
	content := "```json\n" + `{
		"dish_name": "Chicken Caesar Salad",
		"confidence": 0.92,
		"ingredients": {
			"primary": ["chicken breast", "romaine"],
			"secondary": ["croutons", "parmesan"],
			"seasonings": ["black pepper"]
		},
		"nutrition": {
			"calories": 480, "protein": 38, "carbs": 22, "fat": 26,
			"fiber": 4, "sugar": 3, "sodium": "850", "cholesterol": 95
		},
		"macro_breakdown": {"protein_pct": 32, "carbs_pct": 18, "fat_pct": 50},
		"health_score": 6.5,
		"health_grade": "B",
		"cooking_methods": ["grilled"],
		"suggestions": ["Use less dressing"],
		"healthier_swaps": ["Greek yogurt dressing"]
	}` + "\n```"
	srv := chatServer(t, content, nil)
	defer srv.Close()

	svc := newTestVision(srv.URL)
	result, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Chicken Caesar Salad", result.DishName)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
	assert.Equal(t, []string{"chicken breast", "romaine"}, result.Ingredients.Primary)
	assert.Equal(t, 480.0, result.Nutrition.Calories)
	// Numeric string tolerated.
	assert.Equal(t, 850.0, result.Nutrition.Sodium)
	assert.Equal(t, 32.0, result.MacroBreakdown.ProteinPct)
	assert.Equal(t, 6.5, result.HealthScore)
	assert.Equal(t, "B", result.HealthGrade)
	assert.Equal(t, []string{"grilled"}, result.CookingMethods)
}

func TestAnalyzePartialResultKeepsPerFieldDefaults(t *testing.T) {
	srv := chatServer(t, `{"dish_name": "Miso Soup", "health_score": 8.2}`, nil)
	defer srv.Close()

	svc := newTestVision(srv.URL)
	result, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Miso Soup", result.DishName)
	assert.Equal(t, 8.2, result.HealthScore)
	// Absent fields default independently of present ones.
	assert.Equal(t, "C", result.HealthGrade)
	assert.InDelta(t, 33.3, result.MacroBreakdown.ProteinPct, 0.01)
}

func TestAnalyzeParseFailure(t *testing.T) {
	srv := chatServer(t, "The photo is too blurry to analyze.", nil)
	defer srv.Close()

	svc := newTestVision(srv.URL)
	_, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/jpeg")

	require.Error(t, err)
	assert.Equal(t, apperrors.KindParse, apperrors.From(err).Kind)
}

func TestAnalyzeSendsDataURL(t *testing.T) {
	var captured Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "{}"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := newTestVision(srv.URL)
	_, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/png")
	require.NoError(t, err)

	require.Len(t, captured.Messages, 2)
	parts, ok := captured.Messages[1].Content.([]interface{})
	require.True(t, ok)
	require.Len(t, parts, 2)

	imagePart, ok := parts[1].(map[string]interface{})
	require.True(t, ok)
	imageURL, ok := imagePart["image_url"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, imageURL["url"], "data:image/png;base64,")
}

func TestAnalyzeProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestVision(srv.URL)
	_, err := svc.AnalyzeDish(context.Background(), "user-1", testPhoto, "image/jpeg")

	require.Error(t, err)
	assert.Equal(t, apperrors.KindAPI, apperrors.From(err).Kind)
}
