package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/platewise/backend/config"
	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/httpclient"
	"github.com/platewise/backend/internal/models"
)

// Defaults for fields the vision model omitted.
const (
	defaultDishName    = "Unknown Dish"
	defaultHealthScore = 5.0
	defaultHealthGrade = "C"
)

// VisionService analyzes an uploaded dish photo with a multimodal model and
// returns a structured nutrition breakdown.
type VisionService struct {
	apiKey string
	apiURL string
	model  string
	client *httpclient.Client
	photos *PhotoStore // nil when no archive bucket is configured
	logger *zap.Logger
}

// NewVisionService creates the analyzer. photos may be nil; analysis then
// skips the archive step.
func NewVisionService(cfg *config.Config, client *httpclient.Client, photos *PhotoStore, logger *zap.Logger) *VisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisionService{
		apiKey: cfg.VisionAPIKey,
		apiURL: cfg.VisionAPIURL,
		model:  cfg.VisionModel,
		client: client,
		photos: photos,
		logger: logger,
	}
}

const dishSystemPrompt = `You are a nutritionist analyzing a photo of a dish. Respond with ONLY a JSON object, no prose and no markdown fences, with this exact structure:
{
    "dish_name": "Name of the dish",
    "confidence": 0.85,
    "ingredients": {
        "primary": ["main ingredient 1", "main ingredient 2"],
        "secondary": ["side ingredient"],
        "seasonings": ["seasoning 1"]
    },
    "nutrition": {
        "calories": 450,
        "protein": 25,
        "carbs": 40,
        "fat": 18,
        "fiber": 6,
        "sugar": 8,
        "sodium": 700,
        "cholesterol": 60
    },
    "macro_breakdown": {
        "protein_pct": 25,
        "carbs_pct": 40,
        "fat_pct": 35
    },
    "health_score": 6.5,
    "health_grade": "B",
    "cooking_methods": ["grilled", "sautéed"],
    "suggestions": ["suggestion 1"],
    "healthier_swaps": ["swap 1"]
}

Note: confidence is 0 to 1, health_score is 0 to 10, health_grade is one of A, B, C, D, F, and the macro percentages should total 100. All numeric fields must be numbers, not strings.`

// AnalyzeDish sends the photo for analysis and decodes the result, filling
// documented defaults for any field the model omitted.
func (s *VisionService) AnalyzeDish(ctx context.Context, userID string, image []byte, contentType string) (*models.DishAnalysisResult, error) {
	if len(image) == 0 {
		return nil, apperrors.NewValidation("image payload is empty", "Please upload a photo of the dish.")
	}
	if s.apiKey == "" {
		return nil, apperrors.NewConfiguration("vision API key is not configured")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))

	content, err := s.analyze(ctx, dataURL)
	if err != nil {
		return nil, err
	}

	var payload dishPayload
	if err := extractJSONObject(content, &payload); err != nil {
		s.logger.Error("failed to extract analysis object", zap.Error(err))
		return nil, apperrors.NewParse(
			fmt.Sprintf("analysis response was not a JSON object: %v", err),
			"We failed to process the dish analysis. Please try again.",
		).WithCause(err)
	}

	result := payload.toResult()

	if s.photos != nil {
		url, archiveErr := s.photos.ArchiveDishPhoto(ctx, userID, image, contentType)
		if archiveErr != nil {
			s.logger.Warn("dish photo archive failed", zap.Error(archiveErr))
		} else {
			result.ArchivedPhotoURL = url
		}
	}

	s.logger.Info("analyzed dish",
		zap.String("dish", result.DishName),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

func (s *VisionService) analyze(ctx context.Context, dataURL string) (string, error) {
	reqBody := Request{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: dishSystemPrompt},
			{Role: "user", Content: []map[string]interface{}{
				{"type": "text", "text": "Analyze this dish photo."},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			}},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	}

	res := s.client.Post(ctx, s.apiURL, reqBody, &httpclient.Options{
		Timeout: providerTimeout,
		Retries: httpclient.NoRetry,
		Headers: map[string]string{"Authorization": "Bearer " + s.apiKey},
	})
	if !res.Success {
		s.logger.Error("analysis request failed",
			zap.Int("status", res.StatusCode),
			zap.Error(res.Err))
		return "", res.Err
	}

	var result chatResponse
	if err := json.Unmarshal(res.Data, &result); err != nil {
		return "", apperrors.NewAPI(fmt.Sprintf("failed to decode provider envelope: %v", err)).WithCause(err)
	}
	if len(result.Choices) == 0 {
		return "", apperrors.NewAPI("no choices in provider response")
	}

	return result.Choices[0].Message.Content, nil
}

// dishPayload mirrors the model's output with every field optional.
type dishPayload struct {
	DishName    *string   `json:"dish_name"`
	Confidence  flexFloat `json:"confidence"`
	Ingredients *struct {
		Primary    []string `json:"primary"`
		Secondary  []string `json:"secondary"`
		Seasonings []string `json:"seasonings"`
	} `json:"ingredients"`
	Nutrition *struct {
		Calories    flexFloat `json:"calories"`
		Protein     flexFloat `json:"protein"`
		Carbs       flexFloat `json:"carbs"`
		Fat         flexFloat `json:"fat"`
		Fiber       flexFloat `json:"fiber"`
		Sugar       flexFloat `json:"sugar"`
		Sodium      flexFloat `json:"sodium"`
		Cholesterol flexFloat `json:"cholesterol"`
	} `json:"nutrition"`
	MacroBreakdown *struct {
		ProteinPct flexFloat `json:"protein_pct"`
		CarbsPct   flexFloat `json:"carbs_pct"`
		FatPct     flexFloat `json:"fat_pct"`
	} `json:"macro_breakdown"`
	HealthScore    flexFloat `json:"health_score"`
	HealthGrade    *string   `json:"health_grade"`
	CookingMethods []string  `json:"cooking_methods"`
	Suggestions    []string  `json:"suggestions"`
	HealthierSwaps []string  `json:"healthier_swaps"`
}

// toResult builds a fully populated result, defaulting each absent field
// independently. The macro split defaults to equal thirds.
func (p *dishPayload) toResult() *models.DishAnalysisResult {
	r := &models.DishAnalysisResult{
		DishName:    defaultDishName,
		Confidence:  0,
		HealthScore: defaultHealthScore,
		HealthGrade: defaultHealthGrade,
		Ingredients: models.IngredientBreakdown{
			Primary:    []string{},
			Secondary:  []string{},
			Seasonings: []string{},
		},
		MacroBreakdown: models.MacroBreakdown{
			ProteinPct: 33.3,
			CarbsPct:   33.3,
			FatPct:     33.4,
		},
		CookingMethods: []string{},
		Suggestions:    []string{},
		HealthierSwaps: []string{},
	}

	if p.DishName != nil && *p.DishName != "" {
		r.DishName = *p.DishName
	}
	if p.Confidence.Set {
		r.Confidence = p.Confidence.Value
	}
	if p.HealthScore.Set {
		r.HealthScore = p.HealthScore.Value
	}
	if p.HealthGrade != nil && *p.HealthGrade != "" {
		r.HealthGrade = *p.HealthGrade
	}
	if p.Ingredients != nil {
		if p.Ingredients.Primary != nil {
			r.Ingredients.Primary = p.Ingredients.Primary
		}
		if p.Ingredients.Secondary != nil {
			r.Ingredients.Secondary = p.Ingredients.Secondary
		}
		if p.Ingredients.Seasonings != nil {
			r.Ingredients.Seasonings = p.Ingredients.Seasonings
		}
	}
	if p.Nutrition != nil {
		setIf := func(dst *float64, src flexFloat) {
			if src.Set {
				*dst = src.Value
			}
		}
		setIf(&r.Nutrition.Calories, p.Nutrition.Calories)
		setIf(&r.Nutrition.Protein, p.Nutrition.Protein)
		setIf(&r.Nutrition.Carbs, p.Nutrition.Carbs)
		setIf(&r.Nutrition.Fat, p.Nutrition.Fat)
		setIf(&r.Nutrition.Fiber, p.Nutrition.Fiber)
		setIf(&r.Nutrition.Sugar, p.Nutrition.Sugar)
		setIf(&r.Nutrition.Sodium, p.Nutrition.Sodium)
		setIf(&r.Nutrition.Cholesterol, p.Nutrition.Cholesterol)
	}
	if p.MacroBreakdown != nil {
		if p.MacroBreakdown.ProteinPct.Set {
			r.MacroBreakdown.ProteinPct = p.MacroBreakdown.ProteinPct.Value
		}
		if p.MacroBreakdown.CarbsPct.Set {
			r.MacroBreakdown.CarbsPct = p.MacroBreakdown.CarbsPct.Value
		}
		if p.MacroBreakdown.FatPct.Set {
			r.MacroBreakdown.FatPct = p.MacroBreakdown.FatPct.Value
		}
	}
	if p.CookingMethods != nil {
		r.CookingMethods = p.CookingMethods
	}
	if p.Suggestions != nil {
		r.Suggestions = p.Suggestions
	}
	if p.HealthierSwaps != nil {
		r.HealthierSwaps = p.HealthierSwaps
	}

	return r
}
