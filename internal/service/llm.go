package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/platewise/backend/config"
	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/httpclient"
	"github.com/platewise/backend/internal/models"
)

// Provider calls get a generous deadline; completions for a full batch can
// take tens of seconds.
const providerTimeout = 60 * time.Second

// Defaults substituted for fields the model omitted. This is a defensive
// decoding policy, not a correctness guarantee; malformed but present fields
// pass through unchecked.
const (
	defaultRecipeName  = "Untitled Recipe"
	defaultCookingTime = 30
	defaultPrepTime    = 15
	defaultCuisine     = "International"
	defaultDifficulty  = models.DifficultyMedium
	defaultServings    = 4
)

var defaultNutrition = models.Nutrition{Calories: 300, Protein: 20, Carbs: 30, Fat: 15, Fiber: 5}

// Recipe batch sizes for the two generation paths.
const (
	simpleBatchSize   = 3
	enhancedBatchSize = 12
	maxBatchSize      = 15
)

// GenerateParams are the user-supplied generation constraints.
type GenerateParams struct {
	Ingredients []string
	Cuisine     string // empty or "all" = unconstrained
	DishType    string
	SkillLevel  string // beginner | pro | legendary
	Servings    int    // default 4
	Enhanced    bool   // enhanced path asks for a larger batch
}

// Message represents a message in the chat
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// Request represents a chat-completion request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMService issues one text-completion request per invocation and decodes
// the result into Recipe objects. Retry, if desired, is the caller's
// responsibility, so the underlying client runs in single-attempt mode.
type LLMService struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	maxTokens   int
	client      *httpclient.Client
	logger      *zap.Logger
}

// NewLLMService creates the generation service. A missing API key is not an
// error here; generation fails with a configuration error at call time so the
// rest of the application keeps working.
func NewLLMService(cfg *config.Config, client *httpclient.Client, logger *zap.Logger) *LLMService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMService{
		apiKey:      cfg.LLMAPIKey,
		apiURL:      cfg.LLMAPIURL,
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
		maxTokens:   cfg.LLMMaxTokens,
		client:      client,
		logger:      logger,
	}
}

// GenerateRecipes builds a prompt from params, issues one request, and
// decodes the response into fully populated recipes.
func (s *LLMService) GenerateRecipes(ctx context.Context, params GenerateParams) ([]models.Recipe, error) {
	if len(params.Ingredients) == 0 {
		return nil, apperrors.NewValidation("ingredients list is empty", "Please add at least one ingredient.")
	}
	if s.apiKey == "" {
		return nil, apperrors.NewConfiguration("generation API key is not configured")
	}

	if params.Servings <= 0 {
		params.Servings = defaultServings
	}
	count := simpleBatchSize
	if params.Enhanced {
		count = enhancedBatchSize
	}

	content, err := s.complete(ctx, recipeSystemPrompt, s.buildUserPrompt(params, count))
	if err != nil {
		return nil, err
	}

	elements, err := extractJSONArray(content)
	if err != nil {
		s.logger.Error("failed to extract recipe array", zap.Error(err))
		return nil, apperrors.NewParse(
			fmt.Sprintf("recipe response was not a JSON array: %v", err),
			"We failed to process the generated recipes. Please try again.",
		).WithCause(err)
	}

	if len(elements) > maxBatchSize {
		elements = elements[:maxBatchSize]
	}

	recipes := make([]models.Recipe, 0, len(elements))
	for _, raw := range elements {
		recipes = append(recipes, decodeRecipe(raw, params.Servings))
	}

	s.logger.Info("generated recipes",
		zap.Int("count", len(recipes)),
		zap.Strings("ingredients", params.Ingredients),
		zap.String("cuisine", params.Cuisine),
	)
	return recipes, nil
}

// complete issues a single chat-completion call and returns the message
// content. No retry happens at this layer.
func (s *LLMService) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := Request{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	res := s.client.Post(ctx, s.apiURL, reqBody, &httpclient.Options{
		Timeout: providerTimeout,
		Retries: httpclient.NoRetry,
		Headers: map[string]string{"Authorization": "Bearer " + s.apiKey},
	})
	if !res.Success {
		s.logger.Error("generation request failed",
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

const recipeSystemPrompt = `You are a professional chef and nutritionist. Respond with ONLY a JSON array of recipe objects, no prose and no markdown fences. Each object must have this exact structure:
{
    "name": "Recipe name",
    "description": "Brief description of the recipe",
    "prep_time": 15,
    "cooking_time": 30,
    "servings": 4,
    "cuisine": "Italian",
    "difficulty": "Easy",
    "ingredients": [
        "2 cups flour",
        "1 cup sugar"
    ],
    "instructions": [
        "Step 1: Mix the dry ingredients",
        "Step 2: Bake at 350F for 30 minutes"
    ],
    "nutrition": {
        "calories": 350,
        "protein": 15,
        "carbs": 45,
        "fat": 12,
        "fiber": 5
    },
    "tags": ["quick", "family"]
}

Note: prep_time and cooking_time are minutes as numbers. The difficulty field MUST be one of Easy, Medium, Hard. All nutrition fields must be numbers, not strings.`

func (s *LLMService) buildUserPrompt(params GenerateParams, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d recipes using these ingredients: %s.", count, strings.Join(params.Ingredients, ", "))

	if params.Cuisine != "" && !strings.EqualFold(params.Cuisine, "all") {
		fmt.Fprintf(&b, " The cuisine must be %s.", params.Cuisine)
	}
	if params.DishType != "" {
		fmt.Fprintf(&b, " The dish type should be %s.", params.DishType)
	}

	switch params.SkillLevel {
	case "pro":
		b.WriteString(" Target an experienced home cook; intermediate techniques are fine.")
	case "legendary":
		b.WriteString(" Target an expert cook; ambitious, restaurant-level techniques are welcome.")
	default:
		b.WriteString(" Target a beginner cook; keep the techniques simple.")
	}

	fmt.Fprintf(&b, " Each recipe should serve %d people.", params.Servings)
	b.WriteString(" Respond with a JSON array only.")
	return b.String()
}

// recipePayload mirrors the model's output with every field optional.
type recipePayload struct {
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	PrepTime     flexInt        `json:"prep_time"`
	CookingTime  flexInt        `json:"cooking_time"`
	Servings     flexInt        `json:"servings"`
	Cuisine      *string        `json:"cuisine"`
	Difficulty   *string        `json:"difficulty"`
	Ingredients  []string       `json:"ingredients"`
	Instructions []string       `json:"instructions"`
	Nutrition    *nutritionJSON `json:"nutrition"`
	Tags         []string       `json:"tags"`
}

type nutritionJSON struct {
	Calories flexFloat `json:"calories"`
	Protein  flexFloat `json:"protein"`
	Carbs    flexFloat `json:"carbs"`
	Fat      flexFloat `json:"fat"`
	Fiber    flexFloat `json:"fiber"`
}

// decodeRecipe populates a Recipe from one array element, substituting the
// documented defaults for absent fields. An element that is not an object
// still yields a fully defaulted recipe.
func decodeRecipe(raw json.RawMessage, servingsDefault int) models.Recipe {
	var p recipePayload
	_ = json.Unmarshal(raw, &p)

	r := models.Recipe{
		ID:           uuid.New().String(),
		Name:         defaultRecipeName,
		PrepTime:     defaultPrepTime,
		CookingTime:  defaultCookingTime,
		Servings:     servingsDefault,
		Cuisine:      defaultCuisine,
		Difficulty:   defaultDifficulty,
		Ingredients:  []string{},
		Instructions: []string{},
		Nutrition:    defaultNutrition,
		Tags:         []string{},
	}

	if p.Name != nil && *p.Name != "" {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.PrepTime.Set {
		r.PrepTime = p.PrepTime.Value
	}
	if p.CookingTime.Set {
		r.CookingTime = p.CookingTime.Value
	}
	if p.Servings.Set {
		r.Servings = p.Servings.Value
	}
	if p.Cuisine != nil && *p.Cuisine != "" {
		r.Cuisine = *p.Cuisine
	}
	if p.Difficulty != nil && *p.Difficulty != "" {
		r.Difficulty = *p.Difficulty
	}
	if p.Ingredients != nil {
		r.Ingredients = p.Ingredients
	}
	if p.Instructions != nil {
		r.Instructions = p.Instructions
	}
	if p.Tags != nil {
		r.Tags = p.Tags
	}
	if p.Nutrition != nil {
		if p.Nutrition.Calories.Set {
			r.Nutrition.Calories = p.Nutrition.Calories.Value
		}
		if p.Nutrition.Protein.Set {
			r.Nutrition.Protein = p.Nutrition.Protein.Value
		}
		if p.Nutrition.Carbs.Set {
			r.Nutrition.Carbs = p.Nutrition.Carbs.Value
		}
		if p.Nutrition.Fat.Set {
			r.Nutrition.Fat = p.Nutrition.Fat.Value
		}
		if p.Nutrition.Fiber.Set {
			r.Nutrition.Fiber = p.Nutrition.Fiber.Value
		}
	}

	r.Image = pickStockImage(r.Name, r.Description)
	return r
}
