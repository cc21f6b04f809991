package models

// IngredientBreakdown is the three-tier ingredient split reported by the
// dish analyzer.
type IngredientBreakdown struct {
	Primary    []string `json:"primary"`
	Secondary  []string `json:"secondary"`
	Seasonings []string `json:"seasonings"`
}

// DishNutrition is the 8-field nutrition block for an analyzed dish.
type DishNutrition struct {
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	Sugar       float64 `json:"sugar"`
	Sodium      float64 `json:"sodium"`
	Cholesterol float64 `json:"cholesterol"`
}

// MacroBreakdown is a three-slice percentage split; the slices total ~100.
type MacroBreakdown struct {
	ProteinPct float64 `json:"protein_pct"`
	CarbsPct   float64 `json:"carbs_pct"`
	FatPct     float64 `json:"fat_pct"`
}

// DishAnalysisResult is produced wholesale by the image-analysis service per
// uploaded photo. It is not persisted beyond the current request.
type DishAnalysisResult struct {
	DishName         string              `json:"dish_name"`
	Confidence       float64             `json:"confidence"`
	Ingredients      IngredientBreakdown `json:"ingredients"`
	Nutrition        DishNutrition       `json:"nutrition"`
	MacroBreakdown   MacroBreakdown      `json:"macro_breakdown"`
	HealthScore      float64             `json:"health_score"`
	HealthGrade      string              `json:"health_grade"`
	CookingMethods   []string            `json:"cooking_methods"`
	Suggestions      []string            `json:"suggestions"`
	HealthierSwaps   []string            `json:"healthier_swaps"`
	ArchivedPhotoURL string              `json:"archived_photo_url,omitempty"`
}
