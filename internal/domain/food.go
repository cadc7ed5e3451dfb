package domain

import (
	"strings"
	"time"
)

// Food item sources. External provider names double as the source tag stored
// in food_master, so they must stay stable once data has been written.
const (
	SourceCustom        = "custom"
	SourceNutritionix   = "nutritionix"
	SourceUSDA          = "usda"
	SourceOpenFoodFacts = "openfoodfacts"
)

// FoodItem is the canonical food record exchanged between every component.
// Rows live in the food_master table, which acts as a persistent cache over
// the external providers: (source, external_id) identifies a provider record
// exactly once, custom items carry a nil external id.
type FoodItem struct {
	ID             uint     `gorm:"primaryKey" json:"id,omitempty"`
	Source         string   `gorm:"size:32;not null;uniqueIndex:idx_food_source_external" json:"source"`
	ExternalID     *string  `gorm:"size:255;uniqueIndex:idx_food_source_external" json:"external_id,omitempty"`
	FoodName       string   `gorm:"size:255;not null;index:idx_food_search,priority:1" json:"food_name"`
	BrandName      *string  `gorm:"size:255;index:idx_food_search,priority:2" json:"brand_name,omitempty"`
	ServingQty     float64  `gorm:"default:1" json:"serving_qty"`
	ServingUnit    string   `gorm:"size:64;default:serving" json:"serving_unit"`
	ServingWeightG *float64 `json:"serving_weight_g,omitempty"`

	// Nutrition per serving. Calories is the only mandatory value.
	Calories float64 `gorm:"not null" json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
	SodiumMg float64 `json:"sodium_mg"`

	Barcode *string `gorm:"size:64;uniqueIndex" json:"barcode,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// TableName keeps the table name the rest of the schema references.
func (FoodItem) TableName() string {
	return "food_master"
}

// DedupKey is the case-insensitive (food_name, brand_name) pair used to
// collapse duplicates across sources. A nil brand compares equal to "".
func (f *FoodItem) DedupKey() string {
	brand := ""
	if f.BrandName != nil {
		brand = *f.BrandName
	}
	return strings.ToLower(strings.TrimSpace(f.FoodName)) + "\x00" + strings.ToLower(strings.TrimSpace(brand))
}

// SearchResult is the aggregated response returned to the delivery layer.
type SearchResult struct {
	Results    []FoodItem `json:"results"`
	TotalCount int        `json:"total_count"`
}

// CustomFoodRequest is caller-supplied data for a locally created food item.
// Calories is a pointer so that an absent value can be told apart from zero.
type CustomFoodRequest struct {
	FoodName       string   `json:"food_name"`
	BrandName      *string  `json:"brand_name"`
	ServingQty     float64  `json:"serving_qty"`
	ServingUnit    string   `json:"serving_unit"`
	ServingWeightG *float64 `json:"serving_weight_g"`
	Calories       *float64 `json:"calories"`
	ProteinG       float64  `json:"protein_g"`
	CarbsG         float64  `json:"carbs_g"`
	FatG           float64  `json:"fat_g"`
	FiberG         float64  `json:"fiber_g"`
	SugarG         float64  `json:"sugar_g"`
	SodiumMg       float64  `json:"sodium_mg"`
	Barcode        *string  `json:"barcode"`
}
