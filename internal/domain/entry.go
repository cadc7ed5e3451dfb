package domain

import "time"

// FoodEntry is one logged food in a user's diary. Nutrition values are
// snapshotted at logging time so later edits to food_master never rewrite
// history. FoodMasterID links back to the cached item when the entry came
// from a search result.
type FoodEntry struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index:idx_entry_user_date,priority:1" json:"user_id"`

	FoodName  string  `gorm:"size:255;not null" json:"food_name"`
	BrandName *string `gorm:"size:255" json:"brand_name,omitempty"`

	Calories float64 `gorm:"not null" json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`

	Quantity float64 `gorm:"default:1" json:"quantity"`
	Unit     string  `gorm:"size:64;default:serving" json:"unit"`

	// breakfast, lunch, dinner or snack
	MealType  *string   `gorm:"size:32" json:"meal_type,omitempty"`
	EntryDate time.Time `gorm:"type:date;not null;index:idx_entry_user_date,priority:2" json:"entry_date"`

	FoodMasterID *uint `json:"food_master_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (FoodEntry) TableName() string {
	return "food_entries"
}

// DailySummary is the per-day nutrition total for one user.
type DailySummary struct {
	Date          time.Time `json:"date"`
	TotalCalories float64   `json:"total_calories"`
	TotalProteinG float64   `json:"total_protein_g"`
	TotalCarbsG   float64   `json:"total_carbs_g"`
	TotalFatG     float64   `json:"total_fat_g"`
	EntryCount    int       `json:"entry_count"`
}
