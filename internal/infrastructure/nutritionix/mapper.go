package nutritionix

import "github.com/fittrack/backend/internal/domain"

// mapFood converts one Nutritionix record into the canonical shape.
// Common foods have no stable provider id, so the external id falls back to
// the food name; branded items use nix_item_id. Sodium is already reported
// in milligrams. Returns nil for records without a name.
func mapFood(f *foodRecord) *domain.FoodItem {
	if f.FoodName == "" {
		return nil
	}

	externalID := f.FoodName
	if f.NixItemID != nil && *f.NixItemID != "" {
		externalID = *f.NixItemID
	}

	item := &domain.FoodItem{
		Source:         domain.SourceNutritionix,
		ExternalID:     &externalID,
		FoodName:       f.FoodName,
		BrandName:      f.BrandName,
		ServingQty:     f.ServingQty,
		ServingUnit:    f.ServingUnit,
		ServingWeightG: f.ServingWeightGrams,
		Calories:       nonNegative(f.NfCalories),
		ProteinG:       nonNegative(f.NfProtein),
		CarbsG:         nonNegative(f.NfTotalCarbohydrate),
		FatG:           nonNegative(f.NfTotalFat),
		FiberG:         nonNegative(f.NfDietaryFiber),
		SugarG:         nonNegative(f.NfSugars),
		SodiumMg:       nonNegative(f.NfSodium),
	}

	if item.ServingQty <= 0 {
		item.ServingQty = 1
	}
	if item.ServingUnit == "" {
		item.ServingUnit = "serving"
	}
	if f.Upc != nil && *f.Upc != "" {
		item.Barcode = f.Upc
	}

	return item
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
