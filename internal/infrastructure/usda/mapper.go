package usda

import (
	"strconv"

	"github.com/fittrack/backend/internal/domain"
)

// USDA nutrient names for the values we keep
const (
	nutrientEnergy  = "Energy"
	nutrientProtein = "Protein"
	nutrientCarbs   = "Carbohydrate, by difference"
	nutrientFat     = "Total lipid (fat)"
	nutrientFiber   = "Fiber, total dietary"
	nutrientSugar   = "Sugars, total including NLEA"
	nutrientSodium  = "Sodium, Na"
)

// mapFood converts one FoodData Central record into the canonical shape.
// USDA reports composition per 100g, so the serving is fixed at 100g.
// Returns nil for records missing an id or description.
func mapFood(f *food) *domain.FoodItem {
	if f.FdcID == 0 || f.Description == "" {
		return nil
	}

	externalID := strconv.FormatInt(f.FdcID, 10)
	weight := 100.0

	item := &domain.FoodItem{
		Source:         domain.SourceUSDA,
		ExternalID:     &externalID,
		FoodName:       f.Description,
		ServingQty:     100,
		ServingUnit:    "g",
		ServingWeightG: &weight,
	}

	if f.BrandOwner != "" {
		brand := f.BrandOwner
		item.BrandName = &brand
	}
	if f.GtinUpc != "" {
		barcode := f.GtinUpc
		item.Barcode = &barcode
	}

	for _, n := range f.Nutrients {
		if n.Value < 0 {
			continue
		}
		switch n.NutrientName {
		case nutrientEnergy:
			// USDA can report energy in both kJ and kcal; keep kcal only.
			if n.UnitName == "" || n.UnitName == "KCAL" || n.UnitName == "kcal" {
				item.Calories = n.Value
			}
		case nutrientProtein:
			item.ProteinG = n.Value
		case nutrientCarbs:
			item.CarbsG = n.Value
		case nutrientFat:
			item.FatG = n.Value
		case nutrientFiber:
			item.FiberG = n.Value
		case nutrientSugar:
			item.SugarG = n.Value
		case nutrientSodium:
			item.SodiumMg = n.Value
		}
	}

	return item
}
