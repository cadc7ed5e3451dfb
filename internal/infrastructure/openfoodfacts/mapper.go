package openfoodfacts

import "github.com/fittrack/backend/internal/domain"

// mapProduct converts one Open Food Facts product into the canonical shape.
// Nutriments are reported per 100g; a missing serving size defaults to
// 100g and sodium is converted from grams to milligrams. Returns nil for
// products without a code or name.
func mapProduct(p *product) *domain.FoodItem {
	if p.Code == "" || p.ProductName == "" {
		return nil
	}

	servingQty := float64(p.ServingQuantity)
	servingUnit := p.ServingQuantityUnit
	if servingQty <= 0 {
		servingQty = 100
	}
	if servingUnit == "" {
		servingUnit = "g"
	}

	weight := 100.0
	if servingUnit == "g" || servingUnit == "ml" {
		weight = servingQty
	}

	externalID := p.Code
	barcode := p.Code

	item := &domain.FoodItem{
		Source:         domain.SourceOpenFoodFacts,
		ExternalID:     &externalID,
		FoodName:       p.ProductName,
		ServingQty:     servingQty,
		ServingUnit:    servingUnit,
		ServingWeightG: &weight,
		Calories:       nonNegative(p.Nutriments.EnergyKcal100g),
		ProteinG:       nonNegative(p.Nutriments.Proteins100g),
		CarbsG:         nonNegative(p.Nutriments.Carbs100g),
		FatG:           nonNegative(p.Nutriments.Fat100g),
		FiberG:         nonNegative(p.Nutriments.Fiber100g),
		SugarG:         nonNegative(p.Nutriments.Sugars100g),
		SodiumMg:       nonNegative(p.Nutriments.Sodium100g) * 1000,
		Barcode:        &barcode,
	}

	if p.Brands != "" {
		brand := p.Brands
		item.BrandName = &brand
	}

	return item
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
