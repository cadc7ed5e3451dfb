package usecase

import "github.com/fittrack/backend/internal/domain"

// dedupe collapses items sharing a case-insensitive (food_name, brand_name)
// key, keeping the first occurrence and preserving relative order. Because
// the aggregator places cache results ahead of provider results, an already
// cached item always wins over a freshly fetched duplicate.
func dedupe(items []domain.FoodItem) []domain.FoodItem {
	seen := make(map[string]struct{}, len(items))
	unique := make([]domain.FoodItem, 0, len(items))

	for _, item := range items {
		key := item.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}

	return unique
}
