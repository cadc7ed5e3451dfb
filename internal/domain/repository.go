package domain

import (
	"context"
	"time"
)

// FoodStore is the persistent cache of normalized food items (food_master).
type FoodStore interface {
	// SearchByName matches query case-insensitively as a substring of
	// food_name or brand_name, bounded by limit.
	SearchByName(ctx context.Context, query string, limit int) ([]FoodItem, error)

	// FindByBarcode returns the item with an exact barcode match, or
	// ErrFoodNotFound.
	FindByBarcode(ctx context.Context, barcode string) (*FoodItem, error)

	// UpsertIfAbsent inserts items not yet cached, keyed by
	// (source, external_id), and reports how many rows were written.
	// The whole batch is one transaction.
	UpsertIfAbsent(ctx context.Context, items []FoodItem) (int, error)

	// Insert persists a single item unconditionally (custom foods).
	Insert(ctx context.Context, item *FoodItem) error
}

// SourceAdapter is implemented by every external nutrition provider client.
// Adapters are stateless aside from configuration and safe for concurrent use.
type SourceAdapter interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]FoodItem, error)
	SearchBarcode(ctx context.Context, barcode string) (*FoodItem, error)
}

// EntryStore persists per-user food diary entries.
type EntryStore interface {
	Create(ctx context.Context, entry *FoodEntry) error
	ListByUser(ctx context.Context, userID uint, date *time.Time) ([]FoodEntry, error)
	GetByID(ctx context.Context, userID, entryID uint) (*FoodEntry, error)
	Update(ctx context.Context, entry *FoodEntry) error
	Delete(ctx context.Context, userID, entryID uint) error
	SummarizeDay(ctx context.Context, userID uint, date time.Time) (*DailySummary, error)
}
