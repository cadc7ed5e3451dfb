package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fittrack/backend/internal/domain"
)

// FoodStore is the GORM-backed food_master repository. It is the persistent
// cache the aggregator consults before reaching for external providers.
type FoodStore struct {
	db *gorm.DB
}

// NewFoodStore creates a food store on an open database handle.
func NewFoodStore(db *gorm.DB) *FoodStore {
	return &FoodStore{db: db}
}

// SearchByName matches query case-insensitively as a substring of food_name
// or brand_name. Results are ordered by id so identical queries return
// identical sequences.
func (s *FoodStore) SearchByName(ctx context.Context, query string, limit int) ([]domain.FoodItem, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var items []domain.FoodItem
	err := s.db.WithContext(ctx).
		Where("lower(food_name) LIKE ? OR lower(brand_name) LIKE ?", pattern, pattern).
		Order("id").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%w: searching food_master: %v", domain.ErrStoreUnavailable, err)
	}
	return items, nil
}

// FindByBarcode returns the item with an exact barcode match.
func (s *FoodStore) FindByBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	var item domain.FoodItem
	err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: barcode lookup: %v", domain.ErrStoreUnavailable, err)
	}
	return &item, nil
}

// UpsertIfAbsent inserts the items not yet cached, keyed by
// (source, external_id), inside one transaction. Items without an external id
// are skipped: they cannot be identified on a later fetch. Concurrent writers
// racing on the same key are absorbed by ON CONFLICT DO NOTHING, so the
// second writer simply counts zero rows for that item.
func (s *FoodStore) UpsertIfAbsent(ctx context.Context, items []domain.FoodItem) (int, error) {
	batch := dedupeBatch(items)
	if len(batch) == 0 {
		return 0, nil
	}

	written := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range batch {
			var count int64
			err := tx.Model(&domain.FoodItem{}).
				Where("source = ? AND external_id = ?", batch[i].Source, *batch[i].ExternalID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch[i])
			if res.Error != nil {
				return res.Error
			}
			written += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: caching items: %v", domain.ErrStoreUnavailable, err)
	}
	return written, nil
}

// Insert persists a single item unconditionally.
func (s *FoodStore) Insert(ctx context.Context, item *domain.FoodItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("%w: inserting food item: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// dedupeBatch drops items without an external id and collapses duplicates of
// the same (source, external_id) within one call, keeping the first. Copies
// are returned so Create never mutates the caller's slice.
func dedupeBatch(items []domain.FoodItem) []domain.FoodItem {
	seen := make(map[string]struct{}, len(items))
	batch := make([]domain.FoodItem, 0, len(items))
	for _, item := range items {
		if item.ExternalID == nil || *item.ExternalID == "" {
			continue
		}
		key := item.Source + "\x00" + *item.ExternalID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		item.ID = 0
		batch = append(batch, item)
	}
	return batch
}
