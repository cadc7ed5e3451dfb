package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fittrack/backend/internal/domain"
)

// EntryStore is the GORM-backed food diary repository.
type EntryStore struct {
	db *gorm.DB
}

// NewEntryStore creates an entry store on an open database handle.
func NewEntryStore(db *gorm.DB) *EntryStore {
	return &EntryStore{db: db}
}

func (s *EntryStore) Create(ctx context.Context, entry *domain.FoodEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: creating food entry: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ListByUser returns a user's entries, optionally filtered by date,
// newest first.
func (s *EntryStore) ListByUser(ctx context.Context, userID uint, date *time.Time) ([]domain.FoodEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if date != nil {
		q = q.Where("entry_date = ?", *date)
	}

	var entries []domain.FoodEntry
	if err := q.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: listing food entries: %v", domain.ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (s *EntryStore) GetByID(ctx context.Context, userID, entryID uint) (*domain.FoodEntry, error) {
	var entry domain.FoodEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading food entry: %v", domain.ErrStoreUnavailable, err)
	}
	return &entry, nil
}

func (s *EntryStore) Update(ctx context.Context, entry *domain.FoodEntry) error {
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("%w: updating food entry: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *EntryStore) Delete(ctx context.Context, userID, entryID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&domain.FoodEntry{})
	if res.Error != nil {
		return fmt.Errorf("%w: deleting food entry: %v", domain.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// SummarizeDay sums a user's logged nutrition for one day.
func (s *EntryStore) SummarizeDay(ctx context.Context, userID uint, date time.Time) (*domain.DailySummary, error) {
	var row struct {
		TotalCalories float64
		TotalProteinG float64
		TotalCarbsG   float64
		TotalFatG     float64
		EntryCount    int
	}

	err := s.db.WithContext(ctx).
		Model(&domain.FoodEntry{}).
		Select(
			"COALESCE(SUM(calories), 0) AS total_calories, "+
				"COALESCE(SUM(protein_g), 0) AS total_protein_g, "+
				"COALESCE(SUM(carbs_g), 0) AS total_carbs_g, "+
				"COALESCE(SUM(fat_g), 0) AS total_fat_g, "+
				"COUNT(*) AS entry_count").
		Where("user_id = ? AND entry_date = ?", userID, date).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("%w: summarizing day: %v", domain.ErrStoreUnavailable, err)
	}

	return &domain.DailySummary{
		Date:          date,
		TotalCalories: row.TotalCalories,
		TotalProteinG: row.TotalProteinG,
		TotalCarbsG:   row.TotalCarbsG,
		TotalFatG:     row.TotalFatG,
		EntryCount:    row.EntryCount,
	}, nil
}
