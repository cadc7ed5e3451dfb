package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fittrack/backend/internal/domain"
)

// EntryInput is caller-supplied data for logging a food. Calories is a
// pointer so an absent value can be told apart from zero.
type EntryInput struct {
	FoodName     string
	BrandName    *string
	Calories     *float64
	ProteinG     float64
	CarbsG       float64
	FatG         float64
	Quantity     float64
	Unit         string
	MealType     *string
	EntryDate    time.Time
	FoodMasterID *uint
}

// EntryUpdate carries a partial update; nil fields are left untouched.
type EntryUpdate struct {
	FoodName  *string
	BrandName *string
	Calories  *float64
	ProteinG  *float64
	CarbsG    *float64
	FatG      *float64
	Quantity  *float64
	Unit      *string
	MealType  *string
	EntryDate *time.Time
}

// Diary manages per-user food log entries and daily totals.
type Diary struct {
	entries domain.EntryStore
	log     zerolog.Logger
}

// NewDiary creates a diary service.
func NewDiary(entries domain.EntryStore, log zerolog.Logger) *Diary {
	return &Diary{
		entries: entries,
		log:     log.With().Str("component", "diary").Logger(),
	}
}

// Log records a food entry for the user.
func (d *Diary) Log(ctx context.Context, userID uint, input *EntryInput) (*domain.FoodEntry, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: request body is required", domain.ErrInvalidRequest)
	}
	name := strings.TrimSpace(input.FoodName)
	if name == "" {
		return nil, fmt.Errorf("%w: food_name is required", domain.ErrInvalidRequest)
	}
	if input.Calories == nil {
		return nil, fmt.Errorf("%w: calories is required", domain.ErrInvalidRequest)
	}
	if *input.Calories < 0 || input.ProteinG < 0 || input.CarbsG < 0 || input.FatG < 0 {
		return nil, fmt.Errorf("%w: nutrition values must be non-negative", domain.ErrInvalidRequest)
	}
	if input.EntryDate.IsZero() {
		return nil, fmt.Errorf("%w: entry_date is required", domain.ErrInvalidRequest)
	}

	entry := &domain.FoodEntry{
		UserID:       userID,
		FoodName:     name,
		BrandName:    input.BrandName,
		Calories:     *input.Calories,
		ProteinG:     input.ProteinG,
		CarbsG:       input.CarbsG,
		FatG:         input.FatG,
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		MealType:     input.MealType,
		EntryDate:    truncateToDay(input.EntryDate),
		FoodMasterID: input.FoodMasterID,
	}
	if entry.Quantity <= 0 {
		entry.Quantity = 1
	}
	if entry.Unit == "" {
		entry.Unit = "serving"
	}

	if err := d.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	d.log.Info().Uint("user_id", userID).Str("food_name", entry.FoodName).Msg("food entry logged")
	return entry, nil
}

// List returns a user's entries, optionally filtered to one day.
func (d *Diary) List(ctx context.Context, userID uint, date *time.Time) ([]domain.FoodEntry, error) {
	if date != nil {
		day := truncateToDay(*date)
		date = &day
	}
	return d.entries.ListByUser(ctx, userID, date)
}

// Get returns one entry, scoped to the user.
func (d *Diary) Get(ctx context.Context, userID, entryID uint) (*domain.FoodEntry, error) {
	return d.entries.GetByID(ctx, userID, entryID)
}

// Update applies a partial update to an entry, scoped to the user.
func (d *Diary) Update(ctx context.Context, userID, entryID uint, update *EntryUpdate) (*domain.FoodEntry, error) {
	if update == nil {
		return nil, fmt.Errorf("%w: request body is required", domain.ErrInvalidRequest)
	}

	entry, err := d.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if update.FoodName != nil {
		name := strings.TrimSpace(*update.FoodName)
		if name == "" {
			return nil, fmt.Errorf("%w: food_name cannot be empty", domain.ErrInvalidRequest)
		}
		entry.FoodName = name
	}
	if update.BrandName != nil {
		entry.BrandName = update.BrandName
	}
	if update.Calories != nil {
		if *update.Calories < 0 {
			return nil, fmt.Errorf("%w: calories must be non-negative", domain.ErrInvalidRequest)
		}
		entry.Calories = *update.Calories
	}
	if update.ProteinG != nil {
		entry.ProteinG = *update.ProteinG
	}
	if update.CarbsG != nil {
		entry.CarbsG = *update.CarbsG
	}
	if update.FatG != nil {
		entry.FatG = *update.FatG
	}
	if update.Quantity != nil && *update.Quantity > 0 {
		entry.Quantity = *update.Quantity
	}
	if update.Unit != nil && *update.Unit != "" {
		entry.Unit = *update.Unit
	}
	if update.MealType != nil {
		entry.MealType = update.MealType
	}
	if update.EntryDate != nil {
		entry.EntryDate = truncateToDay(*update.EntryDate)
	}

	if err := d.entries.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry, scoped to the user.
func (d *Diary) Delete(ctx context.Context, userID, entryID uint) error {
	return d.entries.Delete(ctx, userID, entryID)
}

// Summary returns the user's nutrition totals for one day.
func (d *Diary) Summary(ctx context.Context, userID uint, date time.Time) (*domain.DailySummary, error) {
	return d.entries.SummarizeDay(ctx, userID, truncateToDay(date))
}

// truncateToDay normalizes a timestamp to midnight UTC so date equality
// works the same across database engines.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
