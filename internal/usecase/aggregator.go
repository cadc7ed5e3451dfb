package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fittrack/backend/internal/domain"
	"github.com/fittrack/backend/internal/infrastructure/memcache"
)

// Search validation bounds
const (
	MinQueryLength = 2
	MaxSearchLimit = 50
)

// AggregatorConfig holds tuning knobs for the aggregation pipeline.
type AggregatorConfig struct {
	// PerSourceFloor is the minimum number of results requested from each
	// provider so adapters aren't starved when few results are missing.
	PerSourceFloor int
	// AdapterTimeout bounds each provider call.
	AdapterTimeout time.Duration
}

// Aggregator coordinates food lookups across the persistent cache and the
// configured provider adapters: cache lookup, provider fan-out,
// normalization, de-duplication, cache write-back, truncation.
type Aggregator struct {
	store          domain.FoodStore
	adapters       []domain.SourceAdapter
	memo           *memcache.Cache
	perSourceFloor int
	adapterTimeout time.Duration
	log            zerolog.Logger
}

// NewAggregator creates an aggregator over a food store and provider
// adapters. Adapter slice order is the source priority order: earlier
// adapters win dedup ties and are asked first on barcode lookups. memo may
// be nil to disable response memoization.
func NewAggregator(
	store domain.FoodStore,
	adapters []domain.SourceAdapter,
	memo *memcache.Cache,
	config AggregatorConfig,
	log zerolog.Logger,
) *Aggregator {
	floor := config.PerSourceFloor
	if floor <= 0 {
		floor = 5
	}
	timeout := config.AdapterTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Aggregator{
		store:          store,
		adapters:       adapters,
		memo:           memo,
		perSourceFloor: floor,
		adapterTimeout: timeout,
		log:            log.With().Str("component", "aggregator").Logger(),
	}
}

// Search looks up food items for a free-text query.
// Flow: memo -> food_master cache -> provider fan-out -> dedupe ->
// cache write-back -> truncate to limit.
func (a *Aggregator) Search(ctx context.Context, query string, limit int) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, fmt.Errorf("%w: minimum length is %d", domain.ErrQueryTooShort, MinQueryLength)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", domain.ErrInvalidRequest)
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	memoKey := fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
	if a.memo != nil {
		if items, ok := a.memo.Get(memoKey); ok {
			return &domain.SearchResult{Results: items, TotalCount: len(items)}, nil
		}
	}

	// Cache phase. A store failure here is fatal: there is nothing to
	// synthesize results from.
	results, err := a.store.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("query", query).Int("cached", len(results)).Msg("cache phase complete")

	// The cache can legally hold duplicate keys (a custom food beside a
	// provider row, or barcode hits persisted from different sources), so
	// even a cache-only response needs a dedup pass.
	results = dedupe(results)

	// Fetch phase, only when the cache alone can't satisfy the limit.
	if len(results) < limit {
		remaining := limit - len(results)
		fetched := a.fetchExternal(ctx, query, remaining)

		// Merge phase: cache results first so they win dedup ties.
		merged := dedupe(append(results, fetched...))

		// Write back only the freshly fetched survivors; cached rows
		// already carry a database id.
		fresh := make([]domain.FoodItem, 0, len(merged))
		for _, item := range merged {
			if item.ID == 0 {
				fresh = append(fresh, item)
			}
		}
		if len(fresh) > 0 {
			if written, err := a.store.UpsertIfAbsent(ctx, fresh); err != nil {
				// Soft failure: results still go back to the caller,
				// the items will be re-fetched and re-cached later.
				a.log.Warn().Err(err).Msg("cache write-back failed")
			} else if written > 0 {
				a.log.Debug().Int("written", written).Msg("cached new food items")
			}
		}

		results = merged
	}

	if len(results) > limit {
		results = results[:limit]
	}
	if a.memo != nil {
		a.memo.Set(memoKey, results)
	}

	return &domain.SearchResult{Results: results, TotalCount: len(results)}, nil
}

// fetchExternal fans out to every adapter concurrently and concatenates
// their results in adapter priority order. Adapter failures are soft: they
// are logged and contribute an empty set.
func (a *Aggregator) fetchExternal(ctx context.Context, query string, remaining int) []domain.FoodItem {
	if len(a.adapters) == 0 {
		return nil
	}

	perSource := remaining
	if perSource < a.perSourceFloor {
		perSource = a.perSourceFloor
	}

	slots := make([][]domain.FoodItem, len(a.adapters))
	var g errgroup.Group
	for i, adapter := range a.adapters {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
			defer cancel()

			items, err := adapter.Search(actx, query, perSource)
			if err != nil {
				a.log.Warn().Err(err).Str("adapter", adapter.Name()).Msg("adapter search failed")
				return nil
			}
			slots[i] = items
			return nil
		})
	}
	g.Wait()

	var combined []domain.FoodItem
	for _, items := range slots {
		combined = append(combined, items...)
	}
	return combined
}

// SearchBarcode resolves a barcode against the cache first, then walks the
// adapters in priority order and stops at the first hit, persisting it.
func (a *Aggregator) SearchBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", domain.ErrInvalidRequest)
	}

	item, err := a.store.FindByBarcode(ctx, barcode)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, domain.ErrFoodNotFound) {
		return nil, err
	}

	for _, adapter := range a.adapters {
		actx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
		found, err := adapter.SearchBarcode(actx, barcode)
		cancel()
		if err != nil {
			a.log.Warn().Err(err).Str("adapter", adapter.Name()).Msg("adapter barcode lookup failed")
			continue
		}
		if found == nil {
			continue
		}

		if _, err := a.store.UpsertIfAbsent(ctx, []domain.FoodItem{*found}); err != nil {
			a.log.Warn().Err(err).Msg("cache write-back failed")
		}
		return found, nil
	}

	return nil, domain.ErrFoodNotFound
}

// AddCustomFood validates and persists a caller-defined food item. Custom
// items carry no external id and never interact with providers or dedup.
func (a *Aggregator) AddCustomFood(ctx context.Context, req *domain.CustomFoodRequest) (*domain.FoodItem, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request body is required", domain.ErrInvalidRequest)
	}
	name := strings.TrimSpace(req.FoodName)
	if name == "" {
		return nil, fmt.Errorf("%w: food_name is required", domain.ErrInvalidRequest)
	}
	if req.Calories == nil {
		return nil, fmt.Errorf("%w: calories is required", domain.ErrInvalidRequest)
	}
	if *req.Calories < 0 || req.ProteinG < 0 || req.CarbsG < 0 || req.FatG < 0 ||
		req.FiberG < 0 || req.SugarG < 0 || req.SodiumMg < 0 {
		return nil, fmt.Errorf("%w: nutrition values must be non-negative", domain.ErrInvalidRequest)
	}

	item := &domain.FoodItem{
		Source:         domain.SourceCustom,
		FoodName:       name,
		BrandName:      req.BrandName,
		ServingQty:     req.ServingQty,
		ServingUnit:    req.ServingUnit,
		ServingWeightG: req.ServingWeightG,
		Calories:       *req.Calories,
		ProteinG:       req.ProteinG,
		CarbsG:         req.CarbsG,
		FatG:           req.FatG,
		FiberG:         req.FiberG,
		SugarG:         req.SugarG,
		SodiumMg:       req.SodiumMg,
		Barcode:        req.Barcode,
	}
	if item.ServingQty <= 0 {
		item.ServingQty = 1
	}
	if item.ServingUnit == "" {
		item.ServingUnit = "serving"
	}

	if err := a.store.Insert(ctx, item); err != nil {
		return nil, err
	}

	a.log.Info().Str("food_name", item.FoodName).Msg("custom food created")
	return item, nil
}
