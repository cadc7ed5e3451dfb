package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittrack/backend/internal/domain"
	"github.com/fittrack/backend/internal/infrastructure/memcache"
)

// fakeStore is an in-memory FoodStore matching the persistence contract.
type fakeStore struct {
	items      []domain.FoodItem
	nextID     uint
	searchErr  error
	barcodeErr error
	upsertErr  error
	upsertted  int
}

func newFakeStore(seed ...domain.FoodItem) *fakeStore {
	s := &fakeStore{}
	for i := range seed {
		s.nextID++
		seed[i].ID = s.nextID
		s.items = append(s.items, seed[i])
	}
	return s
}

func (s *fakeStore) SearchByName(ctx context.Context, query string, limit int) ([]domain.FoodItem, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	q := strings.ToLower(query)
	var out []domain.FoodItem
	for _, item := range s.items {
		brand := ""
		if item.BrandName != nil {
			brand = *item.BrandName
		}
		if strings.Contains(strings.ToLower(item.FoodName), q) || strings.Contains(strings.ToLower(brand), q) {
			out = append(out, item)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) FindByBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	if s.barcodeErr != nil {
		return nil, s.barcodeErr
	}
	for i := range s.items {
		if s.items[i].Barcode != nil && *s.items[i].Barcode == barcode {
			item := s.items[i]
			return &item, nil
		}
	}
	return nil, domain.ErrFoodNotFound
}

func (s *fakeStore) UpsertIfAbsent(ctx context.Context, items []domain.FoodItem) (int, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	written := 0
	for _, item := range items {
		if item.ExternalID == nil || *item.ExternalID == "" {
			continue
		}
		if s.exists(item.Source, *item.ExternalID) {
			continue
		}
		s.nextID++
		item.ID = s.nextID
		s.items = append(s.items, item)
		written++
	}
	s.upsertted += written
	return written, nil
}

func (s *fakeStore) Insert(ctx context.Context, item *domain.FoodItem) error {
	s.nextID++
	item.ID = s.nextID
	s.items = append(s.items, *item)
	return nil
}

func (s *fakeStore) exists(source, externalID string) bool {
	for _, item := range s.items {
		if item.Source == source && item.ExternalID != nil && *item.ExternalID == externalID {
			return true
		}
	}
	return false
}

// fakeAdapter is a deterministic SourceAdapter test double.
type fakeAdapter struct {
	name         string
	items        []domain.FoodItem
	barcodeItem  *domain.FoodItem
	err          error
	searchCalls  int
	barcodeCalls int
	gotLimit     int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Search(ctx context.Context, query string, limit int) ([]domain.FoodItem, error) {
	a.searchCalls++
	a.gotLimit = limit
	if a.err != nil {
		return nil, a.err
	}
	return a.items, nil
}

func (a *fakeAdapter) SearchBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	a.barcodeCalls++
	if a.err != nil {
		return nil, a.err
	}
	return a.barcodeItem, nil
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func yogurtItem(source, externalID string) domain.FoodItem {
	return domain.FoodItem{
		Source:      source,
		ExternalID:  strPtr(externalID),
		FoodName:    "Greek Yogurt, Plain, Nonfat",
		BrandName:   strPtr("Chobani"),
		ServingQty:  150,
		ServingUnit: "g",
		Calories:    90,
		ProteinG:    15,
	}
}

func newTestAggregator(store domain.FoodStore, adapters []domain.SourceAdapter, memo *memcache.Cache) *Aggregator {
	return NewAggregator(store, adapters, memo, AggregatorConfig{
		PerSourceFloor: 5,
		AdapterTimeout: time.Second,
	}, zerolog.Nop())
}

func TestSearch_Validation(t *testing.T) {
	agg := newTestAggregator(newFakeStore(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		limit   int
		wantErr error
	}{
		{"empty query", "", 20, domain.ErrQueryTooShort},
		{"single rune query", "p", 20, domain.ErrQueryTooShort},
		{"whitespace query", "   ", 20, domain.ErrQueryTooShort},
		{"zero limit", "pr", 0, domain.ErrInvalidRequest},
		{"negative limit", "protein", -3, domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := agg.Search(ctx, tt.query, tt.limit)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSearch_CacheSatisfiesLimit(t *testing.T) {
	store := newFakeStore(
		yogurtItem(domain.SourceNutritionix, "greek_yogurt"),
	)
	adapter := &fakeAdapter{name: "provider"}
	agg := newTestAggregator(store, []domain.SourceAdapter{adapter}, nil)

	result, err := agg.Search(context.Background(), "yogurt", 1)

	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, 0, adapter.searchCalls, "adapters must not be queried when the cache satisfies the limit")
}

func TestSearch_CacheOnlyDuplicatesCollapse(t *testing.T) {
	custom := yogurtItem(domain.SourceCustom, "")
	custom.ExternalID = nil
	store := newFakeStore(
		yogurtItem(domain.SourceNutritionix, "greek_yogurt"),
		custom,
	)
	agg := newTestAggregator(store, nil, nil)

	result, err := agg.Search(context.Background(), "yogurt", 2)

	require.NoError(t, err)
	require.Len(t, result.Results, 1, "duplicate keys inside the cache must still collapse")
	assert.Equal(t, domain.SourceNutritionix, result.Results[0].Source, "lower row id wins")
	assert.Equal(t, 1, result.TotalCount)
}

func TestSearch_DedupAcrossSources(t *testing.T) {
	store := newFakeStore()
	a := &fakeAdapter{name: "a", items: []domain.FoodItem{yogurtItem(domain.SourceNutritionix, "greek_yogurt")}}
	b := &fakeAdapter{name: "b", items: []domain.FoodItem{yogurtItem(domain.SourceUSDA, "170567")}}
	agg := newTestAggregator(store, []domain.SourceAdapter{a, b}, nil)

	result, err := agg.Search(context.Background(), "yogurt", 20)

	require.NoError(t, err)
	require.Len(t, result.Results, 1, "duplicate (name, brand) across sources must collapse to one item")
	assert.Equal(t, domain.SourceNutritionix, result.Results[0].Source, "earlier adapter wins the tie")

	// Only the dedup winner reaches the cache.
	assert.Len(t, store.items, 1)
	assert.Equal(t, domain.SourceNutritionix, store.items[0].Source)
}

func TestSearch_NoDuplicateKeysInResponse(t *testing.T) {
	store := newFakeStore()
	a := &fakeAdapter{name: "a", items: []domain.FoodItem{
		{Source: domain.SourceNutritionix, ExternalID: strPtr("x1"), FoodName: "Oatmeal", Calories: 150},
		{Source: domain.SourceNutritionix, ExternalID: strPtr("x2"), FoodName: "OATMEAL", Calories: 160},
		{Source: domain.SourceNutritionix, ExternalID: strPtr("x3"), FoodName: "Oatmeal", BrandName: strPtr("Quaker"), Calories: 140},
	}}
	agg := newTestAggregator(store, []domain.SourceAdapter{a}, nil)

	result, err := agg.Search(context.Background(), "oatmeal", 20)

	require.NoError(t, err)
	seen := map[string]bool{}
	for _, item := range result.Results {
		key := item.DedupKey()
		assert.False(t, seen[key], "duplicate dedup key in response: %q", key)
		seen[key] = true
	}
	assert.Len(t, result.Results, 2)
}

func TestSearch_CachedItemWinsOverFreshDuplicate(t *testing.T) {
	store := newFakeStore(yogurtItem(domain.SourceNutritionix, "greek_yogurt"))
	adapter := &fakeAdapter{name: "a", items: []domain.FoodItem{yogurtItem(domain.SourceUSDA, "170567")}}
	agg := newTestAggregator(store, []domain.SourceAdapter{adapter}, nil)

	// Limit above cache size forces the fetch phase.
	result, err := agg.Search(context.Background(), "yogurt", 5)

	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, domain.SourceNutritionix, result.Results[0].Source)
	assert.NotZero(t, result.Results[0].ID, "cached row keeps its database id")
	assert.Len(t, store.items, 1, "the losing duplicate must not be written back")
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	items := []domain.FoodItem{
		{Source: domain.SourceUSDA, ExternalID: strPtr("1"), FoodName: "Rice, white", Calories: 130},
		{Source: domain.SourceUSDA, ExternalID: strPtr("2"), FoodName: "Rice, brown", Calories: 112},
		{Source: domain.SourceUSDA, ExternalID: strPtr("3"), FoodName: "Rice, wild", Calories: 101},
	}
	adapter := &fakeAdapter{name: "a", items: items}
	store := newFakeStore()
	agg := newTestAggregator(store, []domain.SourceAdapter{adapter}, nil)

	result, err := agg.Search(context.Background(), "rice", 2)

	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
	// All fetched items are cached even when truncated out of the response.
	assert.Len(t, store.items, 3)
}

func TestSearch_PerSourceFloor(t *testing.T) {
	adapter := &fakeAdapter{name: "a"}
	agg := newTestAggregator(newFakeStore(), []domain.SourceAdapter{adapter}, nil)

	_, err := agg.Search(context.Background(), "yogurt", 2)

	require.NoError(t, err)
	assert.Equal(t, 5, adapter.gotLimit, "small remainders are raised to the per-source floor")
}

func TestSearch_AdapterFailureIsSoft(t *testing.T) {
	failing := &fakeAdapter{name: "down", err: errors.New("connection refused")}
	working := &fakeAdapter{name: "up", items: []domain.FoodItem{yogurtItem(domain.SourceUSDA, "170567")}}
	agg := newTestAggregator(newFakeStore(), []domain.SourceAdapter{failing, working}, nil)

	result, err := agg.Search(context.Background(), "yogurt", 10)

	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
}

func TestSearch_StoreReadErrorIsFatal(t *testing.T) {
	store := newFakeStore()
	store.searchErr = domain.ErrStoreUnavailable
	agg := newTestAggregator(store, nil, nil)

	result, err := agg.Search(context.Background(), "yogurt", 10)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSearch_WriteBackErrorIsSoft(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = domain.ErrStoreUnavailable
	adapter := &fakeAdapter{name: "a", items: []domain.FoodItem{yogurtItem(domain.SourceUSDA, "170567")}}
	agg := newTestAggregator(store, []domain.SourceAdapter{adapter}, nil)

	result, err := agg.Search(context.Background(), "yogurt", 10)

	require.NoError(t, err, "search still returns results when write-back fails")
	assert.Len(t, result.Results, 1)
}

func TestSearch_SecondCallHitsCacheOnly(t *testing.T) {
	store := newFakeStore()
	adapter := &fakeAdapter{name: "a", items: []domain.FoodItem{yogurtItem(domain.SourceNutritionix, "greek_yogurt")}}
	agg := newTestAggregator(store, []domain.SourceAdapter{adapter}, nil)

	first, err := agg.Search(context.Background(), "greek yogurt", 1)
	require.NoError(t, err)
	require.Len(t, first.Results, 1)

	// Second call with adapters disabled must be served from the cache.
	cacheOnly := newTestAggregator(store, nil, nil)
	second, err := cacheOnly.Search(context.Background(), "greek yogurt", 1)
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	assert.Equal(t, first.Results[0].DedupKey(), second.Results[0].DedupKey())
}

func TestSearch_MemoShortCircuits(t *testing.T) {
	adapter := &fakeAdapter{name: "a", items: []domain.FoodItem{yogurtItem(domain.SourceUSDA, "170567")}}
	agg := newTestAggregator(newFakeStore(), []domain.SourceAdapter{adapter}, memcache.New(time.Minute))

	_, err := agg.Search(context.Background(), "yogurt", 10)
	require.NoError(t, err)
	_, err = agg.Search(context.Background(), "Yogurt", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, adapter.searchCalls, "memoized response must skip the fan-out")
}

func TestSearchBarcode_CacheHitSkipsAdapters(t *testing.T) {
	item := yogurtItem(domain.SourceNutritionix, "greek_yogurt")
	item.Barcode = strPtr("00894700010045")
	store := newFakeStore(item)
	adapter := &fakeAdapter{name: "a"}
	agg := newTestAggregator(store, []domain.SourceAdapter{adapter}, nil)

	found, err := agg.SearchBarcode(context.Background(), "00894700010045")

	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Greek Yogurt, Plain, Nonfat", found.FoodName)
	assert.Equal(t, 0, adapter.barcodeCalls)
}

func TestSearchBarcode_FirstHitWinsAndPersists(t *testing.T) {
	hit := yogurtItem(domain.SourceNutritionix, "greek_yogurt")
	hit.Barcode = strPtr("00894700010045")

	missing := &fakeAdapter{name: "miss"}
	matching := &fakeAdapter{name: "hit", barcodeItem: &hit}
	late := &fakeAdapter{name: "late", barcodeItem: &hit}
	store := newFakeStore()
	agg := newTestAggregator(store, []domain.SourceAdapter{missing, matching, late}, nil)

	found, err := agg.SearchBarcode(context.Background(), "00894700010045")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 0, late.barcodeCalls, "lookup stops at the first hit")
	assert.Len(t, store.items, 1)

	// Second identical call is served from the cache.
	_, err = agg.SearchBarcode(context.Background(), "00894700010045")
	require.NoError(t, err)
	assert.Equal(t, 1, matching.barcodeCalls)
}

func TestSearchBarcode_AdapterErrorSkipped(t *testing.T) {
	hit := yogurtItem(domain.SourceNutritionix, "greek_yogurt")
	hit.Barcode = strPtr("00894700010045")

	failing := &fakeAdapter{name: "down", err: errors.New("timeout")}
	working := &fakeAdapter{name: "up", barcodeItem: &hit}
	agg := newTestAggregator(newFakeStore(), []domain.SourceAdapter{failing, working}, nil)

	found, err := agg.SearchBarcode(context.Background(), "00894700010045")

	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestSearchBarcode_AllMiss(t *testing.T) {
	agg := newTestAggregator(newFakeStore(), []domain.SourceAdapter{&fakeAdapter{name: "a"}}, nil)

	found, err := agg.SearchBarcode(context.Background(), "0000000000000")

	assert.Nil(t, found)
	assert.ErrorIs(t, err, domain.ErrFoodNotFound)
}

func TestSearchBarcode_EmptyBarcode(t *testing.T) {
	agg := newTestAggregator(newFakeStore(), nil, nil)

	found, err := agg.SearchBarcode(context.Background(), "  ")

	assert.Nil(t, found)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestAddCustomFood(t *testing.T) {
	store := newFakeStore()
	agg := newTestAggregator(store, nil, nil)

	item, err := agg.AddCustomFood(context.Background(), &domain.CustomFoodRequest{
		FoodName: "My Smoothie",
		Calories: f64Ptr(250),
		ProteinG: 12,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SourceCustom, item.Source)
	assert.Nil(t, item.ExternalID)
	assert.Equal(t, 250.0, item.Calories)
	assert.Equal(t, 1.0, item.ServingQty)
	assert.Equal(t, "serving", item.ServingUnit)
	assert.NotZero(t, item.ID)
	assert.Len(t, store.items, 1)
}

func TestAddCustomFood_Validation(t *testing.T) {
	agg := newTestAggregator(newFakeStore(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *domain.CustomFoodRequest
	}{
		{"nil request", nil},
		{"missing name", &domain.CustomFoodRequest{Calories: f64Ptr(100)}},
		{"missing calories", &domain.CustomFoodRequest{FoodName: "My Smoothie"}},
		{"negative calories", &domain.CustomFoodRequest{FoodName: "My Smoothie", Calories: f64Ptr(-1)}},
		{"negative protein", &domain.CustomFoodRequest{FoodName: "My Smoothie", Calories: f64Ptr(100), ProteinG: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := agg.AddCustomFood(ctx, tt.req)
			assert.Nil(t, item)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}
