package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittrack/backend/internal/domain"
)

const searchPayload = `{
	"products": [
		{
			"code": "00894700010045",
			"product_name": "Non-Fat Greek Yogurt",
			"brands": "Chobani",
			"serving_quantity": "150",
			"serving_quantity_unit": "g",
			"nutriments": {
				"energy-kcal_100g": 59,
				"proteins_100g": 10.2,
				"carbohydrates_100g": 3.6,
				"fat_100g": 0.4,
				"sugars_100g": 3.2,
				"sodium_100g": 0.036
			}
		},
		{
			"code": "",
			"product_name": "Nameless artifact"
		}
	]
}`

func TestSearch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		assert.Equal(t, "greek yogurt", r.URL.Query().Get("search_terms"))
		assert.Equal(t, "5", r.URL.Query().Get("page_size"))
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, "Test UA", zerolog.Nop())
	items, err := client.Search(context.Background(), "greek yogurt", 5)

	require.NoError(t, err)
	assert.Equal(t, "Test UA", gotUA)
	require.Len(t, items, 1, "products without a code are dropped")

	item := items[0]
	assert.Equal(t, domain.SourceOpenFoodFacts, item.Source)
	require.NotNil(t, item.ExternalID)
	assert.Equal(t, "00894700010045", *item.ExternalID)
	require.NotNil(t, item.Barcode)
	assert.Equal(t, "00894700010045", *item.Barcode, "code doubles as the barcode")
	assert.Equal(t, "Non-Fat Greek Yogurt", item.FoodName)
	require.NotNil(t, item.BrandName)
	assert.Equal(t, "Chobani", *item.BrandName)
	assert.Equal(t, 59.0, item.Calories)
	assert.InDelta(t, 36.0, item.SodiumMg, 0.001, "sodium converts from grams to milligrams")
	require.NotNil(t, item.ServingWeightG)
	assert.Equal(t, 150.0, *item.ServingWeightG, "string serving_quantity parses")
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.Nop())
	items, err := client.Search(context.Background(), "greek yogurt", 5)

	assert.Nil(t, items)
	assert.ErrorIs(t, err, domain.ErrAdapterFailure)
}

func TestSearchBarcode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003.json", r.URL.Path)
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"code": "3017620422003",
				"product_name": "Nutella",
				"brands": "Ferrero",
				"serving_quantity": 15,
				"serving_quantity_unit": "g",
				"nutriments": {
					"energy-kcal_100g": 539,
					"proteins_100g": 6.3,
					"carbohydrates_100g": 57.5,
					"fat_100g": 30.9,
					"sugars_100g": 56.3,
					"sodium_100g": 0.0428
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.Nop())
	item, err := client.SearchBarcode(context.Background(), "3017620422003")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Nutella", item.FoodName)
	require.NotNil(t, item.Barcode)
	assert.Equal(t, "3017620422003", *item.Barcode)
	assert.Equal(t, 539.0, item.Calories)
	require.NotNil(t, item.ServingWeightG)
	assert.Equal(t, 15.0, *item.ServingWeightG)
}

func TestSearchBarcode_UnknownProduct(t *testing.T) {
	tests := []struct {
		name string
		fn   http.HandlerFunc
	}{
		{"status zero body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
		}},
		{"http 404", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.fn)
			defer server.Close()

			client := NewClient(server.URL, "", zerolog.Nop())
			item, err := client.SearchBarcode(context.Background(), "0000000000000")

			assert.Nil(t, item)
			assert.NoError(t, err)
		})
	}
}

func TestJSONNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain number", `12.5`, 12.5},
		{"quoted number", `"12.5"`, 12.5},
		{"empty string", `""`, 0},
		{"garbage string", `"a pinch"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n jsonNumber
			require.NoError(t, n.UnmarshalJSON([]byte(tt.raw)))
			assert.Equal(t, tt.want, float64(n))
		})
	}
}
