package nutritionix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fittrack/backend/internal/domain"
)

// Client talks to the Nutritionix track API.
type Client struct {
	httpClient  *http.Client
	appID       string
	appKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	log         zerolog.Logger
}

// NewClient creates a new Nutritionix API client.
func NewClient(appID, appKey, baseURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		appID:       appID,
		appKey:      appKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(2), 5),
		log:         log.With().Str("adapter", domain.SourceNutritionix).Logger(),
	}
}

// Name identifies the provider in normalized items and logs.
func (c *Client) Name() string {
	return domain.SourceNutritionix
}

// Search resolves a free-text query through the natural language endpoint.
// The endpoint has no page size parameter, so results are truncated
// client-side. Missing credentials degrade to empty results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.FoodItem, error) {
	if c.appID == "" || c.appKey == "" {
		c.log.Debug().Msg("no credentials configured, skipping search")
		return nil, nil
	}

	payload := map[string]any{
		"query":          query,
		"num_servings":   1,
		"line_delimited": false,
	}
	body, err := c.post(ctx, fmt.Sprintf("%s/natural/nutrients", c.baseURL), payload)
	if err != nil {
		return nil, err
	}

	var resp foodsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", domain.ErrAdapterFailure, err)
	}

	items := c.mapAll(resp.Foods)
	if len(items) > limit {
		items = items[:limit]
	}

	c.log.Debug().Str("query", query).Int("results", len(items)).Msg("search complete")
	return items, nil
}

// SearchBarcode looks up a single item by UPC.
func (c *Client) SearchBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	if c.appID == "" || c.appKey == "" {
		c.log.Debug().Msg("no credentials configured, skipping barcode lookup")
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s/search/item?upc=%s", c.baseURL, url.QueryEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrAdapterFailure, err)
	}
	c.setHeaders(req)

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		// Nutritionix answers 404 for unknown UPCs
		return nil, nil
	}

	var parsed foodsResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding barcode response: %v", domain.ErrAdapterFailure, err)
	}
	items := c.mapAll(parsed.Foods)
	if len(items) == 0 {
		return nil, nil
	}

	item := items[0]
	if item.Barcode == nil {
		b := barcode
		item.Barcode = &b
	}
	return &item, nil
}

func (c *Client) post(ctx context.Context, reqURL string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", domain.ErrAdapterFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrAdapterFailure, err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []byte(`{"foods":[]}`), nil
	}
	return body, nil
}

// do executes the request. A 404 is reported as (nil, nil) so callers can
// treat it as a plain miss rather than a provider failure.
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAdapterFailure, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: status %d", domain.ErrAdapterFailure, resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.appKey)
	req.Header.Set("User-Agent", "FitTrack/1.0")
}

func (c *Client) mapAll(foods []foodRecord) []domain.FoodItem {
	items := make([]domain.FoodItem, 0, len(foods))
	for i := range foods {
		item := mapFood(&foods[i])
		if item == nil {
			c.log.Warn().Msg("dropping unparseable food record")
			continue
		}
		items = append(items, *item)
	}
	return items
}

const maxBodyBytes = 1 << 20

// foodsResponse mirrors the track API payload shared by the natural
// nutrients and UPC endpoints.
type foodsResponse struct {
	Foods []foodRecord `json:"foods"`
}

type foodRecord struct {
	FoodName            string   `json:"food_name"`
	BrandName           *string  `json:"brand_name"`
	ServingQty          float64  `json:"serving_qty"`
	ServingUnit         string   `json:"serving_unit"`
	ServingWeightGrams  *float64 `json:"serving_weight_grams"`
	NfCalories          float64  `json:"nf_calories"`
	NfProtein           float64  `json:"nf_protein"`
	NfTotalCarbohydrate float64  `json:"nf_total_carbohydrate"`
	NfTotalFat          float64  `json:"nf_total_fat"`
	NfDietaryFiber      float64  `json:"nf_dietary_fiber"`
	NfSugars            float64  `json:"nf_sugars"`
	NfSodium            float64  `json:"nf_sodium"`
	Upc                 *string  `json:"upc"`
	NixItemID           *string  `json:"nix_item_id"`
}
