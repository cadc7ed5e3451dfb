package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fittrack/backend/internal/domain"
)

// Client talks to the Open Food Facts API. The database is open and needs no
// credentials, but a descriptive User-Agent is required by its terms of use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	log         zerolog.Logger
}

// NewClient creates a new Open Food Facts client.
func NewClient(baseURL, userAgent string, log zerolog.Logger) *Client {
	if userAgent == "" {
		userAgent = "FitTrack - Nutrition Tracker - Version 1.0"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		// Open Food Facts asks search traffic to stay under 10 req/min
		rateLimiter: rate.NewLimiter(rate.Limit(10.0/60.0), 5),
		userAgent:   userAgent,
		log:         log.With().Str("adapter", domain.SourceOpenFoodFacts).Logger(),
	}
}

// Name identifies the provider in normalized items and logs.
func (c *Client) Name() string {
	return domain.SourceOpenFoodFacts
}

// Search queries the legacy search endpoint, which is still the only one
// supporting free-text search with a field mask.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.FoodItem, error) {
	params := url.Values{}
	params.Add("search_terms", query)
	params.Add("page_size", strconv.Itoa(limit))
	params.Add("json", "1")
	params.Add("fields", "code,product_name,brands,nutriments,serving_quantity,serving_quantity_unit")

	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", domain.ErrAdapterFailure, err)
	}

	items := make([]domain.FoodItem, 0, len(resp.Products))
	for i := range resp.Products {
		item := mapProduct(&resp.Products[i])
		if item == nil {
			c.log.Warn().Str("code", resp.Products[i].Code).Msg("dropping unparseable product")
			continue
		}
		items = append(items, *item)
	}

	c.log.Debug().Str("query", query).Int("results", len(items)).Msg("search complete")
	return items, nil
}

// SearchBarcode fetches a product by barcode. Open Food Facts product ids
// are the barcodes themselves.
func (c *Client) SearchBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding product response: %v", domain.ErrAdapterFailure, err)
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil, nil
	}

	return mapProduct(resp.Product), nil
}

// get executes a GET request; 404 is reported as (nil, nil).
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAdapterFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrAdapterFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

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

const maxBodyBytes = 1 << 20

type searchResponse struct {
	Products []product `json:"products"`
}

type productResponse struct {
	Status  int      `json:"status"`
	Product *product `json:"product"`
}

type product struct {
	Code                string     `json:"code"`
	ProductName         string     `json:"product_name"`
	Brands              string     `json:"brands"`
	ServingQuantity     jsonNumber `json:"serving_quantity"`
	ServingQuantityUnit string     `json:"serving_quantity_unit"`
	Nutriments          nutriments `json:"nutriments"`
}

// nutriments holds the per-100g values we keep. Sodium arrives in grams.
type nutriments struct {
	EnergyKcal100g float64 `json:"energy-kcal_100g"`
	Proteins100g   float64 `json:"proteins_100g"`
	Carbs100g      float64 `json:"carbohydrates_100g"`
	Fat100g        float64 `json:"fat_100g"`
	Fiber100g      float64 `json:"fiber_100g"`
	Sugars100g     float64 `json:"sugars_100g"`
	Sodium100g     float64 `json:"sodium_100g"`
}

// jsonNumber tolerates serving_quantity arriving as either a number or a
// quoted string, both of which occur in the wild.
type jsonNumber float64

func (n *jsonNumber) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = jsonNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = jsonNumber(v)
	return nil
}
