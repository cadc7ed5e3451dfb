package usda

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

// Client talks to the USDA FoodData Central API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	log         zerolog.Logger
}

// NewClient creates a new USDA API client.
func NewClient(apiKey, baseURL string, log zerolog.Logger) *Client {
	// USDA allows 1000 requests per hour: 1000/3600 ≈ 0.278 requests/sec
	limiter := rate.NewLimiter(rate.Limit(0.278), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
		log:         log.With().Str("adapter", domain.SourceUSDA).Logger(),
	}
}

// Name identifies the provider in normalized items and logs.
func (c *Client) Name() string {
	return domain.SourceUSDA
}

// Search queries the FoodData Central search endpoint and maps the results
// into normalized items. Without an API key it degrades to empty results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.FoodItem, error) {
	if c.apiKey == "" {
		c.log.Debug().Msg("no API key configured, skipping search")
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Foundation,SR Legacy,Branded")
	params.Add("pageSize", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", domain.ErrAdapterFailure, err)
	}

	items := make([]domain.FoodItem, 0, len(searchResp.Foods))
	for i := range searchResp.Foods {
		item := mapFood(&searchResp.Foods[i])
		if item == nil {
			c.log.Warn().Int64("fdc_id", searchResp.Foods[i].FdcID).Msg("dropping unparseable food record")
			continue
		}
		items = append(items, *item)
	}

	c.log.Debug().Str("query", query).Int("results", len(items)).Msg("search complete")
	return items, nil
}

// SearchBarcode always reports a miss: FoodData Central has no barcode
// lookup endpoint.
func (c *Client) SearchBarcode(ctx context.Context, barcode string) (*domain.FoodItem, error) {
	return nil, nil
}

// get executes a GET request with up to three attempts, backing off on
// transient failures. 4xx responses other than 429 are not retried.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrAdapterFailure, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: creating request: %v", domain.ErrAdapterFailure, err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrAdapterFailure, err)
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("request failed")
			sleepBackoff(ctx, attempt)
			continue
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrAdapterFailure, resp.StatusCode)
			c.log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("retryable API error")
			sleepBackoff(ctx, attempt)
		default:
			return nil, fmt.Errorf("%w: status %d", domain.ErrAdapterFailure, resp.StatusCode)
		}
	}
	return nil, lastErr
}

const (
	maxAttempts  = 3
	maxBodyBytes = 1 << 20
	userAgent    = "FitTrack/1.0"
)

// sleepBackoff waits 500ms, 1s, 2s between attempts, honoring cancellation.
func sleepBackoff(ctx context.Context, attempt int) {
	d := time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// searchResponse mirrors the FoodData Central search payload.
type searchResponse struct {
	Foods     []food `json:"foods"`
	TotalHits int    `json:"totalHits"`
}

type food struct {
	FdcID       int64      `json:"fdcId"`
	Description string     `json:"description"`
	DataType    string     `json:"dataType"`
	BrandOwner  string     `json:"brandOwner"`
	GtinUpc     string     `json:"gtinUpc"`
	Nutrients   []nutrient `json:"foodNutrients"`
}

type nutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
