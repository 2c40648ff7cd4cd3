package coinmarketcap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	httpClient "github.com/cyphera/cyphera-agent/internal/client/http"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultBaseURL  = "https://pro-api.coinmarketcap.com"
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = 60 * time.Second
	quotesPath      = "/v2/cryptocurrency/quotes/latest"
)

// Client fetches USD reference prices from the CoinMarketCap API.
type Client struct {
	apiKey     string
	httpClient *httpClient.HTTPClient
	cacheTTL   time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price     float64
	fetchedAt time.Time
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient.NewHTTPClient(
			httpClient.WithBaseURL(baseURL),
			httpClient.WithTimeout(defaultTimeout),
			httpClient.WithRetryConfig(nil),
		)
	}
}

// WithCacheTTL sets how long a fetched price is reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// NewClient creates a new CoinMarketCap API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey: apiKey,
		httpClient: httpClient.NewHTTPClient(
			httpClient.WithBaseURL(defaultBaseURL),
			httpClient.WithTimeout(defaultTimeout),
		),
		cacheTTL: defaultCacheTTL,
		now:      time.Now,
		cache:    make(map[string]cachedPrice),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type CmcQuote struct {
	Price       float64 `json:"price"`
	LastUpdated string  `json:"last_updated"`
}

type CmcTokenData struct {
	ID     int                 `json:"id"`
	Name   string              `json:"name"`
	Symbol string              `json:"symbol"`
	Quote  map[string]CmcQuote `json:"quote"`
}

type CmcStatus struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// V2 uses an array even for a single symbol query
type CmcAPIResponse struct {
	Status CmcStatus                 `json:"status"`
	Data   map[string][]CmcTokenData `json:"data"`
}

// Error represents an API error returned by CoinMarketCap.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("CoinMarketCap API error %d: %s", e.Code, e.Message)
}

// GetUSDPrices returns the latest USD price per symbol. Symbols the API does
// not know are absent from the result.
func (c *Client) GetUSDPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols cannot be empty")
	}

	prices := make(map[string]float64, len(symbols))
	var missing []string
	now := c.now()

	c.mu.Lock()
	for _, symbol := range symbols {
		key := strings.ToUpper(symbol)
		if cached, ok := c.cache[key]; ok && c.cacheTTL > 0 && now.Sub(cached.fetchedAt) < c.cacheTTL {
			prices[symbol] = cached.price
			continue
		}
		missing = append(missing, key)
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return prices, nil
	}
	sort.Strings(missing)

	var apiResponse CmcAPIResponse
	err := c.httpClient.GetJSON(ctx, quotesPath, &apiResponse,
		httpClient.WithQueryParam("symbol", strings.Join(missing, ",")),
		httpClient.WithQueryParam("convert", "USD"),
		httpClient.WithHeader("X-CMC_PRO_API_KEY", c.apiKey),
	)
	if err != nil {
		logger.Log.Warn("CoinMarketCap API request failed", zap.Strings("symbols", missing), zap.Error(err))
		return nil, fmt.Errorf("failed to get latest quotes from CoinMarketCap: %w", err)
	}
	if apiResponse.Status.ErrorCode != 0 {
		return nil, &Error{Code: apiResponse.Status.ErrorCode, Message: apiResponse.Status.ErrorMessage}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, symbol := range symbols {
		key := strings.ToUpper(symbol)
		entries := apiResponse.Data[key]
		if len(entries) == 0 {
			continue
		}
		usd, ok := entries[0].Quote["USD"]
		if !ok || usd.Price <= 0 {
			continue
		}
		prices[symbol] = usd.Price
		c.cache[key] = cachedPrice{price: usd.Price, fetchedAt: now}
	}
	return prices, nil
}
