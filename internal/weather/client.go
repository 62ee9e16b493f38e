// Package weather fetches a live weather snapshot for the capture
// coordinates. Failures here are always soft: the record simply goes out
// without weather.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"cloudcollector/internal/models"
)

const defaultAmapBase = "https://restapi.amap.com"

// AdcodeResolver maps coordinates to the administrative area code the
// weather API is keyed by. The AMAP geocoder implements it.
type AdcodeResolver interface {
	Adcode(ctx context.Context, lat, lon float64) (string, error)
}

// Client queries AMAP's live weather endpoint.
type Client struct {
	key      string
	baseURL  string
	resolver AdcodeResolver
	httpc    *http.Client
	log      *zap.Logger
}

func NewClient(key string, resolver AdcodeResolver, log *zap.Logger) *Client {
	return &Client{
		key:      key,
		baseURL:  defaultAmapBase,
		resolver: resolver,
		httpc:    &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// SetBaseURL points the client at a different host. Used by tests.
func (c *Client) SetBaseURL(base string) { c.baseURL = base }

type liveWeatherResponse struct {
	Status string `json:"status"`
	Info   string `json:"info"`
	Lives  []struct {
		Weather     string `json:"weather"`
		Temperature string `json:"temperature"`
	} `json:"lives"`
}

// Current returns the live weather near the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	adcode, err := c.resolver.Adcode(ctx, lat, lon)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("resolve adcode: %w", err)
	}

	q := url.Values{}
	q.Set("key", c.key)
	q.Set("city", adcode)
	q.Set("extensions", "base")
	endpoint := fmt.Sprintf("%s/v3/weather/weatherInfo?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("build weather request: %w", err)
	}
	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("call weather api: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return models.WeatherSnapshot{}, fmt.Errorf("weather api returned HTTP %d", httpResp.StatusCode)
	}
	var parsed liveWeatherResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("decode weather response: %w", err)
	}
	if parsed.Status != "1" || len(parsed.Lives) == 0 {
		return models.WeatherSnapshot{}, fmt.Errorf("weather api rejected request: %s", parsed.Info)
	}

	live := parsed.Lives[0]
	temp, err := strconv.ParseFloat(live.Temperature, 64)
	if err != nil {
		c.log.Debug("unparseable temperature in weather response", zap.String("raw", live.Temperature))
	}
	return models.WeatherSnapshot{
		Main:        live.Weather,
		Description: live.Weather,
		TempC:       temp,
	}, nil
}
