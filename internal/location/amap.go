package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultAmapBase = "https://restapi.amap.com"

// AmapGeocoder reverse-geocodes coordinates through the AMAP regeo API.
type AmapGeocoder struct {
	key     string
	baseURL string
	httpc   *http.Client
	log     *zap.Logger
}

func NewAmapGeocoder(key string, log *zap.Logger) *AmapGeocoder {
	return &AmapGeocoder{
		key:     key,
		baseURL: defaultAmapBase,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// SetBaseURL points the client at a different host. Used by tests.
func (g *AmapGeocoder) SetBaseURL(base string) { g.baseURL = base }

// flexString tolerates AMAP's habit of returning "" or [] for absent fields.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	// Empty array form; anything non-string collapses to empty.
	*s = ""
	return nil
}

type regeoResponse struct {
	Status    string `json:"status"`
	Info      string `json:"info"`
	Regeocode struct {
		FormattedAddress flexString `json:"formatted_address"`
		AddressComponent struct {
			Province flexString `json:"province"`
			City     flexString `json:"city"`
			District flexString `json:"district"`
			Country  flexString `json:"country"`
			Adcode   flexString `json:"adcode"`
		} `json:"addressComponent"`
	} `json:"regeocode"`
}

// ReverseGeocode resolves coordinates to an address. Callers treat an error
// as a soft failure and fall through to the next tier.
func (g *AmapGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	resp, err := g.regeo(ctx, lat, lon)
	if err != nil {
		return Place{}, err
	}

	addr := string(resp.Regeocode.FormattedAddress)
	if addr == "" {
		return Place{}, fmt.Errorf("regeo returned no formatted address for %.6f,%.6f", lat, lon)
	}
	city := string(resp.Regeocode.AddressComponent.City)
	if city == "" {
		// Municipalities report the city at the province level.
		city = string(resp.Regeocode.AddressComponent.Province)
	}
	return Place{
		Address: addr,
		City:    city,
		Country: string(resp.Regeocode.AddressComponent.Country),
	}, nil
}

// Adcode returns the administrative area code for coordinates; the weather
// client needs it to key its queries.
func (g *AmapGeocoder) Adcode(ctx context.Context, lat, lon float64) (string, error) {
	resp, err := g.regeo(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	code := string(resp.Regeocode.AddressComponent.Adcode)
	if code == "" {
		return "", fmt.Errorf("regeo returned no adcode for %.6f,%.6f", lat, lon)
	}
	return code, nil
}

func (g *AmapGeocoder) regeo(ctx context.Context, lat, lon float64) (*regeoResponse, error) {
	q := url.Values{}
	q.Set("key", g.key)
	// AMAP expects longitude first.
	q.Set("location", fmt.Sprintf("%.6f,%.6f", lon, lat))
	endpoint := fmt.Sprintf("%s/v3/geocode/regeo?%s", g.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build regeo request: %w", err)
	}
	httpResp, err := g.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call regeo: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("regeo returned HTTP %d", httpResp.StatusCode)
	}
	var parsed regeoResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode regeo response: %w", err)
	}
	if parsed.Status != "1" {
		return nil, fmt.Errorf("regeo rejected request: %s", parsed.Info)
	}
	return &parsed, nil
}
