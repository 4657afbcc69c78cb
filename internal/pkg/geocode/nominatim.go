package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client resolves coordinates to a human-readable place label through a
// Nominatim-compatible reverse geocoding endpoint. Lookups are best-effort:
// every failure path yields an empty label, never an error.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		State        string `json:"state"`
	} `json:"address"`
}

// Reverse returns "city, state" when both resolve, falling back through
// city-level aliases, bare state, and the full display name.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) string {
	endpoint := fmt.Sprintf("%s/reverse?%s", c.baseURL, url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lng, 'f', -1, 64)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Error("Failed to build reverse geocode request", "error", err)
		return ""
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Reverse geocode request failed", "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Reverse geocode returned non-OK status", "status", resp.StatusCode)
		return ""
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Warn("Failed to decode reverse geocode response", "error", err)
		return ""
	}

	city := firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Village, body.Address.Municipality)
	state := body.Address.State

	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case state != "":
		return state
	}
	return body.DisplayName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
