// Package travel queries the LocationIQ matrix API for driving durations
// from an incident location to candidate responders.
//
// The service is optional: with no API key configured, or on any transport
// or API failure, Durations returns apperr.CollaboratorUnavailable and the
// forwarding protocol falls back to straight-line proximity.
package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultBaseURL is the LocationIQ matrix endpoint region used unless
// overridden in config.
const DefaultBaseURL = "https://us1.locationiq.com"

// Client calls the travel-time matrix service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// New builds a travel-time client. An empty apiKey yields a client whose
// Durations always reports the collaborator unavailable. A nil httpClient
// gets a 10 s default.
func New(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient, log: logger}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

type matrixResponse struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Durations [][]float64 `json:"durations"`
}

// Durations returns the driving duration in seconds from source to each
// destination, in destination order.
func (c *Client) Durations(ctx context.Context, source models.GeoPoint, destinations []models.GeoPoint) ([]float64, error) {
	if !c.Configured() {
		return nil, apperr.CollaboratorUnavailable("travel-time service not configured")
	}
	if len(destinations) == 0 {
		return nil, nil
	}

	coords := make([]string, 0, len(destinations)+1)
	coords = append(coords, fmt.Sprintf("%f,%f", source.Lng(), source.Lat()))
	destIdx := make([]string, 0, len(destinations))
	for i, d := range destinations {
		coords = append(coords, fmt.Sprintf("%f,%f", d.Lng(), d.Lat()))
		destIdx = append(destIdx, fmt.Sprintf("%d", i+1))
	}

	url := fmt.Sprintf("%s/v1/matrix/driving/%s?sources=0&destinations=%s&key=%s",
		c.baseURL, strings.Join(coords, ";"), strings.Join(destIdx, ";"), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("travel-time request failed", zap.Error(err))
		return nil, apperr.CollaboratorUnavailable("travel-time service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("travel-time service returned error status", zap.Int("status", resp.StatusCode))
		return nil, apperr.CollaboratorUnavailable("travel-time service returned status %d", resp.StatusCode)
	}

	var out matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.CollaboratorUnavailable("travel-time response malformed: %v", err)
	}
	// LocationIQ signals API-level errors with a code field.
	if out.Code != "" && out.Code != "Ok" {
		c.log.Warn("travel-time API error",
			zap.String("code", out.Code), zap.String("message", out.Message))
		return nil, apperr.CollaboratorUnavailable("travel-time API error: %s", out.Code)
	}
	if len(out.Durations) == 0 || len(out.Durations[0]) != len(destinations) {
		return nil, apperr.CollaboratorUnavailable("travel-time response incomplete")
	}
	return out.Durations[0], nil
}

// MinIndex returns the index of the smallest duration. The first minimum
// wins, matching the candidate list's nearest-first ordering.
func MinIndex(durations []float64) int {
	min := 0
	for i, d := range durations {
		if d < durations[min] {
			min = i
		}
	}
	return min
}
