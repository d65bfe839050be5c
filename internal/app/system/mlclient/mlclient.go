// Package mlclient talks to the external classification collaborators: the
// priority service, the text deduplication service, and the image
// deduplication service.
//
// These are opaque request/response services. Every method returns
// apperr.CollaboratorUnavailable on transport or non-2xx failures so callers
// can degrade to their documented fallbacks; nothing in this package is ever
// surfaced to an end user directly.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Config holds the collaborator base URLs. An empty URL disables the
// corresponding service (its methods then fail as unavailable, triggering
// fallbacks).
type Config struct {
	PriorityURL   string
	TextDedupURL  string
	ImageDedupURL string
}

// Client is a thin JSON client over the three classifier services.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// New builds a classifier client. A nil httpClient gets a 10 s default.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient, log: logger}
}

// PriorityResult is the priority service's classification of a report.
type PriorityResult struct {
	IncidentID string  `json:"incident_id"`
	Priority   string  `json:"priority"` // HIGH | MEDIUM | LOW
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Method     string  `json:"method"`
}

type priorityRequest struct {
	IncidentID             string `json:"incident_id"`
	IncidentType           string `json:"incident_type"`
	Description            string `json:"description"`
	ImageAttached          bool   `json:"image_attached"`
	TimeSinceReportMinutes int    `json:"time_since_report_minutes"`
}

// ClassifyPriority asks the priority service for a severity label.
func (c *Client) ClassifyPriority(ctx context.Context, incidentID, category, description string, imageAttached bool) (*PriorityResult, error) {
	if c.cfg.PriorityURL == "" {
		return nil, apperr.CollaboratorUnavailable("priority service not configured")
	}
	req := priorityRequest{
		IncidentID:    incidentID,
		IncidentType:  category,
		Description:   description,
		ImageAttached: imageAttached,
	}
	var out PriorityResult
	if err := c.post(ctx, c.cfg.PriorityURL+"/priority/classify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type textDedupRequest struct {
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type textDedupResponse struct {
	Duplicate bool `json:"duplicate"`
}

// CheckTextDuplicate asks the text dedup service whether the description
// matches a recently reported incident near the same location.
func (c *Client) CheckTextDuplicate(ctx context.Context, text string, lat, lng float64) (bool, error) {
	if c.cfg.TextDedupURL == "" {
		return false, apperr.CollaboratorUnavailable("text dedup service not configured")
	}
	req := textDedupRequest{
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Latitude:  &lat,
		Longitude: &lng,
	}
	var out textDedupResponse
	if err := c.post(ctx, c.cfg.TextDedupURL+"/incident", req, &out); err != nil {
		return false, err
	}
	return out.Duplicate, nil
}

// ImageRef describes one image for the image dedup service.
type ImageRef struct {
	ImageID    string  `json:"image_id"`
	IncidentID string  `json:"incident_id,omitempty"`
	ImageURL   string  `json:"image_url"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Timestamp  string  `json:"timestamp"`
}

// ImageMatch is the service's verdict on one candidate image.
type ImageMatch struct {
	ImageID         string  `json:"image_id"`
	IncidentID      string  `json:"incident_id"`
	SimilarityScore float64 `json:"similarity_score"`
	Decision        string  `json:"decision"`
}

// DecisionSameIncident is the decision string marking a duplicate image.
const DecisionSameIncident = "same_incident_image"

type imageDedupRequest struct {
	NewImage        ImageRef   `json:"new_image"`
	CandidateImages []ImageRef `json:"candidate_images"`
}

type imageDedupResponse struct {
	ImageMatches []ImageMatch `json:"image_matches"`
}

// CheckImageDuplicate compares a new image against candidate images and
// returns the per-candidate verdicts.
func (c *Client) CheckImageDuplicate(ctx context.Context, newImage ImageRef, candidates []ImageRef) ([]ImageMatch, error) {
	if c.cfg.ImageDedupURL == "" {
		return nil, apperr.CollaboratorUnavailable("image dedup service not configured")
	}
	req := imageDedupRequest{NewImage: newImage, CandidateImages: candidates}
	var out imageDedupResponse
	if err := c.post(ctx, c.cfg.ImageDedupURL+"/deduplicate-image", req, &out); err != nil {
		return nil, err
	}
	return out.ImageMatches, nil
}

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperr.Internal(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("classifier request failed", zap.String("url", url), zap.Error(err))
		return apperr.CollaboratorUnavailable("classifier unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("classifier returned error status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return apperr.CollaboratorUnavailable("classifier returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.CollaboratorUnavailable("classifier response malformed: %v", err)
	}
	return nil
}
