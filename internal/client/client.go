// Package client provides a small HTTP client for the profile sync API. It
// backs the profilectl tool and is usable as a library by other Go callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/profilekeeper/internal/models"
)

// Client talks to one profile sync server.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// New constructs a Client for the server at baseURL. The API key goes into
// the X-API-Key header of every request.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// GetProfile fetches the requested components of one profile. An empty
// components list fetches all of them.
func (c *Client) GetProfile(ctx context.Context, key models.ProfileKey, components []string) (*models.ProfileResponse, error) {
	q := url.Values{}
	q.Set("platformMembershipId", key.PlatformMembershipID)
	q.Set("destinyVersion", strconv.Itoa(int(key.DestinyVersion)))
	if len(components) > 0 {
		q.Set("components", strings.Join(components, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/profile?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp models.ProfileResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &resp, nil
}

// ApplyUpdates posts an update batch and returns one result per update,
// positionally aligned with the input.
func (c *Client) ApplyUpdates(ctx context.Context, key models.ProfileKey, updates []models.ProfileUpdate) ([]models.UpdateResult, error) {
	payload, err := json.Marshal(models.UpdateRequest{
		PlatformMembershipID: key.PlatformMembershipID,
		DestinyVersion:       key.DestinyVersion,
		Updates:              updates,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/profile", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp models.UpdateResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("apply updates: %w", err)
	}
	return resp.Results, nil
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
