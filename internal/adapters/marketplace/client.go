// Package marketplace implements the validation pipeline phases against the
// upstream marketplace HTTP API.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resellkit/ops-api/internal/domain/model"
)

const (
	defaultTimeout       = 30 * time.Second
	maxResponseBodyBytes = 64 * 1024
)

// ClientOptions configures the marketplace API client.
type ClientOptions struct {
	// BaseURL is the marketplace API root, e.g. "https://api.marketplace.example". Required.
	BaseURL string
	// ServiceKey authenticates the platform's own API calls (listing reads,
	// integrity checks). The per-session token only covers the token-check
	// and destructive phases.
	ServiceKey string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the marketplace API. It implements the TokenChecker,
// ItemAnalyzer, DestructiveTester and IntegrityChecker ports.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
	logger     *slog.Logger
}

// NewClient constructs a marketplace API client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "marketplace_client")
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		serviceKey: opts.ServiceKey,
		http:       hc,
		logger:     logger,
	}, nil
}

// CheckToken verifies the caller's marketplace credential is still accepted
// upstream.
func (c *Client) CheckToken(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/token/verify", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New("marketplace rejected the token")
	default:
		return fmt.Errorf("unexpected status %d from token verify", resp.StatusCode)
	}
}

// listing is the marketplace's view of one item.
type listing struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CategoryPath string `json:"category_path"`
	Active       bool   `json:"active"`
}

// AnalyzeItem cross-checks one local item against its marketplace listing.
// A missing or transport-level failure is an error; a present-but-divergent
// listing is a failed result with the divergences listed as issues.
func (c *Client) AnalyzeItem(ctx context.Context, item model.ValidationItem) (*model.ItemResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/v1/listings/"+url.PathEscape(item.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", item.ID, err)
	}
	defer drainAndClose(resp.Body)

	result := &model.ItemResult{
		ItemID: item.ID,
		Name:   item.Name,
	}

	if resp.StatusCode == http.StatusNotFound {
		result.Issues = append(result.Issues, "listing not found on marketplace")
		result.Duration = time.Since(start).Seconds()
		return result, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching listing %s", resp.StatusCode, item.ID)
	}

	var l listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", item.ID, err)
	}

	if !l.Active {
		result.Issues = append(result.Issues, "listing is inactive")
	}
	if item.Name != "" && l.Title != item.Name {
		result.Issues = append(result.Issues, fmt.Sprintf("title mismatch: local %q, marketplace %q", item.Name, l.Title))
	}
	if item.CategoryPath != "" && l.CategoryPath != item.CategoryPath {
		result.Issues = append(
			result.Issues,
			fmt.Sprintf("category mismatch: local %q, marketplace %q", item.CategoryPath, l.CategoryPath),
		)
	}

	result.Passed = len(result.Issues) == 0
	result.Duration = time.Since(start).Seconds()
	return result, nil
}

// destructiveProbeBody is the throwaway listing used for the round-trip test.
// The title makes it identifiable if a delete ever fails to land.
const destructiveProbeBody = `{"title":"ops-api destructive probe","category_path":"internal/probe","active":false}`

// RunDestructive exercises write access with a create-then-delete round trip
// against a throwaway listing.
func (c *Client) RunDestructive(ctx context.Context, token string) (*model.DestructiveTestResult, error) {
	result := &model.DestructiveTestResult{Attempted: true}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/v1/listings", strings.NewReader(destructiveProbeBody))
	if err != nil {
		return nil, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create probe listing: %w", err)
	}

	var created listing
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(&created)
	drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		result.Detail = fmt.Sprintf("create denied with status %d", resp.StatusCode)
		return result, nil
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode created probe listing: %w", decodeErr)
	}
	if created.ID == "" {
		result.Detail = "marketplace returned a listing without an id"
		return result, nil
	}

	delReq, err := http.NewRequestWithContext(
		ctx, http.MethodDelete, c.baseURL+"/v1/listings/"+url.PathEscape(created.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("build delete request: %w", err)
	}
	delReq.Header.Set("Authorization", "Bearer "+token)

	delResp, err := c.http.Do(delReq)
	if err != nil {
		return nil, fmt.Errorf("delete probe listing %s: %w", created.ID, err)
	}
	drainAndClose(delResp.Body)

	if delResp.StatusCode != http.StatusOK && delResp.StatusCode != http.StatusNoContent {
		result.Detail = fmt.Sprintf("probe listing %s created but delete returned status %d", created.ID, delResp.StatusCode)
		return result, nil
	}

	result.Passed = true
	result.Detail = "create and delete round trip succeeded"
	return result, nil
}

// CheckIntegrity compares the session's item set against the marketplace's
// inventory index. Items the marketplace does not know about count as
// mismatches.
func (c *Client) CheckIntegrity(
	ctx context.Context,
	items []model.ValidationItem,
	_ []model.ItemResult,
) (*model.IntegrityCheckResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/inventory/ids", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory index: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from inventory index", resp.StatusCode)
	}

	var index struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(&index); err != nil {
		return nil, fmt.Errorf("decode inventory index: %w", err)
	}

	remote := make(map[string]struct{}, len(index.IDs))
	for _, id := range index.IDs {
		remote[id] = struct{}{}
	}

	result := &model.IntegrityCheckResult{Checked: len(items)}
	for _, item := range items {
		if _, ok := remote[item.ID]; !ok {
			result.Mismatches = append(result.Mismatches, item.ID)
		}
	}
	result.Passed = len(result.Mismatches) == 0
	return result, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.serviceKey != "" {
		req.Header.Set("X-Api-Key", c.serviceKey)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBodyBytes))
	_ = body.Close()
}
