package github

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

	"github.com/chinjsg/csv-extractor/internal/config"
	"github.com/chinjsg/csv-extractor/internal/domain"
)

var (
	// ErrTimeout reports a request that did not complete within its timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrTooManyRedirects reports a request that exceeded the redirect limit.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Client lists the daily report directory through the GitHub contents API
// and downloads individual reports from the raw content host.
type Client struct {
	token         string
	listingClient *http.Client
	fetchClient   *http.Client
	listingURL    string
	rawBaseURL    string
	logger        *slog.Logger
}

// NewClient creates a client for the configured repository paths.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	redirects := limitRedirects(cfg.MaxRedirects)
	return &Client{
		token: cfg.GitHubToken,
		listingClient: &http.Client{
			Timeout:       cfg.ListingTimeout,
			CheckRedirect: redirects,
		},
		fetchClient: &http.Client{
			Timeout:       cfg.FetchTimeout,
			CheckRedirect: redirects,
		},
		listingURL: cfg.ListingURL,
		rawBaseURL: cfg.RawBaseURL,
		logger:     logger,
	}
}

// ListDirectory returns the entries of the daily report directory.
func (c *Client) ListDirectory(ctx context.Context) ([]domain.DirEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.listingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", classify(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("github API error: status %d: %s", resp.StatusCode, body)
	}

	var entries []domain.DirEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	c.logger.Debug("directory listed", "entries", len(entries))
	return entries, nil
}

// Fetch downloads the raw content of one daily report.
func (c *Client) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := strings.TrimSuffix(c.rawBaseURL, "/") + "/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, classify(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, classify(err))
	}
	return body, nil
}

func limitRedirects(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, len(via))
		}
		return nil
	}
}

// classify maps transport failures onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	if errors.Is(err, ErrTooManyRedirects) {
		return err
	}
	var ne interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
