// Package pos talks to the point-of-sale vendor's revenue endpoint.
package pos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kitchenboard/kitchenboard/internal/shared"
)

const vendorName = "pos"

// MaxWindow is the longest span the vendor accepts in one query.
const MaxWindow = 2 * 24 * time.Hour

// Config holds the vendor credentials. Every field except the session pair is
// required before a call is attempted.
type Config struct {
	BaseURL       string
	APIToken      string
	VenueID       string
	SessionCookie string
	CSRFToken     string
	Timeout       time.Duration
}

// Missing lists the required settings that are empty, by env name.
func (c Config) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "POS_BASE_URL")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		missing = append(missing, "POS_API_TOKEN")
	}
	if strings.TrimSpace(c.VenueID) == "" {
		missing = append(missing, "POS_VENUE_ID")
	} else if _, err := strconv.ParseInt(strings.TrimSpace(c.VenueID), 10, 64); err != nil {
		missing = append(missing, "POS_VENUE_ID (numeric)")
	}
	if (c.SessionCookie == "") != (c.CSRFToken == "") {
		missing = append(missing, "POS_SESSION_COOKIE and POS_CSRF_TOKEN together")
	}
	return missing
}

// IsConfigured reports whether live revenue can be fetched.
func (c Config) IsConfigured() bool {
	return len(c.Missing()) == 0
}

// Revenue is the venue total for one vendor query.
type Revenue struct {
	Total         float64
	RawEntryCount int
}

// CallObserver receives one notification per vendor call.
type CallObserver interface {
	ObserveVendorCall(vendor, outcome string, elapsed time.Duration)
}

// Client wraps interactions with the vendor revenue API.
type Client struct {
	cfg        Config
	venueID    int64
	httpClient *http.Client
	observer   CallObserver
}

// NewClient constructs a client. An incomplete config is accepted; calls then
// fail with shared.ConfigError before touching the network.
func NewClient(cfg Config, observer CallObserver) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	venueID, _ := strconv.ParseInt(strings.TrimSpace(cfg.VenueID), 10, 64)
	return &Client{
		cfg:        cfg,
		venueID:    venueID,
		httpClient: &http.Client{Timeout: timeout},
		observer:   observer,
	}
}

// Configured reports whether the client has everything it needs.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.IsConfigured()
}

// FetchRevenue returns the venue's revenue between two Unix timestamps.
// Callers keep toUnix-fromUnix within MaxWindow; the client does not split.
func (c *Client) FetchRevenue(ctx context.Context, fromUnix, toUnix int64) (Revenue, error) {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		return Revenue{}, shared.ConfigError{Settings: missing}
	}
	if toUnix < fromUnix {
		return Revenue{}, shared.ValidationError{Field: "range", Reason: "end before start"}
	}

	start := time.Now()
	body, err := c.get(ctx, fromUnix, toUnix)
	if err != nil {
		c.observe("error", start)
		return Revenue{}, err
	}
	entries, err := decodeEntries(body)
	if err != nil {
		c.observe("decode_error", start)
		return Revenue{}, &shared.UpstreamError{Vendor: vendorName, StatusCode: http.StatusOK, Body: truncate(body), Err: err}
	}
	c.observe("ok", start)

	var total float64
	for _, e := range entries {
		if e.VenueID != c.venueID {
			continue
		}
		total += e.Amount
	}
	return Revenue{Total: total, RawEntryCount: len(entries)}, nil
}

func (c *Client) get(ctx context.Context, fromUnix, toUnix int64) ([]byte, error) {
	params := url.Values{}
	params.Set("from", strconv.FormatInt(fromUnix, 10))
	params.Set("to", strconv.FormatInt(toUnix, 10))
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/revenue?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pos: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("X-Venue-Id", strconv.FormatInt(c.venueID, 10))
	if c.cfg.SessionCookie != "" {
		req.Header.Set("Cookie", c.cfg.SessionCookie)
		req.Header.Set("X-CSRF-Token", c.cfg.CSRFToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &shared.UpstreamError{Vendor: vendorName, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.UpstreamError{Vendor: vendorName, StatusCode: resp.StatusCode, Body: truncate(body)}
	}
	return body, nil
}

func (c *Client) observe(outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveVendorCall(vendorName, outcome, time.Since(start))
}

func truncate(body []byte) string {
	const limit = 2048
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit]
	}
	return text
}
