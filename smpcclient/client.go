// Package smpcclient downloads SmPC records from the upstream JSON API.
package smpcclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/record"
)

// DefaultURL is the public SmPC data endpoint
const DefaultURL = "https://smpcapi.azurewebsites.net/api/getsmpcdata"

// ErrBodyTooLarge is returned when the upstream body exceeds the configured limit
var ErrBodyTooLarge = errors.New("upstream body too large")

// FetchError describes a failed download. StatusCode is zero when the request
// never got a response.
type FetchError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches the full record set in one GET request
type Client struct {
	url        string
	httpClient *http.Client
	maxBody    int64
}

// NewClient creates a client for url. A zero timeout leaves the deadline to the
// caller's context and a zero maxBody disables the size limit.
func NewClient(url string, timeout time.Duration, maxBody int64) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxBody,
	}
}

// URL returns the endpoint the client reads from
func (c *Client) URL() string { return c.url }

// Fetch downloads and decodes the records
func (c *Client) Fetch(ctx context.Context) ([]record.Record, record.DecodeReport, error) {
	body, err := c.download(ctx)
	if err != nil {
		return nil, record.DecodeReport{}, err
	}

	records, report, err := record.Decode(body)
	if err != nil {
		return nil, report, fmt.Errorf("failed to decode %s: %w", c.url, err)
	}

	logging.Debug("SmPC records downloaded",
		"url", c.url,
		"bytes", len(body),
		"records", len(records),
		"skipped", report.Skipped)
	return records, report, nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64*1024))
		return nil, &FetchError{
			StatusCode: response.StatusCode,
			URL:        c.url,
			Err:        fmt.Errorf("unexpected status %s", response.Status),
		}
	}

	var reader io.Reader = response.Body
	if c.maxBody > 0 {
		reader = io.LimitReader(response.Body, c.maxBody+1)
	}
	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if c.maxBody > 0 && int64(len(bodyBytes)) > c.maxBody {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.maxBody)}
	}

	// Some exports are served as latin-1
	if utf8.Valid(bodyBytes) {
		return bodyBytes, nil
	}
	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(bodyBytes)))
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("failed to decode latin-1 body: %w", err)}
	}
	logging.Debug("Upstream body was not UTF-8, decoded as ISO-8859-1", "url", c.url)
	return decoded, nil
}
