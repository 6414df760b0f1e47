package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"heatmap/internal/models"
)

const AllTerm = "all"

var (
	ErrTransport = errors.New("fetcher: transport failure")
	ErrDecode    = errors.New("fetcher: malformed payload")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch data. Status: %d (%s)", e.Code, e.URL)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL (scheme://host[:port][/prefix]).
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: timeout},
	}
}

func (c *Client) LoadAll(ctx context.Context) ([]models.Record, error) {
	return c.get(ctx, AllTerm)
}

// LoadFiltered fetches the records matching term. The term is trimmed and
// lower-cased; an empty term means "all".
func (c *Client) LoadFiltered(ctx context.Context, term string) ([]models.Record, error) {
	return c.get(ctx, NormalizeTerm(term))
}

func NormalizeTerm(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return AllTerm
	}
	return term
}

func (c *Client) get(ctx context.Context, term string) ([]models.Record, error) {
	u := c.baseURL + "/get_data/" + url.PathEscape(term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var records []models.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if records == nil {
		// JSON null is not an array
		return nil, fmt.Errorf("%w: expected array, got %q", ErrDecode, strings.TrimSpace(string(body)))
	}

	log.Debug().
		Str("term", term).
		Int("records", len(records)).
		Dur("took", time.Since(start)).
		Msg("Received Data")
	return records, nil
}
