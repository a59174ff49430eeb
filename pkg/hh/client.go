package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL   = "https://api.hh.ru"
	DefaultUserAgent = "jobs_explorer"

	// PublishedAtLayout is the timestamp format of published_at
	PublishedAtLayout = "2006-01-02T15:04:05-0700"

	dateLayout = "2006-01-02"
)

// NewClient instantiates an hh.ru API client
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("hh: parse base url: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}, nil
}

// Search fetches one page of vacancies matching params
func (c *Client) Search(ctx context.Context, params SearchParams) (SearchPage, error) {
	if c == nil {
		return SearchPage{}, fmt.Errorf("hh: client is nil")
	}

	u, err := c.endpoint("vacancies")
	if err != nil {
		return SearchPage{}, err
	}

	values := url.Values{}
	values.Set("specialization", strconv.Itoa(params.Specialization))
	values.Set("area", strconv.Itoa(params.Area))
	values.Set("per_page", strconv.Itoa(params.PerPage))
	values.Set("date_from", params.DateFrom.Format(dateLayout))
	values.Set("date_to", params.DateTo.Format(dateLayout))
	values.Set("page", strconv.Itoa(params.Page))
	u.RawQuery = values.Encode()

	var page SearchPage
	if err := c.get(ctx, u.String(), &page); err != nil {
		return SearchPage{}, err
	}

	return page, nil
}

// Vacancy fetches the full document of one vacancy
func (c *Client) Vacancy(ctx context.Context, id string) (Vacancy, error) {
	if c == nil {
		return Vacancy{}, fmt.Errorf("hh: client is nil")
	}
	if id == "" {
		return Vacancy{}, fmt.Errorf("hh: vacancy id is required")
	}

	u, err := c.endpoint("vacancies", id)
	if err != nil {
		return Vacancy{}, err
	}

	var vacancy Vacancy
	if err := c.get(ctx, u.String(), &vacancy); err != nil {
		return Vacancy{}, err
	}

	return vacancy, nil
}

func (c *Client) endpoint(elem ...string) (*url.URL, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("hh: parse base url: %w", err)
	}

	u.Path = path.Join(append([]string{u.Path}, elem...)...)
	return u, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("hh: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hh: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hh: decode response: %w", err)
	}

	return nil
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hh: API error (%d): %s", e.StatusCode, e.Body)
}
