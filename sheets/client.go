// Package sheets reads the tournament management spreadsheet over the
// Google Sheets REST API and parses its worksheets into roster rows and
// match infos.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// Client is an explicit handle to the Sheets API. Spreadsheet metadata
// is cached per spreadsheet id; Invalidate drops the cache so the next
// call re-reads it (e.g. after the admin points at a new spreadsheet).
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	metaCache map[string][]string // spreadsheet id -> worksheet titles
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		metaCache:  make(map[string][]string),
	}
}

// Invalidate drops all cached spreadsheet metadata.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metaCache = make(map[string][]string)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("sheets: failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrSpreadsheetNotFound
	default:
		return fmt.Errorf("sheets: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sheets: failed to decode response: %w", err)
	}
	return nil
}

// WorksheetTitles lists the worksheet names of a spreadsheet, from cache
// when available.
func (c *Client) WorksheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	c.mu.Lock()
	titles, cached := c.metaCache[spreadsheetID]
	c.mu.Unlock()
	if cached {
		return titles, nil
	}

	rawURL := fmt.Sprintf("%s/%s?key=%s&fields=sheets.properties.title",
		c.baseURL, url.PathEscape(spreadsheetID), url.QueryEscape(c.apiKey))
	var meta struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := c.getJSON(ctx, rawURL, &meta); err != nil {
		return nil, err
	}
	titles = make([]string, len(meta.Sheets))
	for i, sheet := range meta.Sheets {
		titles[i] = sheet.Properties.Title
	}

	c.mu.Lock()
	c.metaCache[spreadsheetID] = titles
	c.mu.Unlock()
	return titles, nil
}

// FetchGrid fetches all cell values of one worksheet. The worksheet must
// exist; use a description like "Roster spreadsheet" for the error.
func (c *Client) FetchGrid(ctx context.Context, spreadsheetID, worksheet, description string) ([][]string, error) {
	titles, err := c.WorksheetTitles(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, title := range titles {
		if title == worksheet {
			found = true
			break
		}
	}
	if !found {
		if description == "" {
			description = "Worksheet"
		}
		return nil, fmt.Errorf("%s %q not found", description, worksheet)
	}

	rawURL := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(worksheet),
		url.QueryEscape(c.apiKey))
	var values struct {
		Values [][]string `json:"values"`
	}
	if err := c.getJSON(ctx, rawURL, &values); err != nil {
		return nil, err
	}
	return values.Values, nil
}
