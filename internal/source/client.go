package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bbuilders/actionbot/internal/model"
	"github.com/bbuilders/actionbot/pkg/metrics"
)

const apiVersion = "2022-06-28"

// Property names in the workspace database schema.
const (
	propActionItem = "Action Item"
	propStatus     = "Status"
	propDueDate    = "Due Date"
	propInitiative = "Assigned Initiative(s)"
)

// Client talks to the Notion-compatible workspace API: the action-item
// database and the initiative/people directory pages.
type Client struct {
	baseURL    string
	token      string
	databaseID string
	httpClient *http.Client
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

func NewClient(baseURL, token, databaseID string, loc *time.Location, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		databaseID: databaseID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// Wire types for the subset of the workspace API this service reads.

type page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Title    []richText   `json:"title,omitempty"`
	Status   *statusValue `json:"status,omitempty"`
	Date     *dateValue   `json:"date,omitempty"`
	Relation []relation   `json:"relation,omitempty"`
	Email    *string      `json:"email,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type statusValue struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type relation struct {
	ID string `json:"id"`
}

type queryRequest struct {
	Filter      map[string]any   `json:"filter,omitempty"`
	Sorts       []map[string]any `json:"sorts,omitempty"`
	StartCursor string           `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// queryPages runs a database query and follows the cursor until all pages are
// fetched. Partial results are never returned.
func (c *Client) queryPages(ctx context.Context, filter map[string]any, sorts []map[string]any, description string) ([]page, error) {
	var pages []page
	cursor := ""

	for {
		started := time.Now()

		reqBody := queryRequest{
			Filter:      filter,
			Sorts:       sorts,
			StartCursor: cursor,
		}
		var resp queryResponse
		err := c.do(ctx, http.MethodPost,
			fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, c.databaseID),
			reqBody, &resp)
		metrics.ObserveSourceLatency("query", time.Since(started))
		if err != nil {
			c.logger.Error("Failed to fetch action items",
				zap.String("description", description),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to fetch %s action items: %w", description, err)
		}

		pages = append(pages, resp.Results...)
		c.logger.Info("Fetched action item batch",
			zap.String("description", description),
			zap.Int("batch", len(resp.Results)),
			zap.Int("total", len(pages)),
		)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}

// retrievePage fetches a single directory page by id.
func (c *Client) retrievePage(ctx context.Context, pageID string) (*page, error) {
	started := time.Now()

	var p page
	err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/pages/%s", c.baseURL, pageID), nil, &p)
	metrics.ObserveSourceLatency("page", time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve page %s: %w", pageID, err)
	}
	return &p, nil
}

// updateStatus patches a page's status at the source.
func (c *Client) updateStatus(ctx context.Context, pageID, status string) (*page, error) {
	started := time.Now()

	body := map[string]any{
		"properties": map[string]any{
			propStatus: map[string]any{
				"status": map[string]any{"name": status},
			},
		},
	}

	var p page
	err := c.do(ctx, http.MethodPatch,
		fmt.Sprintf("%s/v1/pages/%s", c.baseURL, pageID), body, &p)
	metrics.ObserveSourceLatency("update", time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", pageID, err)
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, url string, reqBody, out any) error {
	var body *bytes.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("workspace API returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// toActionItem maps a raw page to the normalized item shape. Missing fields
// degrade to placeholders so one bad record never aborts the batch.
func toActionItem(p page) model.ActionItem {
	item := model.ActionItem{
		PageID:  p.ID,
		Title:   model.FieldDefault(model.PlaceholderTitle),
		Status:  model.FieldDefault(model.PlaceholderValue),
		DueDate: model.FieldDefault(model.PlaceholderValue),
		URL:     p.URL,
	}

	if title, ok := p.Properties[propActionItem]; ok && len(title.Title) > 0 {
		text := ""
		for _, rt := range title.Title {
			text += rt.PlainText
		}
		item.Title = model.FieldOf(text)
	}
	if status, ok := p.Properties[propStatus]; ok && status.Status != nil && status.Status.Name != "" {
		item.Status = model.FieldOf(status.Status.Name)
	}
	if due, ok := p.Properties[propDueDate]; ok && due.Date != nil && due.Date.Start != "" {
		item.DueDate = model.FieldOf(due.Date.Start)
	}
	if rel, ok := p.Properties[propInitiative]; ok {
		for _, r := range rel.Relation {
			item.Initiatives = append(item.Initiatives, r.ID)
		}
	}

	return item
}
