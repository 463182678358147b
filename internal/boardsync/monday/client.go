// Package monday is a minimal client for the monday.com GraphQL API,
// covering the item operations the board reconciler needs.
package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultEndpoint = "https://api.monday.com/v2"

var ErrRequestFailed = errors.New("monday request failed")

// Item is a board item as returned by the API. ColumnValues maps
// column ids to their text representation.
type Item struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ColumnValues map[string]string `json:"column_values"`
}

// Client talks to the monday.com v2 endpoint.
type Client struct {
	http *resty.Client
}

// New constructs a Client authenticated with token. An empty endpoint
// selects the public API.
func New(token, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	http := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetHeader("Authorization", token).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	var envelope gqlResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(gqlRequest{Query: query, Variables: variables}).
		SetResult(&envelope).
		Post("")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode())
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, envelope.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode: %v", ErrRequestFailed, err)
		}
	}
	return nil
}

// Validate probes the API with the caller's token. It reports
// reachability only and never returns an error.
func (c *Client) Validate(ctx context.Context) bool {
	var out struct {
		Me struct {
			ID string `json:"id"`
		} `json:"me"`
	}
	if err := c.do(ctx, `query { me { id } }`, nil, &out); err != nil {
		return false
	}
	return out.Me.ID != ""
}

// CreateItem creates a board item and returns its id.
func (c *Client) CreateItem(ctx context.Context, boardID, name string, columnValues map[string]string) (string, error) {
	values, err := json.Marshal(columnValues)
	if err != nil {
		return "", err
	}
	var out struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	query := `mutation ($board: ID!, $name: String!, $values: JSON) {
		create_item(board_id: $board, item_name: $name, column_values: $values) { id }
	}`
	err = c.do(ctx, query, map[string]any{
		"board":  boardID,
		"name":   name,
		"values": string(values),
	}, &out)
	if err != nil {
		return "", err
	}
	return out.CreateItem.ID, nil
}

// UpdateItem overwrites the given column values of an existing item.
func (c *Client) UpdateItem(ctx context.Context, boardID, itemID string, columnValues map[string]string) error {
	values, err := json.Marshal(columnValues)
	if err != nil {
		return err
	}
	query := `mutation ($board: ID!, $item: ID!, $values: JSON!) {
		change_multiple_column_values(board_id: $board, item_id: $item, column_values: $values) { id }
	}`
	return c.do(ctx, query, map[string]any{
		"board":  boardID,
		"item":   itemID,
		"values": string(values),
	}, nil)
}

type itemsPage struct {
	Boards []struct {
		ItemsPage struct {
			Cursor string `json:"cursor"`
			Items  []struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				ColumnValues []struct {
					ID   string `json:"id"`
					Text string `json:"text"`
				} `json:"column_values"`
			} `json:"items"`
		} `json:"items_page"`
	} `json:"boards"`
}

// ListItems pages through every item on the board.
func (c *Client) ListItems(ctx context.Context, boardID string) ([]Item, error) {
	query := `query ($board: [ID!], $cursor: String) {
		boards(ids: $board) {
			items_page(limit: 100, cursor: $cursor) {
				cursor
				items { id name column_values { id text } }
			}
		}
	}`
	var all []Item
	cursor := ""
	for {
		variables := map[string]any{"board": []string{boardID}}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		var out itemsPage
		if err := c.do(ctx, query, variables, &out); err != nil {
			return nil, err
		}
		if len(out.Boards) == 0 {
			return all, nil
		}
		page := out.Boards[0].ItemsPage
		for _, raw := range page.Items {
			item := Item{ID: raw.ID, Name: raw.Name, ColumnValues: make(map[string]string, len(raw.ColumnValues))}
			for _, cv := range raw.ColumnValues {
				item.ColumnValues[cv.ID] = cv.Text
			}
			all = append(all, item)
		}
		if page.Cursor == "" || len(page.Items) == 0 {
			return all, nil
		}
		cursor = page.Cursor
	}
}
