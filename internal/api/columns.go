package api

import (
	"context"
	"net/url"

	"github.com/nhle/trakker/internal/model"
)

type columnsPayload struct {
	Columns []model.Column `json:"columns"`
}

// GetColumns lists a board's columns with their cards.
func (c *Client) GetColumns(ctx context.Context, boardID string) ([]model.Column, error) {
	var out columnsPayload
	op := get("/boards/"+url.PathEscape(boardID)+"/columns", "Failed to fetch columns", "No columns data returned")
	if err := c.call(ctx, op, nil, &out); err != nil {
		return nil, err
	}
	return out.Columns, nil
}

// CreateColumn adds a column to a board.
func (c *Client) CreateColumn(ctx context.Context, boardID string, req model.CreateColumnRequest) (*model.Column, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var col model.Column
	op := post("/boards/"+url.PathEscape(boardID)+"/columns", "Failed to create column", "No column data returned")
	if err := c.call(ctx, op, req, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// UpdateColumn patches a column.
func (c *Client) UpdateColumn(ctx context.Context, id string, req model.UpdateColumnRequest) (*model.Column, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var col model.Column
	op := patch("/columns/"+url.PathEscape(id), "Failed to update column", "No column data returned")
	if err := c.call(ctx, op, req, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// DeleteColumn removes a column and its cards.
func (c *Client) DeleteColumn(ctx context.Context, id string) (*model.DeleteResult, error) {
	var res model.DeleteResult
	op := del("/columns/"+url.PathEscape(id), "Failed to delete column", "No delete confirmation returned")
	if err := c.call(ctx, op, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReorderColumns assigns new positions and returns the board's columns in
// their new order.
func (c *Client) ReorderColumns(ctx context.Context, boardID string, req model.ReorderColumnsRequest) ([]model.Column, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var out columnsPayload
	op := patch("/boards/"+url.PathEscape(boardID)+"/columns/reorder", "Failed to reorder columns", "No columns data returned")
	if err := c.call(ctx, op, req, &out); err != nil {
		return nil, err
	}
	return out.Columns, nil
}
