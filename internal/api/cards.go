package api

import (
	"context"
	"net/url"

	"github.com/nhle/trakker/internal/model"
)

// GetCards lists every card on a board.
func (c *Client) GetCards(ctx context.Context, boardID string) ([]model.Card, error) {
	var out struct {
		Cards []model.Card `json:"cards"`
	}
	op := get("/boards/"+url.PathEscape(boardID)+"/cards", "Failed to fetch cards", "No cards data returned")
	if err := c.call(ctx, op, nil, &out); err != nil {
		return nil, err
	}
	return out.Cards, nil
}

// GetCard fetches a single card.
func (c *Client) GetCard(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	op := get("/cards/"+url.PathEscape(id), "Failed to fetch card", "No card data returned")
	if err := c.call(ctx, op, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard adds a card to a column.
func (c *Client) CreateCard(ctx context.Context, columnID string, req model.CreateCardRequest) (*model.Card, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var card model.Card
	op := post("/columns/"+url.PathEscape(columnID)+"/cards", "Failed to create card", "No card data returned")
	if err := c.call(ctx, op, req, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard patches a card. Setting ColumnID moves it to another column.
func (c *Client) UpdateCard(ctx context.Context, id string, req model.UpdateCardRequest) (*model.Card, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var card model.Card
	op := patch("/cards/"+url.PathEscape(id), "Failed to update card", "No card data returned")
	if err := c.call(ctx, op, req, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a card.
func (c *Client) DeleteCard(ctx context.Context, id string) (*model.DeleteResult, error) {
	var res model.DeleteResult
	op := del("/cards/"+url.PathEscape(id), "Failed to delete card", "No delete confirmation returned")
	if err := c.call(ctx, op, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
