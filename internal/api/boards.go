package api

import (
	"context"
	"net/url"

	"github.com/nhle/trakker/internal/model"
)

// GetBoards lists the current user's boards.
func (c *Client) GetBoards(ctx context.Context) ([]model.Board, error) {
	var out struct {
		Boards []model.Board `json:"boards"`
	}
	if err := c.call(ctx, get("/boards", "Failed to fetch boards", "No boards data returned"), nil, &out); err != nil {
		return nil, err
	}
	return out.Boards, nil
}

// GetBoard fetches a board with its columns and their cards.
func (c *Client) GetBoard(ctx context.Context, id string) (*model.FullBoard, error) {
	var board model.FullBoard
	op := get("/boards/"+url.PathEscape(id), "Failed to fetch board", "No board data returned")
	if err := c.call(ctx, op, nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateBoard creates a board.
func (c *Client) CreateBoard(ctx context.Context, req model.CreateBoardRequest) (*model.Board, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var board model.Board
	if err := c.call(ctx, post("/boards", "Failed to create board", "No board data returned"), req, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// UpdateBoard patches a board.
func (c *Client) UpdateBoard(ctx context.Context, id string, req model.UpdateBoardRequest) (*model.Board, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var board model.Board
	op := patch("/boards/"+url.PathEscape(id), "Failed to update board", "No board data returned")
	if err := c.call(ctx, op, req, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// DeleteBoard removes a board and everything on it.
func (c *Client) DeleteBoard(ctx context.Context, id string) (*model.DeleteResult, error) {
	var res model.DeleteResult
	op := del("/boards/"+url.PathEscape(id), "Failed to delete board", "No delete confirmation returned")
	if err := c.call(ctx, op, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ArchiveBoard archives a board.
func (c *Client) ArchiveBoard(ctx context.Context, id string) (*model.Board, error) {
	var board model.Board
	op := patch("/boards/"+url.PathEscape(id)+"/archive", "Failed to archive board", "No board data returned")
	if err := c.call(ctx, op, nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// UnarchiveBoard restores an archived board.
func (c *Client) UnarchiveBoard(ctx context.Context, id string) (*model.Board, error) {
	var board model.Board
	op := patch("/boards/"+url.PathEscape(id)+"/unarchive", "Failed to unarchive board", "No board data returned")
	if err := c.call(ctx, op, nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}
