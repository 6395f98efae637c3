package reducer

import "github.com/nhle/trakker/internal/model"

func indexBoard(boards []model.Board, id string) int {
	for i, b := range boards {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// AddBoard appends board to a board list.
func AddBoard(boards []model.Board, board model.Board) []model.Board {
	out := make([]model.Board, 0, len(boards)+1)
	out = append(out, boards...)
	return append(out, board)
}

// ReplaceBoard swaps the board with id for board in the same slot.
func ReplaceBoard(boards []model.Board, id string, board model.Board) []model.Board {
	out := make([]model.Board, len(boards))
	copy(out, boards)
	if i := indexBoard(out, id); i >= 0 {
		out[i] = board
	}
	return out
}

// PatchBoard applies an update request inside a board list.
func PatchBoard(boards []model.Board, id string, req model.UpdateBoardRequest) []model.Board {
	out := make([]model.Board, len(boards))
	copy(out, boards)
	if i := indexBoard(out, id); i >= 0 {
		out[i] = patchBoard(out[i], req)
	}
	return out
}

func patchBoard(b model.Board, req model.UpdateBoardRequest) model.Board {
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Description != nil {
		desc := *req.Description
		b.Description = &desc
	}
	if req.BackgroundURL != nil {
		url := *req.BackgroundURL
		b.BackgroundURL = &url
	}
	return b
}

// RemoveBoard drops the board with id.
func RemoveBoard(boards []model.Board, id string) []model.Board {
	out := make([]model.Board, 0, len(boards))
	for _, b := range boards {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// SetArchived stamps or clears ArchivedAt on the board with id.
func SetArchived(boards []model.Board, id string, at *model.Timestamp) []model.Board {
	out := make([]model.Board, len(boards))
	copy(out, boards)
	if i := indexBoard(out, id); i >= 0 {
		out[i].ArchivedAt = at
	}
	return out
}

// PatchBoardDetail applies an update request to a detail entry's
// metadata. Columns are left alone.
func PatchBoardDetail(b model.FullBoard, req model.UpdateBoardRequest) model.FullBoard {
	out := CloneBoard(b)
	out.Board = patchBoard(out.Board, req)
	return out
}

// SetBoardMeta replaces a detail entry's metadata with the server's copy,
// keeping its columns.
func SetBoardMeta(b model.FullBoard, board model.Board) model.FullBoard {
	out := CloneBoard(b)
	out.Board = board
	return out
}
