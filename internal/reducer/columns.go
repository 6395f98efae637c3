package reducer

import "github.com/nhle/trakker/internal/model"

// AddColumn appends col to the board.
func AddColumn(b model.FullBoard, col model.Column) model.FullBoard {
	out := CloneBoard(b)
	if col.Cards == nil {
		col.Cards = []model.Card{}
	}
	out.Columns = append(out.Columns, col)
	return out
}

// ReplaceColumn swaps the column with id for col in the same slot. When
// col carries no cards, the existing cards are kept; the API omits them
// from create and update responses.
func ReplaceColumn(b model.FullBoard, id string, col model.Column) model.FullBoard {
	out := CloneBoard(b)
	i := indexColumn(out.Columns, id)
	if i < 0 {
		return out
	}
	if col.Cards == nil {
		col.Cards = out.Columns[i].Cards
	}
	out.Columns[i] = col
	return out
}

// PatchColumn applies an update request to the column with id.
func PatchColumn(b model.FullBoard, id string, req model.UpdateColumnRequest) model.FullBoard {
	out := CloneBoard(b)
	i := indexColumn(out.Columns, id)
	if i < 0 {
		return out
	}
	out.Columns[i] = patchColumn(out.Columns[i], req)
	return out
}

func patchColumn(col model.Column, req model.UpdateColumnRequest) model.Column {
	if req.Name != nil {
		col.Name = *req.Name
	}
	if req.Position != nil {
		col.Position = *req.Position
	}
	if req.BackgroundColor != nil {
		color := *req.BackgroundColor
		col.BackgroundColor = &color
	}
	return col
}

// RemoveColumn drops the column with id and its cards.
func RemoveColumn(b model.FullBoard, id string) model.FullBoard {
	out := CloneBoard(b)
	out.Columns = removeColumn(out.Columns, id)
	return out
}

func removeColumn(cols []model.Column, id string) []model.Column {
	kept := make([]model.Column, 0, len(cols))
	for _, c := range cols {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return kept
}

// ReorderColumns assigns the requested positions and sorts by them.
// Columns missing from orders keep their position.
func ReorderColumns(b model.FullBoard, orders []model.ColumnOrder) model.FullBoard {
	out := CloneBoard(b)
	out.Columns = reorder(out.Columns, orders)
	return out
}

func reorder(cols []model.Column, orders []model.ColumnOrder) []model.Column {
	pos := make(map[string]int, len(orders))
	for _, o := range orders {
		pos[o.ID] = o.Position
	}
	out := make([]model.Column, len(cols))
	for i, c := range cols {
		if p, ok := pos[c.ID]; ok {
			c.Position = p
		}
		out[i] = c
	}
	return SortColumns(out)
}

// SetColumns replaces the board's columns with the server's list. Cards
// are carried over by column id when the server omits them.
func SetColumns(b model.FullBoard, cols []model.Column) model.FullBoard {
	out := CloneBoard(b)
	out.Columns = mergeColumns(out.Columns, cols)
	return out
}

func mergeColumns(existing, server []model.Column) []model.Column {
	cards := make(map[string][]model.Card, len(existing))
	for _, c := range existing {
		cards[c.ID] = c.Cards
	}

	merged := make([]model.Column, len(server))
	for i, c := range server {
		c = cloneColumn(c)
		if c.Cards == nil {
			c.Cards = cards[c.ID]
		}
		if c.Cards == nil {
			c.Cards = []model.Card{}
		}
		merged[i] = c
	}
	return merged
}

// OrdersFor builds a reorder payload that assigns each column id its index.
func OrdersFor(columnIDs []string) []model.ColumnOrder {
	orders := make([]model.ColumnOrder, len(columnIDs))
	for i, id := range columnIDs {
		orders[i] = model.ColumnOrder{ID: id, Position: i}
	}
	return orders
}

// Column list (column/list/<board>) transitions mirror the board ones.

// AddColumnToList appends col to a column list.
func AddColumnToList(cols []model.Column, col model.Column) []model.Column {
	out := make([]model.Column, 0, len(cols)+1)
	out = append(out, cols...)
	return append(out, col)
}

// ReplaceColumnInList swaps the column with id for col in the same slot.
func ReplaceColumnInList(cols []model.Column, id string, col model.Column) []model.Column {
	out := make([]model.Column, len(cols))
	copy(out, cols)
	if i := indexColumn(out, id); i >= 0 {
		if col.Cards == nil {
			col.Cards = out[i].Cards
		}
		out[i] = col
	}
	return out
}

// PatchColumnInList applies an update request inside a column list.
func PatchColumnInList(cols []model.Column, id string, req model.UpdateColumnRequest) []model.Column {
	out := make([]model.Column, len(cols))
	copy(out, cols)
	if i := indexColumn(out, id); i >= 0 {
		out[i] = patchColumn(out[i], req)
	}
	return out
}

// RemoveColumnFromList drops the column with id.
func RemoveColumnFromList(cols []model.Column, id string) []model.Column {
	return removeColumn(cols, id)
}

// ReorderColumnList applies positions to a column list and sorts it.
func ReorderColumnList(cols []model.Column, orders []model.ColumnOrder) []model.Column {
	return reorder(cols, orders)
}
