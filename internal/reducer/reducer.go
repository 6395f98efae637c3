// Package reducer holds the pure cache transitions used by optimistic
// mutations. Every function returns a new value and never modifies its
// arguments, so a snapshot taken before a mutation stays valid for
// rollback.
package reducer

import (
	"sort"

	"github.com/nhle/trakker/internal/model"
)

// CloneBoard deep-copies a board down to card slices.
func CloneBoard(b model.FullBoard) model.FullBoard {
	out := b
	if b.Columns != nil {
		out.Columns = make([]model.Column, len(b.Columns))
		for i, col := range b.Columns {
			out.Columns[i] = cloneColumn(col)
		}
	}
	return out
}

func cloneColumn(col model.Column) model.Column {
	out := col
	if col.Cards != nil {
		out.Cards = make([]model.Card, len(col.Cards))
		copy(out.Cards, col.Cards)
	}
	return out
}

func indexColumn(cols []model.Column, id string) int {
	for i, c := range cols {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func indexCard(cards []model.Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// SortColumns orders columns by position, keeping ties in their current
// order.
func SortColumns(cols []model.Column) []model.Column {
	out := make([]model.Column, len(cols))
	copy(out, cols)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// SortCards orders cards by position, keeping ties in their current order.
func SortCards(cards []model.Card) []model.Card {
	out := make([]model.Card, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
