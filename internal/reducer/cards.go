package reducer

import "github.com/nhle/trakker/internal/model"

// AddCard appends card to the column it names.
func AddCard(b model.FullBoard, card model.Card) model.FullBoard {
	out := CloneBoard(b)
	i := indexColumn(out.Columns, card.ColumnID)
	if i < 0 {
		return out
	}
	out.Columns[i].Cards = append(out.Columns[i].Cards, card)
	return out
}

// ReplaceCard swaps the card with id for card. If card stays in the same
// column it keeps its slot; otherwise ReconcileCard's move rules apply.
func ReplaceCard(b model.FullBoard, id string, card model.Card) model.FullBoard {
	out := CloneBoard(b)
	for ci := range out.Columns {
		ki := indexCard(out.Columns[ci].Cards, id)
		if ki < 0 {
			continue
		}
		if out.Columns[ci].ID == card.ColumnID {
			out.Columns[ci].Cards[ki] = card
			return out
		}
		// Moved: drop the old copy and let reconcile place the new one.
		out.Columns[ci].Cards = removeCard(out.Columns[ci].Cards, id)
		return ReconcileCard(out, card)
	}
	return ReconcileCard(out, card)
}

// PatchCard applies an update request. A ColumnID naming a different
// column moves the card there, appended at the requested position.
func PatchCard(b model.FullBoard, id string, req model.UpdateCardRequest) model.FullBoard {
	out := CloneBoard(b)

	src, ki := -1, -1
	for ci := range out.Columns {
		if k := indexCard(out.Columns[ci].Cards, id); k >= 0 {
			src, ki = ci, k
			break
		}
	}
	if src < 0 {
		return out
	}

	card := patchCard(out.Columns[src].Cards[ki], req)

	if req.ColumnID == nil || *req.ColumnID == out.Columns[src].ID {
		out.Columns[src].Cards[ki] = card
		return out
	}

	dst := indexColumn(out.Columns, *req.ColumnID)
	if dst < 0 {
		// Unknown target: leave the card where it is.
		return CloneBoard(b)
	}
	out.Columns[src].Cards = removeCard(out.Columns[src].Cards, id)
	out.Columns[dst].Cards = append(out.Columns[dst].Cards, card)
	return out
}

// ApplyCardUpdate returns card with the fields set in req applied.
func ApplyCardUpdate(card model.Card, req model.UpdateCardRequest) model.Card {
	return patchCard(card, req)
}

func patchCard(card model.Card, req model.UpdateCardRequest) model.Card {
	if req.Title != nil {
		card.Title = *req.Title
	}
	if req.Description != nil {
		desc := *req.Description
		card.Description = &desc
	}
	if req.Position != nil {
		card.Position = *req.Position
	}
	if req.ColumnID != nil {
		card.ColumnID = *req.ColumnID
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			card.DueDate = nil
		} else if ts, err := model.ParseTimestamp(*req.DueDate); err == nil {
			card.DueDate = &ts
		}
	}
	if req.Labels != nil {
		card.Labels = append(model.Labels(nil), (*req.Labels)...)
	}
	if req.Checklist != nil {
		card.Checklist = append([]string(nil), (*req.Checklist)...)
	}
	if req.Attachments != nil {
		card.Attachments = append([]string(nil), (*req.Attachments)...)
	}
	return card
}

// MoveCard is the optimistic half of a drag between columns.
func MoveCard(b model.FullBoard, id, targetColumnID string, position model.Position) model.FullBoard {
	return PatchCard(b, id, model.UpdateCardRequest{
		ColumnID: &targetColumnID,
		Position: &position,
	})
}

// ReconcileCard applies the server's copy of a card. The server's
// column_id is authoritative: the card is removed from every other column.
// In its own column it replaces the existing copy in place, or is appended.
func ReconcileCard(b model.FullBoard, card model.Card) model.FullBoard {
	out := CloneBoard(b)
	for ci := range out.Columns {
		col := &out.Columns[ci]
		if col.ID == card.ColumnID {
			if ki := indexCard(col.Cards, card.ID); ki >= 0 {
				col.Cards[ki] = card
			} else {
				col.Cards = append(col.Cards, card)
			}
			continue
		}
		col.Cards = removeCard(col.Cards, card.ID)
	}
	return out
}

// RemoveCard drops the card with id from whichever column holds it.
func RemoveCard(b model.FullBoard, id string) model.FullBoard {
	out := CloneBoard(b)
	for ci := range out.Columns {
		out.Columns[ci].Cards = removeCard(out.Columns[ci].Cards, id)
	}
	return out
}

// FindCard returns the card with id and the index of its column.
func FindCard(b model.FullBoard, id string) (model.Card, int, bool) {
	for ci, col := range b.Columns {
		if ki := indexCard(col.Cards, id); ki >= 0 {
			return col.Cards[ki], ci, true
		}
	}
	return model.Card{}, -1, false
}

func removeCard(cards []model.Card, id string) []model.Card {
	if indexCard(cards, id) < 0 {
		return cards
	}
	kept := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return kept
}

// Card list (card/list/<board>) transitions.

// AddCardToList appends card.
func AddCardToList(cards []model.Card, card model.Card) []model.Card {
	out := make([]model.Card, 0, len(cards)+1)
	out = append(out, cards...)
	return append(out, card)
}

// ReplaceCardInList swaps the card with id for card in the same slot, or
// appends it when absent.
func ReplaceCardInList(cards []model.Card, id string, card model.Card) []model.Card {
	out := make([]model.Card, len(cards))
	copy(out, cards)
	if i := indexCard(out, id); i >= 0 {
		out[i] = card
		return out
	}
	return append(out, card)
}

// PatchCardInList applies an update request inside a card list.
func PatchCardInList(cards []model.Card, id string, req model.UpdateCardRequest) []model.Card {
	out := make([]model.Card, len(cards))
	copy(out, cards)
	if i := indexCard(out, id); i >= 0 {
		out[i] = patchCard(out[i], req)
	}
	return out
}

// RemoveCardFromList drops the card with id.
func RemoveCardFromList(cards []model.Card, id string) []model.Card {
	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// RemoveColumnCards drops every card that belongs to columnID.
func RemoveColumnCards(cards []model.Card, columnID string) []model.Card {
	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.ColumnID != columnID {
			out = append(out, c)
		}
	}
	return out
}
