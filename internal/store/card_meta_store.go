package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/trakker/internal/model"
)

// UpsertCardMeta inserts or replaces a card's local metadata and tags.
// An empty priority defaults to medium.
func (s *SQLiteStore) UpsertCardMeta(ctx context.Context, meta model.CardMeta) error {
	if strings.TrimSpace(meta.CardID) == "" {
		return fmt.Errorf("card id must not be empty")
	}
	if meta.Priority == "" {
		meta.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(meta.Priority) {
		return fmt.Errorf("invalid priority %q", meta.Priority)
	}
	meta.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO card_metadata (card_id, priority, due_date, updated_at)
		VALUES (:card_id, :priority, :due_date, :updated_at)
		ON CONFLICT(card_id) DO UPDATE SET
			priority = excluded.priority,
			due_date = excluded.due_date,
			updated_at = excluded.updated_at`, meta)
	if err != nil {
		return fmt.Errorf("upserting card metadata %s: %w", meta.CardID, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM card_metadata_tags WHERE card_id = ?", meta.CardID); err != nil {
		return fmt.Errorf("clearing card tags: %w", err)
	}
	for _, tag := range meta.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO card_metadata_tags (card_id, tag) VALUES (?, ?)",
			meta.CardID, tag); err != nil {
			return fmt.Errorf("setting tag %s on card %s: %w", tag, meta.CardID, err)
		}
	}

	return tx.Commit()
}

// GetCardMeta retrieves one card's metadata, or ErrNotFound.
func (s *SQLiteStore) GetCardMeta(ctx context.Context, cardID string) (*model.CardMeta, error) {
	var meta model.CardMeta
	err := s.db.GetContext(ctx, &meta,
		"SELECT card_id, priority, due_date, updated_at FROM card_metadata WHERE card_id = ?", cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card metadata %s: %w", cardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting card metadata %s: %w", cardID, err)
	}

	tags, err := s.tagsFor(ctx, []string{cardID})
	if err != nil {
		return nil, err
	}
	meta.Tags = tags[cardID]
	return &meta, nil
}

// GetCardMetas retrieves metadata for the given cards, keyed by card id.
// Cards without metadata are absent from the map.
func (s *SQLiteStore) GetCardMetas(ctx context.Context, cardIDs []string) (map[string]model.CardMeta, error) {
	out := make(map[string]model.CardMeta, len(cardIDs))
	if len(cardIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(
		"SELECT card_id, priority, due_date, updated_at FROM card_metadata WHERE card_id IN (?)", cardIDs)
	if err != nil {
		return nil, fmt.Errorf("building card metadata query: %w", err)
	}

	var metas []model.CardMeta
	if err := s.db.SelectContext(ctx, &metas, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying card metadata: %w", err)
	}

	tags, err := s.tagsFor(ctx, cardIDs)
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		m.Tags = tags[m.CardID]
		out[m.CardID] = m
	}
	return out, nil
}

func (s *SQLiteStore) tagsFor(ctx context.Context, cardIDs []string) (map[string][]string, error) {
	query, args, err := sqlx.In(
		"SELECT card_id, tag FROM card_metadata_tags WHERE card_id IN (?) ORDER BY tag", cardIDs)
	if err != nil {
		return nil, fmt.Errorf("building card tags query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying card tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var cardID, tag string
		if err := rows.Scan(&cardID, &tag); err != nil {
			return nil, fmt.Errorf("scanning card tag row: %w", err)
		}
		tags[cardID] = append(tags[cardID], tag)
	}
	return tags, rows.Err()
}

// DeleteCardMeta removes a card's metadata. Tags cascade.
func (s *SQLiteStore) DeleteCardMeta(ctx context.Context, cardID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM card_metadata WHERE card_id = ?", cardID)
	if err != nil {
		return fmt.Errorf("deleting card metadata %s: %w", cardID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("card metadata %s: %w", cardID, ErrNotFound)
	}
	return nil
}
