package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loopstate/core/internal/domain"
)

// ProgressStore implements domain.ProgressRepository scoped to one user.
// It exists only so the document-store foundation is shared (§6); the
// core calculators never read from it.
type ProgressStore struct {
	db     *DB
	userID string
}

// NewProgressStore binds a ProgressStore to a single user.
func NewProgressStore(db *DB, userID string) *ProgressStore {
	return &ProgressStore{db: db, userID: userID}
}

var _ domain.ProgressRepository = (*ProgressStore)(nil)

// ListItems returns every progress item for this user.
func (s *ProgressStore) ListItems(ctx context.Context) ([]domain.ProgressItem, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, value, target, updated_at, metadata FROM progress_items WHERE user_id = ? ORDER BY id ASC`,
		s.userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ProgressItem
	for rows.Next() {
		var item domain.ProgressItem
		var updatedAt int64
		var metaJSON string
		if err := rows.Scan(&item.ID, &item.Value, &item.Target, &updatedAt, &metaJSON); err != nil {
			return nil, err
		}
		item.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		if item.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpsertItem inserts or updates a progress item keyed by item.ID.
func (s *ProgressStore) UpsertItem(ctx context.Context, item domain.ProgressItem) error {
	metaJSON, err := encodeMetadata(item.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.db.ExecContext(ctx,
		`INSERT INTO progress_items (id, user_id, value, target, updated_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			value=excluded.value, target=excluded.target, updated_at=excluded.updated_at, metadata=excluded.metadata`,
		item.ID, s.userID, item.Value, item.Target, item.UpdatedAt.Unix(), metaJSON,
	)
	return err
}

// DeleteItem removes a single progress item.
func (s *ProgressStore) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.db.ExecContext(ctx, `DELETE FROM progress_items WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll removes every progress item for this user.
func (s *ProgressStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.db.ExecContext(ctx, `DELETE FROM progress_items WHERE user_id = ?`, s.userID)
	return err
}

// StreamChanges polls the item set and emits added/modified/removed
// diffs, closing when ctx is canceled.
func (s *ProgressStore) StreamChanges(ctx context.Context) (<-chan domain.ProgressChange, error) {
	ch := make(chan domain.ProgressChange, 8)
	go func() {
		defer close(ch)
		seen := map[string]domain.ProgressItem{}
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				items, err := s.ListItems(ctx)
				if err != nil {
					continue
				}
				current := map[string]domain.ProgressItem{}
				for _, item := range items {
					current[item.ID] = item
					prior, existed := seen[item.ID]
					if !existed {
						if !sendChange(ctx, ch, domain.ProgressChange{Kind: domain.ChangeAdded, Item: item}) {
							return
						}
					} else if prior.Value != item.Value || prior.Target != item.Target || !prior.UpdatedAt.Equal(item.UpdatedAt) {
						if !sendChange(ctx, ch, domain.ProgressChange{Kind: domain.ChangeModified, Item: item}) {
							return
						}
					}
				}
				for id, item := range seen {
					if _, stillThere := current[id]; !stillThere {
						if !sendChange(ctx, ch, domain.ProgressChange{Kind: domain.ChangeRemoved, Item: item}) {
							return
						}
					}
				}
				seen = current
			}
		}
	}()
	return ch, nil
}

func sendChange(ctx context.Context, ch chan<- domain.ProgressChange, c domain.ProgressChange) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
