package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexyujiuqiao/IM/internal/core"
)

// MemoryRepo persists per-user memory records. Profile and recent buffer
// are stored as JSON columns; there is exactly one row per user.
type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (*core.MemoryRecord, error) {
	query := `SELECT profile, recent_buffer, rolling_summary FROM user_memory WHERE user_id = ?`

	var profileJSON, bufferJSON, summary string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&profileJSON, &bufferJSON, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user memory: %w", err)
	}

	rec := &core.MemoryRecord{RollingSummary: summary}
	if err := json.Unmarshal([]byte(profileJSON), &rec.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if err := json.Unmarshal([]byte(bufferJSON), &rec.RecentBuffer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recent buffer: %w", err)
	}
	return rec, nil
}

func (r *MemoryRepo) Put(ctx context.Context, userID string, rec *core.MemoryRecord) error {
	profileJSON, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	bufferJSON, err := json.Marshal(rec.RecentBuffer)
	if err != nil {
		return fmt.Errorf("failed to marshal recent buffer: %w", err)
	}

	query := `
		INSERT INTO user_memory (user_id, profile, recent_buffer, rolling_summary, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			recent_buffer = excluded.recent_buffer,
			rolling_summary = excluded.rolling_summary,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, userID, string(profileJSON), string(bufferJSON), rec.RollingSummary); err != nil {
		return fmt.Errorf("failed to upsert user memory: %w", err)
	}
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_memory WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user memory: %w", err)
	}
	return nil
}
