package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored data.
type DataStats struct {
	TotalSessions     int64      `json:"total_sessions"`
	CompletedSessions int64      `json:"completed_sessions"`
	TotalExercises    int64      `json:"total_exercises"`
	TotalSets         int64      `json:"total_sets"`
	DistinctMachines  int64      `json:"distinct_machines"`
	TotalTonnage      float64    `json:"total_tonnage"`
	EarliestSession   *time.Time `json:"earliest_session"`
	LatestSession     *time.Time `json:"latest_session"`
	SessionsByMode    []ModeStat `json:"sessions_by_mode"`
}

// ModeStat holds summary stats for a single training mode. Code is empty for
// sessions without a mode.
type ModeStat struct {
	Code    string  `json:"code"`
	Count   int64   `json:"count"`
	Tonnage float64 `json:"tonnage"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (t *Tx) GetDataStats(ctx context.Context, userID int64) (*DataStats, error) {
	stats := &DataStats{}

	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(tonnage_total), 0)
		FROM sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.CompletedSessions, &stats.TotalTonnage)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT e.machine_id)
		FROM exercise_entries e JOIN sessions s ON s.id = e.session_id
		WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalExercises, &stats.DistinctMachines)
	if err != nil {
		return nil, fmt.Errorf("counting exercises: %w", err)
	}

	err = t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM set_records r
		JOIN exercise_entries e ON e.id = r.exercise_id
		JOIN sessions s ON s.id = e.session_id
		WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	// Selected as plain columns so both drivers decode them as timestamps.
	if stats.EarliestSession, err = t.sessionBound(ctx, userID, "ASC"); err != nil {
		return nil, err
	}
	if stats.LatestSession, err = t.sessionBound(ctx, userID, "DESC"); err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT COALESCE(m.code, ''), COUNT(*), COALESCE(SUM(s.tonnage_total), 0)
		FROM sessions s LEFT JOIN training_modes m ON m.id = s.training_mode_id
		WHERE s.user_id = $1
		GROUP BY COALESCE(m.code, '')
		ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by mode: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ModeStat
		if err := rows.Scan(&s.Code, &s.Count, &s.Tonnage); err != nil {
			return nil, fmt.Errorf("scanning mode stat: %w", err)
		}
		stats.SessionsByMode = append(stats.SessionsByMode, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (t *Tx) sessionBound(ctx context.Context, userID int64, order string) (*time.Time, error) {
	var ts time.Time
	err := t.tx.QueryRowContext(ctx, `
		SELECT started_at FROM sessions
		WHERE user_id = $1 AND started_at IS NOT NULL
		ORDER BY started_at `+order+` LIMIT 1`, userID,
	).Scan(&ts)
	if err != nil {
		if errors.Is(classify(err), ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying session date range: %w", err)
	}
	return &ts, nil
}
