// apps/go-server/internal/results/store.go
//
// SQLite persistence for finished quiz runs and the per-subject leaderboard.
// Rows are keyed by run ID so every replay inside one session counts as its
// own result; inserting the same run twice is ignored.

package results

import (
	"context"
	"database/sql"
	"time"
)

// Result is one finished quiz run.
type Result struct {
	RunID      string    `json:"runId"`
	SessionID  string    `json:"sessionId"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName,omitempty"`
	Subject    string    `json:"subject"`
	Duration   int       `json:"duration"`
	Score      int       `json:"score"`
	Solved     int       `json:"solved"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finishedAt"`
}

// DefaultLimit caps leaderboard queries that pass limit <= 0.
const DefaultLimit = 20

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a result. Duplicate run IDs are ignored.
func (s *Store) Insert(ctx context.Context, r Result) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO results
            (run_id, session_id, player_id, player_name, subject, duration, score, solved, skipped, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.SessionID, r.PlayerID, r.PlayerName, r.Subject, r.Duration,
		r.Score, r.Solved, r.Skipped, r.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Leaderboard returns the best results for a subject.
//
// - duration <= 0 matches every duration.
// - Ordered by score DESC, then solved DESC, then finished_at ASC.
func (s *Store) Leaderboard(ctx context.Context, subject string, duration, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, session_id, player_id, player_name, subject, duration, score, solved, skipped, finished_at
        FROM results
        WHERE subject=? AND (?=0 OR duration=?)
        ORDER BY score DESC, solved DESC, finished_at ASC
        LIMIT ?`, subject, duration, duration, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		var (
			r        Result
			finished string
		)
		if err := rows.Scan(&r.RunID, &r.SessionID, &r.PlayerID, &r.PlayerName, &r.Subject,
			&r.Duration, &r.Score, &r.Solved, &r.Skipped, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByPlayer returns a player's most recent results, newest first.
func (s *Store) ByPlayer(ctx context.Context, playerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT run_id, session_id, player_id, player_name, subject, duration, score, solved, skipped, finished_at
        FROM results
        WHERE player_id=?
        ORDER BY finished_at DESC
        LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r        Result
			finished string
		)
		if err := rows.Scan(&r.RunID, &r.SessionID, &r.PlayerID, &r.PlayerName, &r.Subject,
			&r.Duration, &r.Score, &r.Solved, &r.Skipped, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
