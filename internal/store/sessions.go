package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = `id, user_id, task_id, duration, break_duration, started_at, ended_at, completed`

// StartSession opens a deep work session record.
func (s *Store) StartSession(ctx context.Context, sess DeepWorkSession) (*DeepWorkSession, error) {
	sess.ID = uuid.NewString()
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deep_work_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, NULL, ?)`,
		sess.ID, sess.UserID, nullString(sess.TaskID), sess.Duration, sess.BreakDuration,
		formatTime(sess.StartedAt), boolInt(sess.Completed),
	)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return s.GetSession(ctx, sess.ID)
}

// EndSession stamps ended_at and records whether the focus phase ran to completion.
func (s *Store) EndSession(ctx context.Context, id string, endedAt time.Time, completed bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE deep_work_sessions SET ended_at = ?, completed = ? WHERE id = ?`,
		formatTime(endedAt), boolInt(completed), id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return expectRow(res, "end session "+id)
}

func (s *Store) GetSession(ctx context.Context, id string) (*DeepWorkSession, error) {
	sess := &DeepWorkSession{}
	var taskID, endedAt sql.NullString
	var startedAt string
	var completed int

	err := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM deep_work_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &taskID, &sess.Duration, &sess.BreakDuration, &startedAt, &endedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	sess.TaskID = stringPtr(taskID)
	sess.StartedAt = parseTime(startedAt)
	sess.EndedAt = timePtr(endedAt)
	sess.Completed = completed == 1
	return sess, nil
}

// TotalFocusSeconds sums the planned focus duration of every session the user started.
func (s *Store) TotalFocusSeconds(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(duration), 0) FROM deep_work_sessions WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total focus: %w", err)
	}
	return total, nil
}

// FocusSummary aggregates completed sessions per UTC day in [from, to).
func (s *Store) FocusSummary(ctx context.Context, userID string, from, to time.Time) ([]DailyFocus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(started_at, 1, 10) AS day, COALESCE(SUM(duration), 0), COUNT(*)
		FROM deep_work_sessions
		WHERE user_id = ? AND completed = 1
		  AND started_at >= ? AND started_at < ?
		GROUP BY day
		ORDER BY day`,
		userID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("focus summary: %w", err)
	}
	defer rows.Close()

	var days []DailyFocus
	for rows.Next() {
		var d DailyFocus
		if err := rows.Scan(&d.Date, &d.TotalSeconds, &d.SessionCount); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
