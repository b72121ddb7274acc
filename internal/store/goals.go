package store

import (
	"time"

	"github.com/joeunion/pidog/internal/cogerr"
)

// SetGoal creates a new active goal, clamping priority into {1..5}.
func (s *Store) SetGoal(description string, priority int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO goals (description, priority, status, progress, created_at, completed_at)
		 VALUES (?, ?, ?, '{}', ?, NULL)`,
		description, ClampPriority(priority), string(GoalActive), now,
	)
	if err != nil {
		return 0, cogerr.NewStorage("set_goal", err)
	}
	return res.LastInsertId()
}

func scanGoal(row interface{ Scan(dest ...any) error }) (Goal, error) {
	var g Goal
	var status string
	if err := row.Scan(&g.ID, &g.Description, &g.Priority, &status, &g.Progress, &g.CreatedAt, &g.CompletedAt); err != nil {
		return Goal{}, err
	}
	g.Status = GoalStatus(status)
	return g, nil
}

const goalColumns = `id, description, priority, status, progress, created_at, completed_at`

// CompleteGoal marks a goal completed.
func (s *Store) CompleteGoal(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE goals SET status = ?, completed_at = ? WHERE id = ?`,
		string(GoalCompleted), time.Now().UTC(), id)
	if err != nil {
		return cogerr.NewStorage("complete_goal", err)
	}
	return nil
}

// AbandonGoal marks a goal abandoned.
func (s *Store) AbandonGoal(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE goals SET status = ?, completed_at = ? WHERE id = ?`,
		string(GoalAbandoned), time.Now().UTC(), id)
	if err != nil {
		return cogerr.NewStorage("abandon_goal", err)
	}
	return nil
}

// UpdateGoalProgress overwrites a goal's opaque progress blob.
func (s *Store) UpdateGoalProgress(id int64, progress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE goals SET progress = ? WHERE id = ?`, progress, id)
	if err != nil {
		return cogerr.NewStorage("update_goal_progress", err)
	}
	return nil
}

// ActiveGoals returns every goal with status=active, highest priority first.
func (s *Store) ActiveGoals() ([]Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT `+goalColumns+` FROM goals WHERE status = ? ORDER BY priority DESC, created_at ASC`, string(GoalActive))
	if err != nil {
		return nil, cogerr.NewStorage("active_goals", err)
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, cogerr.NewStorage("active_goals", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListGoals returns every goal regardless of status.
func (s *Store) ListGoals() ([]Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT ` + goalColumns + ` FROM goals ORDER BY created_at DESC`)
	if err != nil {
		return nil, cogerr.NewStorage("list_goals", err)
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, cogerr.NewStorage("list_goals", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
