package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/cogerr"
)

// LearnTrick validates every action against the closed vocabulary and the
// max-length invariant before inserting, returning a structured rejection
// reason on failure without mutating state.
func (s *Store) LearnTrick(name, triggerPhrase string, actions []action.Token) (*TrickRejection, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	triggerPhrase = strings.ToLower(strings.TrimSpace(triggerPhrase))

	if name == "" {
		return &TrickRejection{Reason: "trick name must not be empty"}, nil
	}
	if len(actions) > action.MaxTrickActions {
		return &TrickRejection{Reason: "trick has too many actions (max 10)"}, nil
	}
	for _, a := range actions {
		if !action.Valid(action.Token(strings.ToLower(string(a)))) {
			return &TrickRejection{Reason: "unknown action token: " + string(a)}, nil
		}
	}

	lowered := make([]action.Token, len(actions))
	for i, a := range actions {
		lowered[i] = action.Token(strings.ToLower(string(a)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	blob, err := json.Marshal(lowered)
	if err != nil {
		return nil, cogerr.NewStorage("learn_trick", err)
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO tricks (name, trigger_phrase, actions, times_performed, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET trigger_phrase=excluded.trigger_phrase, actions=excluded.actions, updated_at=excluded.updated_at`,
		name, triggerPhrase, string(blob), now, now,
	)
	if err != nil {
		return nil, cogerr.NewStorage("learn_trick", err)
	}
	return nil, nil
}

func scanTrick(row interface{ Scan(dest ...any) error }) (Trick, error) {
	var t Trick
	var actionsBlob string
	if err := row.Scan(&t.Name, &t.TriggerPhrase, &actionsBlob, &t.TimesPerformed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Trick{}, err
	}
	var toks []action.Token
	if err := json.Unmarshal([]byte(actionsBlob), &toks); err != nil {
		return Trick{}, err
	}
	t.Actions = toks
	return t, nil
}

// GetTrick returns a trick by its case-folded name.
func (s *Store) GetTrick(name string) (*Trick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT name, trigger_phrase, actions, times_performed, created_at, updated_at FROM tricks WHERE name = ?`,
		strings.ToLower(name))
	t, err := scanTrick(row)
	if err != nil {
		return nil, nil //nolint:nilerr // not-found is a nil result, not an error
	}
	return &t, nil
}

// FindTrickByTrigger returns the first trick whose trigger_phrase is a
// substring of the case-folded phrase.
func (s *Store) FindTrickByTrigger(phrase string) (*Trick, error) {
	phrase = strings.ToLower(phrase)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT name, trigger_phrase, actions, times_performed, created_at, updated_at FROM tricks`)
	if err != nil {
		return nil, cogerr.NewStorage("find_trick_by_trigger", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTrick(rows)
		if err != nil {
			return nil, cogerr.NewStorage("find_trick_by_trigger", err)
		}
		if t.TriggerPhrase != "" && strings.Contains(phrase, t.TriggerPhrase) {
			return &t, nil
		}
	}
	return nil, nil
}

// ListTricks returns every stored trick.
func (s *Store) ListTricks() ([]Trick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT name, trigger_phrase, actions, times_performed, created_at, updated_at FROM tricks ORDER BY name`)
	if err != nil {
		return nil, cogerr.NewStorage("list_tricks", err)
	}
	defer rows.Close()
	var out []Trick
	for rows.Next() {
		t, err := scanTrick(rows)
		if err != nil {
			return nil, cogerr.NewStorage("list_tricks", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecordTrickPerformed increments a trick's performance counter.
func (s *Store) RecordTrickPerformed(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE tricks SET times_performed = times_performed + 1, updated_at = ? WHERE name = ?`,
		time.Now().UTC(), strings.ToLower(name))
	if err != nil {
		return cogerr.NewStorage("record_trick_performed", err)
	}
	return nil
}
