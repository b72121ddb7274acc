package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/joeunion/pidog/internal/cogerr"
)

// UpsertRoom creates or updates a case-folded, uniquely-named room.
func (s *Store) UpsertRoom(name, description string, landmarks []string, imageHash string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	blob, err := json.Marshal(landmarks)
	if err != nil {
		return cogerr.NewStorage("upsert_room", err)
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO rooms (name, description, landmarks, image_hash, times_visited, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET description=excluded.description, landmarks=excluded.landmarks,
		   image_hash=excluded.image_hash, times_visited=rooms.times_visited+1, updated_at=excluded.updated_at`,
		name, description, string(blob), imageHash, now, now,
	)
	if err != nil {
		return cogerr.NewStorage("upsert_room", err)
	}
	return nil
}

func scanRoom(row interface{ Scan(dest ...any) error }) (Room, error) {
	var r Room
	var blob string
	if err := row.Scan(&r.Name, &r.Description, &blob, &r.ImageHash, &r.TimesVisited, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Room{}, err
	}
	var landmarks []string
	if err := json.Unmarshal([]byte(blob), &landmarks); err != nil {
		return Room{}, err
	}
	r.Landmarks = landmarks
	return r, nil
}

const roomColumns = `name, description, landmarks, image_hash, times_visited, created_at, updated_at`

// GetRoom returns a room by its case-folded name.
func (s *Store) GetRoom(name string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`SELECT `+roomColumns+` FROM rooms WHERE name = ?`, strings.ToLower(name))
	r, err := scanRoom(row)
	if err != nil {
		return nil, nil //nolint:nilerr // not-found is a nil result
	}
	return &r, nil
}

// ListRooms returns every stored room.
func (s *Store) ListRooms() ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT ` + roomColumns + ` FROM rooms ORDER BY name`)
	if err != nil {
		return nil, cogerr.NewStorage("list_rooms", err)
	}
	defer rows.Close()
	var out []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, cogerr.NewStorage("list_rooms", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveConversation persists an opaque conversation summary.
func (s *Store) SaveConversation(summary string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`INSERT INTO conversations (summary, created_at) VALUES (?, ?)`, summary, time.Now().UTC())
	if err != nil {
		return 0, cogerr.NewStorage("save_conversation", err)
	}
	return res.LastInsertId()
}

// RecentConversations returns up to limit conversations, most recent first.
func (s *Store) RecentConversations(limit int) ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT id, summary, created_at FROM conversations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, cogerr.NewStorage("recent_conversations", err)
	}
	defer rows.Close()
	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Summary, &c.CreatedAt); err != nil {
			return nil, cogerr.NewStorage("recent_conversations", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
