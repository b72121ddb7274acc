package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/joeunion/pidog/internal/cogerr"
	"github.com/joeunion/pidog/internal/logging"
)

// Remember inserts a new memory, clamping importance on write, and returns
// its id.
func (s *Store) Remember(category Category, subject, content string, importance float64) (int64, error) {
	if !ValidCategory(category) {
		return 0, cogerr.NewValidation("category", fmt.Sprintf("unknown category %q", category))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	importance = ClampImportance(importance)
	res, err := s.db.Exec(
		`INSERT INTO memories (category, subject, content, importance, created_at, last_accessed, access_count)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		string(category), subject, content, importance, now, now,
	)
	if err != nil {
		return 0, cogerr.NewStorage("remember", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, cogerr.NewStorage("remember", err)
	}
	logging.Get(logging.CategoryStore).Debug("remembered id=%d subject=%q category=%s", id, subject, category)
	return id, nil
}

func scanMemory(row interface {
	Scan(dest ...any) error
}) (Memory, error) {
	var m Memory
	var category string
	if err := row.Scan(&m.ID, &category, &m.Subject, &m.Content, &m.Importance, &m.CreatedAt, &m.LastAccessed, &m.AccessCount); err != nil {
		return Memory{}, err
	}
	m.Category = Category(category)
	return m, nil
}

// touch bumps last_accessed and access_count for the given ids in a single
// batched update, as recall must do atomically (spec §3, §4.1).
func (s *Store) touch(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	placeholders := make([]any, 0, len(ids)+1)
	placeholders = append(placeholders, now)
	q := "UPDATE memories SET last_accessed = ?, access_count = access_count + 1 WHERE id IN ("
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		placeholders = append(placeholders, id)
	}
	q += ")"
	_, err := s.db.Exec(q, placeholders...)
	return err
}

// Recall runs a full-text-ranked search over content+subject, optionally
// restricted to a category, and atomically touches every returned row.
func (s *Store) Recall(query string, limit int, category *Category) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	q := `SELECT m.id, m.category, m.subject, m.content, m.importance, m.created_at, m.last_accessed, m.access_count
	      FROM memories m
	      JOIN memories_fts f ON f.rowid = m.id
	      WHERE memories_fts MATCH ?`
	args := []any{ftsQuery(query)}
	if category != nil {
		q += " AND m.category = ?"
		args = append(args, string(*category))
	}
	q += " ORDER BY bm25(memories_fts) LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, cogerr.NewStorage("recall", err)
	}
	defer rows.Close()

	var out []Memory
	var ids []int64
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, cogerr.NewStorage("recall", err)
		}
		out = append(out, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, cogerr.NewStorage("recall", err)
	}
	if err := s.touch(ids); err != nil {
		return nil, cogerr.NewStorage("recall/touch", err)
	}
	now := time.Now().UTC()
	for i := range out {
		out[i].LastAccessed = now
		out[i].AccessCount++
	}
	return out, nil
}

// ftsQuery wraps a free-form query for safe FTS5 MATCH use: each token is
// quoted so punctuation in user/LLM-supplied text can't break the query
// syntax, and tokens are OR'd so partial matches still rank.
func ftsQuery(query string) string {
	if query == "" {
		return `""`
	}
	var out string
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == ' ' {
			if i > start {
				tok := query[start:i]
				if out != "" {
					out += " OR "
				}
				out += "\"" + strings.ReplaceAll(tok, "\"", "\"\"") + "\""
			}
			start = i + 1
		}
	}
	if out == "" {
		return `""`
	}
	return out
}

// BySubject returns every memory whose subject exactly matches.
func (s *Store) BySubject(subject string) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, category, subject, content, importance, created_at, last_accessed, access_count
		 FROM memories WHERE subject = ? ORDER BY importance DESC`, subject)
	if err != nil {
		return nil, cogerr.NewStorage("by_subject", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

// ByCategory returns up to limit memories in a category, most important first.
func (s *Store) ByCategory(category Category, limit int) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, category, subject, content, importance, created_at, last_accessed, access_count
		 FROM memories WHERE category = ? ORDER BY importance DESC LIMIT ?`, string(category), limit)
	if err != nil {
		return nil, cogerr.NewStorage("by_category", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

// Important returns up to limit memories with importance >= minImportance.
func (s *Store) Important(minImportance float64, limit int) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, category, subject, content, importance, created_at, last_accessed, access_count
		 FROM memories WHERE importance >= ? ORDER BY importance DESC LIMIT ?`, minImportance, limit)
	if err != nil {
		return nil, cogerr.NewStorage("important", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

// UpdateImportance clamps and writes a single memory's importance.
func (s *Store) UpdateImportance(id int64, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE memories SET importance = ? WHERE id = ?`, ClampImportance(value), id)
	if err != nil {
		return cogerr.NewStorage("update_importance", err)
	}
	return nil
}

// UpdateContent rewrites a memory's content.
func (s *Store) UpdateContent(id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE memories SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return cogerr.NewStorage("update_content", err)
	}
	return nil
}

// Delete removes a single memory.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return cogerr.NewStorage("delete", err)
	}
	return nil
}

// BulkUpdateImportance applies many importance updates as one transaction.
func (s *Store) BulkUpdateImportance(updates []ImportanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return cogerr.NewStorage("bulk_update_importance", err)
	}
	stmt, err := tx.Prepare(`UPDATE memories SET importance = ? WHERE id = ?`)
	if err != nil {
		tx.Rollback()
		return cogerr.NewStorage("bulk_update_importance", err)
	}
	defer stmt.Close()
	for _, u := range updates {
		if _, err := stmt.Exec(ClampImportance(u.Importance), u.ID); err != nil {
			tx.Rollback()
			return cogerr.NewStorage("bulk_update_importance", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cogerr.NewStorage("bulk_update_importance", err)
	}
	return nil
}

// BulkDelete removes many memories in one transaction.
func (s *Store) BulkDelete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return cogerr.NewStorage("bulk_delete", err)
	}
	stmt, err := tx.Prepare(`DELETE FROM memories WHERE id = ?`)
	if err != nil {
		tx.Rollback()
		return cogerr.NewStorage("bulk_delete", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			tx.Rollback()
			return cogerr.NewStorage("bulk_delete", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cogerr.NewStorage("bulk_delete", err)
	}
	return nil
}

// Stale returns memories not accessed in daysSinceAccess days with
// importance <= maxImportance — the importance-decay candidate set.
func (s *Store) Stale(daysSinceAccess int, maxImportance float64) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysSinceAccess)
	rows, err := s.db.Query(
		`SELECT id, category, subject, content, importance, created_at, last_accessed, access_count
		 FROM memories WHERE last_accessed < ? AND importance <= ?`, cutoff, maxImportance)
	if err != nil {
		return nil, cogerr.NewStorage("stale", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

// PruneCandidates returns up to limit memories with importance <=
// maxImportance, ordered importance asc, access_count asc, last_accessed asc
// — the weakest memories first.
func (s *Store) PruneCandidates(maxImportance float64, limit int) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, category, subject, content, importance, created_at, last_accessed, access_count
		 FROM memories WHERE importance <= ?
		 ORDER BY importance ASC, access_count ASC, last_accessed ASC LIMIT ?`, maxImportance, limit)
	if err != nil {
		return nil, cogerr.NewStorage("prune_candidates", err)
	}
	defer rows.Close()
	return collectMemories(rows)
}

// BySubjectGrouped returns every memory grouped by subject, used by the
// maintainer's consolidation phase.
func (s *Store) BySubjectGrouped() (map[string][]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, category, subject, content, importance, created_at, last_accessed, access_count
		 FROM memories ORDER BY subject, importance DESC`)
	if err != nil {
		return nil, cogerr.NewStorage("by_subject_grouped", err)
	}
	defer rows.Close()

	out := make(map[string][]Memory)
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, cogerr.NewStorage("by_subject_grouped", err)
		}
		out[m.Subject] = append(out[m.Subject], m)
	}
	return out, rows.Err()
}

func collectMemories(rows *sql.Rows) ([]Memory, error) {
	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, cogerr.NewStorage("scan", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, cogerr.NewStorage("scan", err)
	}
	return out, nil
}
