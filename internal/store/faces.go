package store

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/joeunion/pidog/internal/cogerr"
)

// encodeFloat32s serializes a face encoding vector into bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeFloat32s(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// StoreFace inserts a new face encoding for name.
func (s *Store) StoreFace(name string, encoding []float32, imageHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO faces (name, encoding, image_hash, times_seen, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		name, encodeFloat32s(encoding), imageHash, now, now,
	)
	if err != nil {
		return 0, cogerr.NewStorage("store_face", err)
	}
	return res.LastInsertId()
}

func scanFace(row interface{ Scan(dest ...any) error }) (Face, error) {
	var f Face
	var blob []byte
	if err := row.Scan(&f.ID, &f.Name, &blob, &f.ImageHash, &f.TimesSeen, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return Face{}, err
	}
	f.Encoding = decodeFloat32s(blob)
	return f, nil
}

const faceColumns = `id, name, encoding, image_hash, times_seen, created_at, updated_at`

// GetFacesByName returns every stored face entry for name.
func (s *Store) GetFacesByName(name string) ([]Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT `+faceColumns+` FROM faces WHERE name = ? ORDER BY times_seen DESC`, name)
	if err != nil {
		return nil, cogerr.NewStorage("get_faces_by_name", err)
	}
	defer rows.Close()
	var out []Face
	for rows.Next() {
		f, err := scanFace(rows)
		if err != nil {
			return nil, cogerr.NewStorage("get_faces_by_name", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// IncrementFaceSeen bumps times_seen for a face id.
func (s *Store) IncrementFaceSeen(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE faces SET times_seen = times_seen + 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return cogerr.NewStorage("increment_face_seen", err)
	}
	return nil
}

func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// DuplicateFaces groups faces within the same name whose encodings lie
// within distanceThreshold of each other (Euclidean distance).
func (s *Store) DuplicateFaces(distanceThreshold float64) ([][]Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT ` + faceColumns + ` FROM faces ORDER BY name, id`)
	if err != nil {
		return nil, cogerr.NewStorage("duplicate_faces", err)
	}
	defer rows.Close()

	byName := make(map[string][]Face)
	for rows.Next() {
		f, err := scanFace(rows)
		if err != nil {
			return nil, cogerr.NewStorage("duplicate_faces", err)
		}
		byName[f.Name] = append(byName[f.Name], f)
	}
	if err := rows.Err(); err != nil {
		return nil, cogerr.NewStorage("duplicate_faces", err)
	}

	var groups [][]Face
	for _, faces := range byName {
		used := make([]bool, len(faces))
		for i := range faces {
			if used[i] {
				continue
			}
			group := []Face{faces[i]}
			used[i] = true
			for j := i + 1; j < len(faces); j++ {
				if used[j] {
					continue
				}
				if euclideanDistance(faces[i].Encoding, faces[j].Encoding) <= distanceThreshold {
					group = append(group, faces[j])
					used[j] = true
				}
			}
			if len(group) > 1 {
				groups = append(groups, group)
			}
		}
	}
	return groups, nil
}

// MergeFaceEntries sums times_seen from deleteIDs into keepID, then deletes
// deleteIDs.
func (s *Store) MergeFaceEntries(keepID int64, deleteIDs []int64) error {
	if len(deleteIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return cogerr.NewStorage("merge_face_entries", err)
	}

	var total int64
	qmarks := bytes.Repeat([]byte("?,"), len(deleteIDs))
	qmarks = qmarks[:len(qmarks)-1]
	args := make([]any, len(deleteIDs))
	for i, id := range deleteIDs {
		args[i] = id
	}
	row := tx.QueryRow("SELECT COALESCE(SUM(times_seen),0) FROM faces WHERE id IN ("+string(qmarks)+")", args...)
	if err := row.Scan(&total); err != nil {
		tx.Rollback()
		return cogerr.NewStorage("merge_face_entries", err)
	}

	if _, err := tx.Exec(`UPDATE faces SET times_seen = times_seen + ?, updated_at = ? WHERE id = ?`, total, time.Now().UTC(), keepID); err != nil {
		tx.Rollback()
		return cogerr.NewStorage("merge_face_entries", err)
	}
	if _, err := tx.Exec("DELETE FROM faces WHERE id IN ("+string(qmarks)+")", args...); err != nil {
		tx.Rollback()
		return cogerr.NewStorage("merge_face_entries", err)
	}
	return tx.Commit()
}
