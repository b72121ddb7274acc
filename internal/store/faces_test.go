package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDuplicateFacesAndMerge(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.StoreFace("alice", []float32{0, 0, 0}, "hash1")
	require.NoError(t, err)
	id2, err := s.StoreFace("alice", []float32{0.01, 0, 0}, "hash2")
	require.NoError(t, err)
	_, err = s.StoreFace("bob", []float32{5, 5, 5}, "hash3")
	require.NoError(t, err)

	require.NoError(t, s.IncrementFaceSeen(id2))
	require.NoError(t, s.IncrementFaceSeen(id2))

	groups, err := s.DuplicateFaces(0.4)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)

	var keepID int64
	var deleteIDs []int64
	maxSeen := int64(-1)
	for _, f := range groups[0] {
		if f.TimesSeen > maxSeen {
			maxSeen = f.TimesSeen
		}
	}
	for _, f := range groups[0] {
		if f.TimesSeen == maxSeen && keepID == 0 {
			keepID = f.ID
		} else {
			deleteIDs = append(deleteIDs, f.ID)
		}
	}
	require.Equal(t, id2, keepID)

	require.NoError(t, s.MergeFaceEntries(keepID, deleteIDs))

	faces, err := s.GetFacesByName("alice")
	require.NoError(t, err)
	require.Len(t, faces, 1)
	require.Equal(t, id2, faces[0].ID)
	require.Equal(t, int64(4), faces[0].TimesSeen) // 1 (seed) + 2 (incremented) + 1 (merged from id1)
}

func TestDuplicateFacesNeverCrossesNames(t *testing.T) {
	s := openTestStore(t)

	_, err := s.StoreFace("alice", []float32{0, 0, 0}, "h1")
	require.NoError(t, err)
	_, err = s.StoreFace("bob", []float32{0, 0, 0}, "h2")
	require.NoError(t, err)

	groups, err := s.DuplicateFaces(0.4)
	require.NoError(t, err)
	require.Empty(t, groups)
}
