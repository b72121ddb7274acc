package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertRoomCreateAndUpdate(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertRoom("Kitchen", "smells like bacon", []string{"fridge", "stove"}, "hash1"))

	room, err := s.GetRoom("kitchen")
	require.NoError(t, err)
	require.NotNil(t, room)
	require.Equal(t, int64(1), room.TimesVisited)
	require.Equal(t, []string{"fridge", "stove"}, room.Landmarks)

	require.NoError(t, s.UpsertRoom("kitchen", "smells like bacon, again", []string{"fridge", "stove", "bowl"}, "hash2"))

	room, err = s.GetRoom("kitchen")
	require.NoError(t, err)
	require.Equal(t, int64(2), room.TimesVisited)
	require.Equal(t, "smells like bacon, again", room.Description)
	require.Equal(t, []string{"fridge", "stove", "bowl"}, room.Landmarks)
}

func TestGetRoomNotFound(t *testing.T) {
	s := openTestStore(t)

	room, err := s.GetRoom("attic")
	require.NoError(t, err)
	require.Nil(t, room)
}

func TestListRoomsOrderedByName(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertRoom("living room", "", nil, ""))
	require.NoError(t, s.UpsertRoom("bedroom", "", nil, ""))

	rooms, err := s.ListRooms()
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	require.Equal(t, "bedroom", rooms[0].Name)
	require.Equal(t, "living room", rooms[1].Name)
}

func TestSaveAndRecentConversations(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveConversation("talked about the weather")
	require.NoError(t, err)
	_, err = s.SaveConversation("talked about tennis")
	require.NoError(t, err)

	convos, err := s.RecentConversations(1)
	require.NoError(t, err)
	require.Len(t, convos, 1)
	require.Equal(t, "talked about tennis", convos[0].Summary)
}
