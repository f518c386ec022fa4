package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimetableJSONRoundTrip(t *testing.T) {
	original := Timetable{
		{ClassID: "10A", Day: 0, Period: 0}: {Subject: "Math", TeacherID: "t1"},
		{ClassID: "10A", Day: 4, Period: 7}: {Subject: "Art", TeacherID: "t2"},
		{ClassID: "10B", Day: 2, Period: 3}: {Subject: "Science", TeacherID: "t1"},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Timetable
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}

func TestTeacherWeekJSONRoundTrip(t *testing.T) {
	original := TeacherWeek{
		{Day: 0, Period: 0}: {ClassID: "10A", Subject: "Math"},
		{Day: 3, Period: 5}: {ClassID: "10B", Subject: "Science"},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded TeacherWeek
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original, decoded)
}

func TestParseSlotKey(t *testing.T) {
	key, err := ParseSlotKey("10A|2|5")
	require.NoError(t, err)
	assert.Equal(t, SlotKey{ClassID: "10A", Day: 2, Period: 5}, key)

	_, err = ParseSlotKey("not-a-key")
	assert.Error(t, err)

	_, err = ParseSlotKey("10A|x|5")
	assert.Error(t, err)
}

func TestTimetableClone(t *testing.T) {
	original := Timetable{
		{ClassID: "10A", Day: 0, Period: 0}: {Subject: "Math", TeacherID: "t1"},
	}
	clone := original.Clone()
	clone[SlotKey{ClassID: "10B", Day: 1, Period: 1}] = SlotValue{Subject: "Art", TeacherID: "t2"}

	assert.Len(t, original, 1)
	assert.Len(t, clone, 2)
}
