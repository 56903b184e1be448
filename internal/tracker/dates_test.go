package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectDueDate(t *testing.T) {
	got, err := ParseProjectDueDate("2026-04-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), *got)

	got, err = ParseProjectDueDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseProjectDueDate("30/04/2026")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseTaskDueDate(t *testing.T) {
	got, err := ParseTaskDueDate("2026-04-30T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 30, 8, 0, 0, 0, time.UTC), *got)

	got, err = ParseTaskDueDate("2026-04-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), *got)

	_, err = ParseTaskDueDate("tomorrow")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPatchSetDueDate(t *testing.T) {
	var pp ProjectPatch
	require.NoError(t, pp.SetDueDate(""))
	assert.True(t, pp.ClearDueDate)
	assert.Nil(t, pp.DueDate)

	var tp TaskPatch
	require.NoError(t, tp.SetDueDate("2026-01-02T03:04:05Z"))
	assert.False(t, tp.ClearDueDate)
	require.NotNil(t, tp.DueDate)
	assert.Equal(t, 3, tp.DueDate.Hour())

	assert.Error(t, tp.SetDueDate("nope"))
}
