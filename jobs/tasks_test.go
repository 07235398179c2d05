package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMonth(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	asOf, err := resolveMonth("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), asOf)

	asOf, err = resolveMonth("202602", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), asOf)

	_, err = resolveMonth("2026-02", now)
	assert.Error(t, err)
}

func TestNewDepreciationTask(t *testing.T) {
	task, err := NewDepreciationTask("202603")
	require.NoError(t, err)
	assert.Equal(t, TaskDepreciation, task.Type())
	assert.JSONEq(t, `{"month_key":"202603"}`, string(task.Payload()))
}
