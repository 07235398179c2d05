package assets

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEnqueuer struct {
	months []string
	err    error
}

func (s *stubEnqueuer) EnqueueDepreciation(ctx context.Context, monthKey string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.months = append(s.months, monthKey)
	return "task-1", nil
}

func TestEnqueueRunAcceptsExplicitMonth(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, enq)

	req := httptest.NewRequest(http.MethodPost, "/depreciation-runs", strings.NewReader(`{"month":"202603"}`))
	rec := httptest.NewRecorder()
	h.EnqueueRun(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"202603"}, enq.months)
	assert.Contains(t, rec.Body.String(), "task-1")
}

func TestEnqueueRunDefaultsToCurrentMonth(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, enq)

	req := httptest.NewRequest(http.MethodPost, "/depreciation-runs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.EnqueueRun(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{""}, enq.months)
}

func TestEnqueueRunRejectsMalformedMonth(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, enq)

	req := httptest.NewRequest(http.MethodPost, "/depreciation-runs", strings.NewReader(`{"month":"2026-03"}`))
	rec := httptest.NewRecorder()
	h.EnqueueRun(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, enq.months)
}

func TestEnqueueRunWithoutQueueIsUnavailable(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/depreciation-runs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.EnqueueRun(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
