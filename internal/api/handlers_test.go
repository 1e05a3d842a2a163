package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/signalhub/internal/api/mocks"
	"github.com/mattjoyce/signalhub/internal/auth"
	"github.com/mattjoyce/signalhub/internal/hub"
	"github.com/mattjoyce/signalhub/internal/journal"
)

const (
	testAdminKey  = "admin-key"
	testReadToken = "read-token"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, h HubService, j JournalReader) *Server {
	t.Helper()
	return New(Config{
		Listen: "127.0.0.1:0",
		APIKey: testAdminKey,
		Tokens: []auth.TokenConfig{
			{Token: testReadToken, Scopes: []string{"signals:ro", "journal:ro"}},
		},
	}, h, j, hub.NewFeed(10), nil, newTestLogger())
}

func doRequest(s *Server, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	return rec
}

func TestHealthzNoAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHub := mocks.NewMockHubService(ctrl)
	mockHub.EXPECT().Stats().Return(hub.Stats{Signals: 2, Subscribers: 5})
	mockJournal := mocks.NewMockJournalReader(ctrl)
	mockJournal.EXPECT().Depth(gomock.Any()).Return(17, nil)

	s := newTestServer(t, mockHub, mockJournal)
	rec := doRequest(s, "GET", "/healthz", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Signals)
	assert.Equal(t, 5, resp.Subscribers)
	assert.Equal(t, 17, resp.JournalDepth)
	assert.Equal(t, "none", resp.ExecutorState)
}

func TestAuthRequired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := newTestServer(t, mocks.NewMockHubService(ctrl), mocks.NewMockJournalReader(ctrl))

	rec := doRequest(s, "GET", "/v1/signals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, "GET", "/v1/signals", "wrong-key", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScopeEnforcement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := newTestServer(t, mocks.NewMockHubService(ctrl), mocks.NewMockJournalReader(ctrl))

	// Read token lacks signals:rw, so emitting is forbidden.
	rec := doRequest(s, "POST", "/v1/signals/test/emit", testReadToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEmitSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHub := mocks.NewMockHubService(ctrl)
	mockHub.EXPECT().
		Emit(gomock.Any(), "order.created", gomock.Any()).
		DoAndReturn(func(_ context.Context, name string, payload json.RawMessage) (*hub.EmitResult, error) {
			assert.JSONEq(t, `{"id":1}`, string(payload))
			return &hub.EmitResult{
				EmissionID:  "em-1",
				Signal:      name,
				Mode:        journal.ModeSync,
				Subscribers: 3,
				Delivered:   3,
			}, nil
		})

	s := newTestServer(t, mockHub, mocks.NewMockJournalReader(ctrl))
	body := []byte(`{"payload":{"id":1}}`)
	rec := doRequest(s, "POST", "/v1/signals/order.created/emit", testAdminKey, body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp EmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "em-1", resp.EmissionID)
	assert.Equal(t, "sync", resp.Mode)
	assert.Equal(t, 3, resp.Delivered)
}

func TestEmitAsyncAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHub := mocks.NewMockHubService(ctrl)
	mockHub.EXPECT().
		EmitAsync(gomock.Any(), "job.done", gomock.Any()).
		Return(&hub.EmitResult{
			EmissionID: "em-2",
			Signal:     "job.done",
			Mode:       journal.ModeAsync,
			Submitted:  2,
		}, nil)

	s := newTestServer(t, mockHub, mocks.NewMockJournalReader(ctrl))
	rec := doRequest(s, "POST", "/v1/signals/job.done/emit?mode=async", testAdminKey, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp EmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "async", resp.Mode)
	assert.Equal(t, 2, resp.Submitted)
}

func TestEmitAsyncExecutorStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHub := mocks.NewMockHubService(ctrl)
	mockHub.EXPECT().
		EmitAsync(gomock.Any(), "s", gomock.Any()).
		Return(&hub.EmitResult{}, fmt.Errorf("wrapped: %w", hub.ErrExecutorStopped))

	s := newTestServer(t, mockHub, mocks.NewMockJournalReader(ctrl))
	rec := doRequest(s, "POST", "/v1/signals/s/emit?mode=async", testAdminKey, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "executor stopped")
}

func TestEmitBadMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := newTestServer(t, mocks.NewMockHubService(ctrl), mocks.NewMockJournalReader(ctrl))
	rec := doRequest(s, "POST", "/v1/signals/s/emit?mode=later", testAdminKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmitInvalidPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := newTestServer(t, mocks.NewMockHubService(ctrl), mocks.NewMockJournalReader(ctrl))
	rec := doRequest(s, "POST", "/v1/signals/s/emit", testAdminKey, []byte(`{"payload":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignalsList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHub := mocks.NewMockHubService(ctrl)
	mockHub.EXPECT().Signals().Return([]hub.SignalInfo{
		{Name: "alpha", Subscribers: 2},
		{Name: "beta", Subscribers: 1},
	})

	s := newTestServer(t, mockHub, mocks.NewMockJournalReader(ctrl))
	rec := doRequest(s, "GET", "/v1/signals", testReadToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SignalsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Signals, 2)
	assert.Equal(t, "alpha", resp.Signals[0].Name)
}

func TestJournalRecent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJournal := mocks.NewMockJournalReader(ctrl)
	mockJournal.EXPECT().Recent(gomock.Any(), 2).Return([]journal.Emission{
		{ID: "em-9", Signal: "s", Mode: journal.ModeSync, Subscribers: 1, CreatedAt: time.Now().UTC()},
		{ID: "em-8", Signal: "s", Mode: journal.ModeAsync, Subscribers: 2, Failures: 1},
	}, nil)

	s := newTestServer(t, mocks.NewMockHubService(ctrl), mockJournal)
	rec := doRequest(s, "GET", "/v1/journal/recent?limit=2", testReadToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Emissions, 2)
	assert.Equal(t, "em-9", resp.Emissions[0].EmissionID)
	assert.Equal(t, 1, resp.Emissions[1].Failures)
}

func TestJournalRecentLimitValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := newTestServer(t, mocks.NewMockHubService(ctrl), mocks.NewMockJournalReader(ctrl))

	for _, limit := range []string{"0", "-1", "501", "abc"} {
		rec := doRequest(s, "GET", "/v1/journal/recent?limit="+limit, testReadToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}
