package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainguard/internal/types"
)

// fakeEnqueuer records evaluation requests.
type fakeEnqueuer struct {
	triggers []types.TriggerSource
}

func (f *fakeEnqueuer) Enqueue(src types.TriggerSource) bool {
	f.triggers = append(f.triggers, src)
	return true
}

func newTestServer() (*Server, *fakeEnqueuer) {
	enq := &fakeEnqueuer{}
	srv := NewServer(enq, []string{"binary_sensor.front_door", "binary_sensor.kitchen_window"}, slog.Default())
	return srv, enq
}

func postDoorEvent(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/door", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDoorEvent_OpenEnqueuesEvaluation(t *testing.T) {
	srv, enq := newTestServer()

	rec := postDoorEvent(t, srv, `{"entity_id":"binary_sensor.front_door","new_state":"on"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enq.triggers, 1)
	assert.Equal(t, types.TriggerDoorOpen, enq.triggers[0])
}

func TestDoorEvent_CloseDoesNotEnqueue(t *testing.T) {
	srv, enq := newTestServer()

	rec := postDoorEvent(t, srv, `{"entity_id":"binary_sensor.front_door","new_state":"off"}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, enq.triggers)
}

func TestDoorEvent_UnmonitoredEntityIgnored(t *testing.T) {
	srv, enq := newTestServer()

	rec := postDoorEvent(t, srv, `{"entity_id":"binary_sensor.garage","new_state":"on"}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, enq.triggers)
}

func TestDoorEvent_InvalidPayload(t *testing.T) {
	srv, enq := newTestServer()

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing entity_id", `{"new_state":"on"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postDoorEvent(t, srv, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, enq.triggers)
		})
	}
}

func TestDoorEvent_UnknownStateDoesNotEnqueue(t *testing.T) {
	srv, enq := newTestServer()

	rec := postDoorEvent(t, srv, `{"entity_id":"binary_sensor.front_door","new_state":"unavailable"}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, enq.triggers)
}
