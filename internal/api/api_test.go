package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackloop/trackd/internal/alert"
	"github.com/trackloop/trackd/internal/engine"
	"github.com/trackloop/trackd/internal/geo"
	"github.com/trackloop/trackd/internal/handlers"
	"github.com/trackloop/trackd/internal/logging"
	"github.com/trackloop/trackd/internal/parser"
	trackws "github.com/trackloop/trackd/internal/storage/websocket"
	"github.com/trackloop/trackd/pkg/core"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	track, err := geo.ParseTrack([]byte(`[[0,0],[0,1],[0,2],[0,3]]`), 0)
	require.NoError(t, err)

	eng := engine.New(track, slog.Default())
	hub := trackws.NewHub(trackws.Config{}, slog.Default())
	require.NoError(t, hub.Init())
	t.Cleanup(func() { hub.Close() })

	svc := handlers.NewService(handlers.Dependencies{
		Engine:     eng,
		Alerts:     alert.New(eng, slog.Default()),
		Parser:     parser.New(slog.Default()),
		LogManager: logging.NewSlogManager(),
	})
	svc.SetBackend(hub)

	srv := &Server{
		Service: svc,
		Engine:  eng,
		Track:   track,
		Hub:     hub,
		Logger:  slog.Default(),
	}
	require.NoError(t, srv.Initialize())
	return srv
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSubmitFixEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv.Handler(), "/v1/vehicles/bus-1/fix",
		map[string]string{"sentence": "0000.0000,N,00100.0000,E,10.0,25.0,90.0,260826,101500"})

	require.Equal(t, http.StatusOK, w.Code)

	var rec core.PositionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "bus-1", rec.VehicleID)
	assert.InDelta(t, 1.0, rec.Longitude, 1e-9)
}

func TestSubmitFixEndpoint_SuppressedReturnsNoContent(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]string{"sentence": "0000.0000,N,00100.0000,E,10.0,25.0,90.0,260826,101500"}

	w := postJSON(t, srv.Handler(), "/v1/vehicles/bus-1/fix", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, srv.Handler(), "/v1/vehicles/bus-1/fix", body)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSubmitFixEndpoint_Malformed(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv.Handler(), "/v1/vehicles/bus-1/fix",
		map[string]string{"sentence": "garbage"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var e apiError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "error", e.Status)
}

func TestSubmitFixEndpoint_EmptySentence(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv.Handler(), "/v1/vehicles/bus-1/fix", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAlertEndpoint(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.Handler(), "/v1/vehicles/lead/fix",
		map[string]string{"sentence": "0000.0000,N,00200.0000,E,10.0,25.0,90.0,260826,101500"})

	w := postJSON(t, srv.Handler(), "/v1/vehicles/lead/alert",
		map[string]string{"message": "flat tire"})

	require.Equal(t, http.StatusOK, w.Code)

	var rec core.AlertRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "lead", rec.VehicleID)
	assert.Equal(t, "flat tire", rec.Message)
}

func TestSubmitStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := postJSON(t, srv.Handler(), "/v1/vehicles/bus-2/status",
		map[string]string{"message": "on schedule"})

	require.Equal(t, http.StatusOK, w.Code)

	var rec core.StatusRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "bus-2", rec.VehicleID)
}

func TestVehiclesListEndpoint(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.Handler(), "/v1/vehicles/a/fix",
		map[string]string{"sentence": "0000.0000,N,00000.0000,E,10.0,25.0,90.0,260826,101500"})
	postJSON(t, srv.Handler(), "/v1/vehicles/b/fix",
		map[string]string{"sentence": "0000.0000,N,00200.0000,E,10.0,25.0,90.0,260826,101500"})

	req := httptest.NewRequest(http.MethodGet, "/v1/vehicles", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Vehicles []core.PositionRecord `json:"vehicles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Vehicles, 2)
	assert.Equal(t, "a", resp.Vehicles[0].VehicleID)
	assert.Equal(t, "b", resp.Vehicles[1].VehicleID)
}

func TestVehicleGetEndpoint(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.Handler(), "/v1/vehicles/bus-1/fix",
		map[string]string{"sentence": "0000.0000,N,00100.0000,E,10.0,25.0,90.0,260826,101500"})

	req := httptest.NewRequest(http.MethodGet, "/v1/vehicles/bus-1", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rec core.PositionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "bus-1", rec.VehicleID)
	assert.InDelta(t, 1.0, rec.Longitude, 1e-9)
}

func TestVehicleGetEndpoint_Unknown(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/vehicles/ghost", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var e apiError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "error", e.Status)
}

func TestTrackEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/track", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "geo+json")

	var geojson struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &geojson))
	assert.Equal(t, "LineString", geojson.Type)
}
