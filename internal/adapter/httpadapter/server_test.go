package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkpulse/internal/domain"
	"parkpulse/internal/observability"
)

type fakeAssessor struct {
	assessment domain.Assessment
	err        error
	gotLat     float64
	gotLng     float64
}

func (f *fakeAssessor) LocateAndAssess(_ context.Context, lat, lng float64) (domain.Assessment, error) {
	f.gotLat, f.gotLng = lat, lng
	return f.assessment, f.err
}

type fakeReadiness struct {
	err error
}

func (f *fakeReadiness) CheckReadiness(context.Context) error { return f.err }

func newTestServer(opts Options, assessor Assessor, ready ReadinessChecker) *Server {
	if ready == nil {
		ready = &fakeReadiness{}
	}
	if opts.UpstreamTimeout == 0 {
		opts.UpstreamTimeout = 5 * time.Second
	}
	return NewServer(opts, assessor, ready,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
}

func TestProxy_RelaysUpstreamResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parking/nearest", r.URL.Path)
		assert.Equal(t, "55.74,37.63", r.URL.Query().Get("coordinates"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "parser")
		w.WriteHeader(http.StatusTeapot)
		_, err := w.Write([]byte(`{"total_found": 1}`))
		require.NoError(t, err)
	}))
	defer upstream.Close()

	srv := newTestServer(Options{NearestBaseURL: upstream.URL}, &fakeAssessor{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/nearest?coordinates=55.74,37.63", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, `{"total_found": 1}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "parser", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxy_OccupancyRoute(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/parking/occupancy", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("cost"))
		_, err := w.Write([]byte(`{"occupancy_probability": 0.5}`))
		require.NoError(t, err)
	}))
	defer upstream.Close()

	srv := newTestServer(Options{OccupancyBaseURL: upstream.URL}, &fakeAssessor{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/occupancy?cost=100", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"occupancy_probability": 0.5}`, rec.Body.String())
}

func TestProxy_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(Options{NearestBaseURL: "http://127.0.0.1:1", StaticDir: t.TempDir()}, &fakeAssessor{}, nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(method, "/api/parking/nearest", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}

func TestProxy_UnreachableUpstream(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()

	srv := newTestServer(Options{NearestBaseURL: dead.URL}, &fakeAssessor{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/nearest", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAssess_Success(t *testing.T) {
	percent := 82
	assessor := &fakeAssessor{assessment: domain.Assessment{
		Facility: domain.Facility{Name: "Городская парковка"},
		Occupancy: domain.OccupancyRecord{
			SubjectID:        "Городская парковка",
			OccupancyPercent: &percent,
			StatusBucket:     domain.StatusHigh,
			HumanStatus:      "Высокая",
		},
		AssessedAt: time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC),
	}}
	srv := newTestServer(Options{}, assessor, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/assess?coordinates=55.7418,37.6308", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 55.7418, assessor.gotLat)
	assert.Equal(t, 37.6308, assessor.gotLng)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	occ, ok := body["occupancy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Городская парковка", occ["subjectId"])
	assert.Equal(t, 82.0, occ["occupancyPercent"])
	assert.Equal(t, "high", occ["statusBucket"])
	assert.Nil(t, occ["totalSpots"])
}

func TestAssess_BadCoordinates(t *testing.T) {
	srv := newTestServer(Options{}, &fakeAssessor{}, nil)

	for _, tc := range []struct {
		name  string
		query string
	}{
		{"missing", ""},
		{"single value", "coordinates=55.74"},
		{"non numeric", "coordinates=abc,def"},
		{"three parts", "coordinates=1,2,3"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/assess?"+tc.query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAssess_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"out of range coordinates", domain.ErrInvalidCoordinates, http.StatusBadRequest},
		{"upstream failure", &domain.UpstreamError{Stage: domain.StageNearest, StatusCode: 500}, http.StatusBadGateway},
		{"malformed upstream body", &domain.MalformedResponseError{Stage: domain.StageNearest, Err: errors.New("bad json")}, http.StatusBadGateway},
		{"unexpected error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(Options{}, &fakeAssessor{err: tc.err}, nil)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/assess?coordinates=55.74,37.63", nil))

			assert.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestAssess_InternalErrorHidesDetail(t *testing.T) {
	srv := newTestServer(Options{}, &fakeAssessor{err: errors.New("secret detail")}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/assess?coordinates=55.74,37.63", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(Options{}, &fakeAssessor{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(Options{}, &fakeAssessor{}, &fakeReadiness{})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(Options{}, &fakeAssessor{}, &fakeReadiness{err: errors.New("locator not configured")})

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not ready")
	})
}

func TestParseCoordinates(t *testing.T) {
	lat, lng, err := parseCoordinates(" 55.7418 , 37.6308 ")
	require.NoError(t, err)
	assert.Equal(t, 55.7418, lat)
	assert.Equal(t, 37.6308, lng)

	_, _, err = parseCoordinates("55.7418;37.6308")
	assert.Error(t, err)
}
