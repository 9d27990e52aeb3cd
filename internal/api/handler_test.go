package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aviation_calculator/internal/models"
	"aviation_calculator/internal/takeoff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHistory struct {
	mu     sync.Mutex
	calcs  []*models.Calculation
	limits []int
	err    error
}

func (m *mockHistory) InsertBatch(calcs []*models.Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calcs = append(m.calcs, calcs...)
	return nil
}

func (m *mockHistory) Recent(limit int) ([]*models.Calculation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	if m.err != nil {
		return nil, m.err
	}
	if limit > len(m.calcs) {
		limit = len(m.calcs)
	}
	return m.calcs[:limit], nil
}

func (m *mockHistory) DeleteOlderThan(time.Time) (int64, error) {
	return 0, nil
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetHealth(t *testing.T) {
	router := NewHandler(takeoff.Rotax912ULS, nil, nil).Routes(nil)

	rec := serve(t, router, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["history"])
}

func TestCalculateTakeoff(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		groundRoll     float64
		distanceTo50Ft float64
	}{
		{
			name:           "dry grass",
			body:           `{"engine":"uls","mass_kg":472.5,"pressure_altitude_ft":0,"temperature_c":15,"grass":{}}`,
			groundRoll:     100,
			distanceTo50Ft: 225,
		},
		{
			name:           "default engine with slush",
			body:           `{"mass_kg":472.5,"pressure_altitude_ft":0,"temperature_c":15,"grass":{},"contamination":"slush"}`,
			groundRoll:     130,
			distanceTo50Ft: 292.5,
		},
		{
			name:           "pressure altitude from qnh",
			body:           `{"engine":"rotax912uls","mass_kg":520,"qnh_hpa":1013.25,"elevation_ft":364,"temperature_c":21}`,
			groundRoll:     115.52,
			distanceTo50Ft: 286.61,
		},
		{
			name:           "wet and soft grass",
			body:           `{"mass_kg":600,"pressure_altitude_ft":0,"temperature_c":15,"grass":{"wet":true,"soft_ground":true}}`,
			groundRoll:     252.45,
			distanceTo50Ft: 618.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make(chan *models.Calculation, 1)
			router := NewHandler(takeoff.Rotax912ULS, records, nil).Routes(nil)

			rec := serve(t, router, http.MethodPost, "/api/v1/takeoff", tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode[map[string]any](t, rec)
			assert.Equal(t, tt.groundRoll, body["ground_roll_m"])
			assert.Equal(t, tt.distanceTo50Ft, body["distance_to_50ft_m"])
			assert.NotEmpty(t, body["id"])

			select {
			case calc := <-records:
				assert.Equal(t, body["id"], calc.ID)
				assert.Equal(t, models.SourceAPI, calc.Source)
				assert.False(t, calc.Failed())
			default:
				t.Fatal("calculation was not recorded")
			}
		})
	}
}

func TestCalculateTakeoff_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		contains string
		recorded bool
	}{
		{name: "malformed json", body: `{"mass_kg":`, status: http.StatusBadRequest, contains: "invalid request body"},
		{name: "unknown field", body: `{"mass":500}`, status: http.StatusBadRequest, contains: "invalid request body"},
		{name: "unknown engine", body: `{"engine":"912is","mass_kg":500,"pressure_altitude_ft":0,"temperature_c":15}`, status: http.StatusBadRequest, contains: "unknown engine"},
		{name: "unknown contamination", body: `{"mass_kg":500,"pressure_altitude_ft":0,"temperature_c":15,"contamination":"ice"}`, status: http.StatusBadRequest, contains: "unknown surface contamination"},
		{name: "missing mass", body: `{"pressure_altitude_ft":0,"temperature_c":15}`, status: http.StatusBadRequest, contains: "mass_kg is required"},
		{name: "missing temperature", body: `{"mass_kg":500,"pressure_altitude_ft":0}`, status: http.StatusBadRequest, contains: "temperature_c is required"},
		{name: "missing pressure altitude", body: `{"mass_kg":500,"qnh_hpa":1013,"temperature_c":15}`, status: http.StatusBadRequest, contains: "pressure_altitude_ft or qnh_hpa"},
		{name: "mass too low", body: `{"mass_kg":400,"pressure_altitude_ft":0,"temperature_c":15}`, status: http.StatusUnprocessableEntity, contains: "below the minimum", recorded: true},
		{name: "slope too steep", body: `{"mass_kg":500,"pressure_altitude_ft":0,"temperature_c":15,"slope_pct":30}`, status: http.StatusUnprocessableEntity, contains: "slope", recorded: true},
		{name: "pressure altitude outside the atmosphere", body: `{"mass_kg":500,"pressure_altitude_ft":300000,"temperature_c":15}`, status: http.StatusUnprocessableEntity, contains: "ICAO", recorded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make(chan *models.Calculation, 1)
			router := NewHandler(takeoff.Rotax912ULS, records, nil).Routes(nil)

			rec := serve(t, router, http.MethodPost, "/api/v1/takeoff", tt.body)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[map[string]string](t, rec)
			assert.Contains(t, strings.ToLower(body["error"]), strings.ToLower(tt.contains))

			select {
			case calc := <-records:
				assert.True(t, tt.recorded, "unexpected record")
				assert.True(t, calc.Failed())
			default:
				assert.False(t, tt.recorded, "calculation was not recorded")
			}
		})
	}
}

func TestCalculateTakeoff_FullQueueDoesNotBlock(t *testing.T) {
	records := make(chan *models.Calculation)
	router := NewHandler(takeoff.Rotax912ULS, records, nil).Routes(nil)

	rec := serve(t, router, http.MethodPost, "/api/v1/takeoff", `{"mass_kg":472.5,"pressure_altitude_ft":0,"temperature_c":15}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAtmosphereEndpoints(t *testing.T) {
	router := NewHandler(takeoff.Rotax912ULS, nil, nil).Routes(nil)

	tests := []struct {
		name   string
		target string
		status int
		want   map[string]float64
	}{
		{
			name:   "standard temperature",
			target: "/api/v1/atmosphere/temperature?altitude_m=1000",
			status: http.StatusOK,
			want:   map[string]float64{"altitude_m": 1000, "temperature_c": 8.5},
		},
		{
			name:   "pressure altitude",
			target: "/api/v1/atmosphere/pressure-altitude?qnh=996&elevation_m=113.7",
			status: http.StatusOK,
			want:   map[string]float64{"qnh": 996, "elevation_m": 113.7, "pressure_altitude_m": 258.25, "pressure_altitude_ft": 847.3},
		},
		{
			name:   "temperature deviation",
			target: "/api/v1/atmosphere/deviation?altitude_m=1000&temperature_c=10",
			status: http.StatusOK,
			want:   map[string]float64{"altitude_m": 1000, "temperature_c": 10, "deviation_c": 1.5},
		},
		{name: "altitude below the atmosphere", target: "/api/v1/atmosphere/temperature?altitude_m=-2000", status: http.StatusUnprocessableEntity},
		{name: "altitude above the atmosphere", target: "/api/v1/atmosphere/deviation?altitude_m=90000&temperature_c=0", status: http.StatusUnprocessableEntity},
		{name: "non-positive qnh", target: "/api/v1/atmosphere/pressure-altitude?qnh=0&elevation_m=0", status: http.StatusUnprocessableEntity},
		{name: "missing altitude", target: "/api/v1/atmosphere/temperature", status: http.StatusBadRequest},
		{name: "altitude not a number", target: "/api/v1/atmosphere/temperature?altitude_m=high", status: http.StatusBadRequest},
		{name: "altitude NaN", target: "/api/v1/atmosphere/temperature?altitude_m=NaN", status: http.StatusBadRequest},
		{name: "missing elevation", target: "/api/v1/atmosphere/pressure-altitude?qnh=1013", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, http.MethodGet, tt.target, "")

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.want != nil {
				assert.Equal(t, tt.want, decode[map[string]float64](t, rec))
			} else {
				assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
			}
		})
	}
}

func TestGetWindTriangle(t *testing.T) {
	router := NewHandler(takeoff.Rotax912ULS, nil, nil).Routes(nil)

	t.Run("crosswind", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/v1/navigation/wind?course=90&tas=100&wd=180&ws=20", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]float64{
			"ground_speed":          97.98,
			"wind_correction_angle": 11.54,
			"heading":               101.54,
		}, decode[map[string]float64](t, rec))
	})

	errorTests := []struct {
		name   string
		target string
		status int
	}{
		{name: "zero airspeed", target: "/api/v1/navigation/wind?course=90&tas=0&wd=180&ws=20", status: http.StatusUnprocessableEntity},
		{name: "negative wind", target: "/api/v1/navigation/wind?course=90&tas=100&wd=180&ws=-1", status: http.StatusUnprocessableEntity},
		{name: "wind faster than aircraft", target: "/api/v1/navigation/wind?course=90&tas=50&wd=180&ws=60", status: http.StatusUnprocessableEntity},
		{name: "missing wind speed", target: "/api/v1/navigation/wind?course=90&tas=100&wd=180", status: http.StatusBadRequest},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGetHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := NewHandler(takeoff.Rotax912ULS, nil, nil).Routes(nil)
		rec := serve(t, router, http.MethodGet, "/api/v1/history", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("recent calculations", func(t *testing.T) {
		repo := &mockHistory{calcs: []*models.Calculation{
			{ID: "a", Source: models.SourceAPI, Engine: "rotax912uls", GroundRollM: 100, DistanceTo50FtM: 225},
			{ID: "b", Source: models.SourceCLI, Engine: "rotax912ul", Error: "too light"},
		}}
		router := NewHandler(takeoff.Rotax912ULS, nil, repo).Routes(nil)

		rec := serve(t, router, http.MethodGet, "/api/v1/history?limit=1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		calcs := decode[[]models.Calculation](t, rec)
		require.Len(t, calcs, 1)
		assert.Equal(t, "a", calcs[0].ID)
		assert.Equal(t, []int{1}, repo.limits)
	})

	t.Run("default limit and empty history", func(t *testing.T) {
		repo := &mockHistory{}
		router := NewHandler(takeoff.Rotax912ULS, nil, repo).Routes(nil)

		rec := serve(t, router, http.MethodGet, "/api/v1/history", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		assert.Equal(t, []int{defaultHistoryLimit}, repo.limits)
	})

	t.Run("invalid limit", func(t *testing.T) {
		router := NewHandler(takeoff.Rotax912ULS, nil, &mockHistory{}).Routes(nil)
		for _, limit := range []string{"0", "-3", "ten", "1001"} {
			rec := serve(t, router, http.MethodGet, "/api/v1/history?limit="+limit, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		router := NewHandler(takeoff.Rotax912ULS, nil, &mockHistory{err: assert.AnError}).Routes(nil)
		rec := serve(t, router, http.MethodGet, "/api/v1/history", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "all origins allowed", origin: "http://example.com", want: "http://example.com"},
		{name: "listed origin", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: "http://localhost:3000"},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://example.com", want: "http://example.com"},
		{name: "unlisted origin", allowed: []string{"http://localhost:3000"}, origin: "http://example.com", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewHandler(takeoff.Rotax912ULS, nil, nil).Routes(tt.allowed)

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/takeoff", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
