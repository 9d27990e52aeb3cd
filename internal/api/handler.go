package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"aviation_calculator/internal/atmosphere"
	"aviation_calculator/internal/database"
	"aviation_calculator/internal/models"
	"aviation_calculator/internal/navigation"
	"aviation_calculator/internal/takeoff"
	"aviation_calculator/internal/units"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

var (
	ErrNonPositiveAirspeed = errors.New("true airspeed must be greater than 0")
	ErrNegativeWindSpeed   = errors.New("wind speed must not be negative")
	ErrWindExceedsAirspeed = errors.New("wind speed must not exceed the true airspeed")
)

// Handler serves the calculator API
type Handler struct {
	defaultEngine takeoff.Engine
	records       chan<- *models.Calculation     // nil when history is disabled
	history       database.CalculationRepository // nil when history is disabled
	startTime     time.Time
}

// NewHandler creates a handler. records and history may be nil, in which
// case calculations are not recorded and the history endpoint is unavailable.
func NewHandler(defaultEngine takeoff.Engine, records chan<- *models.Calculation, history database.CalculationRepository) *Handler {
	return &Handler{
		defaultEngine: defaultEngine,
		records:       records,
		history:       history,
		startTime:     time.Now(),
	}
}

// takeoffInput is the body of a takeoff request. The pressure altitude is
// either given directly or derived from qnh_hpa and elevation_ft.
type takeoffInput struct {
	Engine             *takeoff.Engine       `json:"engine"`
	MassKg             *float64              `json:"mass_kg"`
	PressureAltitudeFt *float64              `json:"pressure_altitude_ft"`
	QNH                *float64              `json:"qnh_hpa"`
	ElevationFt        *float64              `json:"elevation_ft"`
	TemperatureC       *float64              `json:"temperature_c"`
	SlopePct           float64               `json:"slope_pct"`
	Grass              *takeoff.GrassSurface `json:"grass"`
	Contamination      takeoff.Contamination `json:"contamination"`
}

func (in takeoffInput) request(defaultEngine takeoff.Engine) (takeoff.Request, error) {
	req := takeoff.Request{
		Engine:        defaultEngine,
		SlopePct:      in.SlopePct,
		Grass:         in.Grass,
		Contamination: in.Contamination,
	}
	if in.Engine != nil {
		req.Engine = *in.Engine
	}

	if in.MassKg == nil {
		return req, fmt.Errorf("mass_kg is required")
	}
	req.MassKg = *in.MassKg

	if in.TemperatureC == nil {
		return req, fmt.Errorf("temperature_c is required")
	}
	req.TemperatureC = *in.TemperatureC

	switch {
	case in.PressureAltitudeFt != nil:
		req.PressureAltitudeFt = *in.PressureAltitudeFt
	case in.QNH != nil && in.ElevationFt != nil:
		req.PressureAltitudeFt = atmosphere.PressureAltitudeFeet(*in.QNH, *in.ElevationFt)
	default:
		return req, fmt.Errorf("pressure_altitude_ft or qnh_hpa and elevation_ft are required")
	}

	return req, nil
}

type takeoffResponse struct {
	ID      string          `json:"id,omitempty"`
	Request takeoff.Request `json:"request"`
	takeoff.Distances
}

// CalculateTakeoff handles POST /api/v1/takeoff
func (h *Handler) CalculateTakeoff(w http.ResponseWriter, r *http.Request) {
	var in takeoffInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req, err := in.request(h.defaultEngine)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, calcErr := req.Calculate()
	calc := models.NewCalculation(models.SourceAPI, req, result, calcErr)
	h.record(calc)

	if calcErr != nil {
		respondError(w, http.StatusUnprocessableEntity, calcErr.Error())
		return
	}

	respondJSON(w, http.StatusOK, takeoffResponse{ID: calc.ID, Request: req, Distances: result})
}

// GetStandardTemperature handles GET /api/v1/atmosphere/temperature
func (h *Handler) GetStandardTemperature(w http.ResponseWriter, r *http.Request) {
	altitude, ok := queryFloat(w, r, "altitude_m")
	if !ok {
		return
	}

	temperature, err := atmosphere.StandardTemperature(altitude)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]float64{
		"altitude_m":    altitude,
		"temperature_c": temperature,
	})
}

// GetPressureAltitude handles GET /api/v1/atmosphere/pressure-altitude
func (h *Handler) GetPressureAltitude(w http.ResponseWriter, r *http.Request) {
	qnh, ok := queryFloat(w, r, "qnh")
	if !ok {
		return
	}
	elevation, ok := queryFloat(w, r, "elevation_m")
	if !ok {
		return
	}
	if qnh <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "qnh must be greater than 0")
		return
	}

	pressureAltitude := atmosphere.PressureAltitudeFromQNH(qnh, elevation)
	respondJSON(w, http.StatusOK, map[string]float64{
		"qnh":                  qnh,
		"elevation_m":          elevation,
		"pressure_altitude_m":  pressureAltitude,
		"pressure_altitude_ft": units.Round(units.MetersToFeet(pressureAltitude), 1),
	})
}

// GetTemperatureDeviation handles GET /api/v1/atmosphere/deviation
func (h *Handler) GetTemperatureDeviation(w http.ResponseWriter, r *http.Request) {
	altitude, ok := queryFloat(w, r, "altitude_m")
	if !ok {
		return
	}
	temperature, ok := queryFloat(w, r, "temperature_c")
	if !ok {
		return
	}

	deviation, err := atmosphere.TemperatureDeviation(altitude, temperature)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]float64{
		"altitude_m":    altitude,
		"temperature_c": temperature,
		"deviation_c":   deviation,
	})
}

// GetWindTriangle handles GET /api/v1/navigation/wind
func (h *Handler) GetWindTriangle(w http.ResponseWriter, r *http.Request) {
	var values [4]float64
	for i, name := range []string{"course", "tas", "wd", "ws"} {
		v, ok := queryFloat(w, r, name)
		if !ok {
			return
		}
		values[i] = v
	}
	course, tas, windDirection, windSpeed := values[0], values[1], values[2], values[3]

	if err := validateWind(tas, windSpeed); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]float64{
		"ground_speed":          navigation.GroundSpeed(course, tas, windDirection, windSpeed),
		"wind_correction_angle": navigation.WindCorrectionAngle(tas, windSpeed, windDirection-course),
		"heading":               navigation.Heading(course, tas, windDirection, windSpeed),
	})
}

// validateWind rejects inputs for which the wind triangle has no solution
func validateWind(tas, windSpeed float64) error {
	switch {
	case tas <= 0:
		return ErrNonPositiveAirspeed
	case windSpeed < 0:
		return ErrNegativeWindSpeed
	case windSpeed > tas:
		return ErrWindExceedsAirspeed
	}
	return nil
}

// GetHistory handles GET /api/v1/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "calculation history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	calcs, err := h.history.Recent(limit)
	if err != nil {
		slog.Error("Failed to read calculation history", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read calculation history")
		return
	}
	if calcs == nil {
		calcs = []*models.Calculation{}
	}

	respondJSON(w, http.StatusOK, calcs)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
		"history":   h.history != nil,
	})
}

// record hands a calculation to the collector without blocking the request
func (h *Handler) record(calc *models.Calculation) {
	if h.records == nil {
		return
	}
	select {
	case h.records <- calc:
	default:
		slog.Warn("Calculation history queue is full, dropping record", "id", calc.ID)
	}
}

func queryFloat(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s is required", name))
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s is not a number: %q", name, v))
		return 0, false
	}
	return f, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
