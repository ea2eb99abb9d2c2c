// Command mockupstream serves local stand-ins for the two parking upstreams
// so the gateway can be exercised without the real services. The nearest
// route fabricates a facility a short walk from the requested point; the
// occupancy route reproduces the production estimator's demand model,
// including its Russian level labels.
//
// Usage:
//
//	go run ./cmd/mockupstream -nearest-addr :8001 -occupancy-addr :5000
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Reference center used for distance_to_center_km, matching the production
// service's default (Moscow city center).
const (
	centerLat = 55.7558
	centerLng = 37.6173
)

func main() {
	nearestAddr := flag.String("nearest-addr", ":8001", "listen address for the nearest-facility mock")
	occupancyAddr := flag.String("occupancy-addr", ":5000", "listen address for the occupancy-estimate mock")
	flag.Parse()

	nearestMux := http.NewServeMux()
	nearestMux.HandleFunc("GET /parking/nearest", handleNearest)

	occupancyMux := http.NewServeMux()
	occupancyMux.HandleFunc("GET /api/parking/occupancy", handleOccupancy)
	occupancyMux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "parking_occupancy_api"})
	})

	errs := make(chan error, 2)
	go func() {
		log.Printf("nearest-facility mock listening on %s", *nearestAddr)
		errs <- http.ListenAndServe(*nearestAddr, nearestMux)
	}()
	go func() {
		log.Printf("occupancy-estimate mock listening on %s", *occupancyAddr)
		errs <- http.ListenAndServe(*occupancyAddr, occupancyMux)
	}()
	log.Fatal(<-errs)
}

func handleNearest(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseCoordinates(r.URL.Query().Get("coordinates"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	// Place the facility ~250m north of the request point.
	facLat := lat + 0.00225
	facLng := lng
	distReqKm := haversineKm(lat, lng, facLat, facLng)
	distCenterKm := haversineKm(centerLat, centerLng, facLat, facLng)

	writeJSON(w, http.StatusOK, map[string]any{
		"total_found": 3,
		"parking": map[string]any{
			"name":                  "Городская парковка",
			"coordinates":           fmt.Sprintf("%.6f, %.6f", facLat, facLng),
			"purpose":               "car",
			"capacity":              120,
			"is_paid":               true,
			"price_comment":         "100 ₽ / час",
			"price_per_hour":        100,
			"distance_to_request_m": round2(distReqKm * 1000),
			"distance_to_center_km": round3(distCenterKm),
			"total_spaces":          120,
			"free_spaces":           34,
		},
	})
}

func handleOccupancy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cost, errCost := strconv.ParseFloat(q.Get("cost"), 64)
	distance, errDist := strconv.ParseFloat(q.Get("distance"), 64)
	spots, errSpots := strconv.Atoi(q.Get("spots"))
	if errCost != nil || errDist != nil || errSpots != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid parameter types. Cost and distance should be numbers, spots should be integer",
		})
		return
	}
	if cost < 0 || distance < 0 || spots <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Parameters must be positive values"})
		return
	}

	hour := time.Now().Hour()
	if h := q.Get("hour"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed < 0 || parsed > 23 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Hour must be an integer between 0 and 23"})
			return
		}
		hour = parsed
	}

	probability := estimateOccupancy(cost, distance, spots, hour)
	writeJSON(w, http.StatusOK, map[string]any{
		"occupancy_probability": probability,
		"occupancy_percentage":  math.Round(probability*1000) / 10,
		"parameters": map[string]any{
			"cost":     cost,
			"distance": distance,
			"spots":    spots,
			"hour":     hour,
		},
		"occupancy_level": occupancyLevel(probability),
		"time_context":    timeContext(hour),
	})
}

// estimateOccupancy reproduces the production estimator: a weighted blend of
// distance decay, price resistance, capacity dilution, and an hour-of-day
// curve peaking at 13:00, clamped to [0.05, 0.95].
func estimateOccupancy(cost, distance float64, spots, hour int) float64 {
	distanceFactor := math.Exp(-distance / 2.0)
	priceFactor := 1.0 / (1.0 + math.Exp((cost-100)/50))
	spotsFactor := 1.0 / (1.0 + math.Log(1+float64(spots))/3.0)
	normalizedHour := float64((hour + 1) % 24)
	timeFactor := 0.3 + 0.7*math.Exp(-math.Pow(normalizedHour-13, 2)/8.0)

	const baseDemand = 0.85
	probability := baseDemand*0.4 +
		distanceFactor*0.25 +
		priceFactor*0.15 +
		spotsFactor*0.05 +
		timeFactor*0.15

	if cost == 0 && distance <= 1.0 {
		probability = math.Max(probability, 0.9-distance*0.2)
	}
	if cost > 500 {
		probability = math.Min(probability, 0.3*(1-cost/2000))
	}

	probability = math.Max(0.05, math.Min(0.95, probability))
	return round3(probability)
}

func occupancyLevel(probability float64) string {
	switch {
	case probability < 0.2:
		return "очень низкая"
	case probability < 0.4:
		return "низкая"
	case probability < 0.6:
		return "средняя"
	case probability < 0.8:
		return "высокая"
	default:
		return "очень высокая"
	}
}

func timeContext(hour int) string {
	switch {
	case hour < 6:
		return "ночь (минимум загруженности)"
	case hour < 10:
		return "утро (растущая загруженность)"
	case hour < 14:
		return "обеденное время (пик загруженности)"
	case hour < 18:
		return "день (высокая загруженность)"
	case hour < 22:
		return "вечер (спадающая загруженность)"
	default:
		return "поздний вечер (низкая загруженность)"
	}
}

func parseCoordinates(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinates must contain latitude and longitude separated by a comma")
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, fmt.Errorf("coordinates must contain valid floating point numbers")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("coordinates must contain latitude in [-90, 90] and longitude in [-180, 180]")
	}
	return lat, lng, nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
