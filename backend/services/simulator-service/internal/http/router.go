package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Cars           http.HandlerFunc
	Car            http.HandlerFunc
	Compare        http.HandlerFunc
	CompareVehicle http.HandlerFunc
	History        http.HandlerFunc
	HistorySession http.HandlerFunc
	Health         http.HandlerFunc
	Metrics        http.Handler
	WebSocket      http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Cars != nil {
		mux.Handle("GET /cars", routes.Cars)
	}
	if routes.Car != nil {
		mux.Handle("GET /cars/{id}", routes.Car)
	}
	if routes.Compare != nil {
		mux.Handle("GET /compare", routes.Compare)
	}
	if routes.CompareVehicle != nil {
		mux.Handle("GET /compare/{id}", routes.CompareVehicle)
	}
	if routes.History != nil {
		mux.Handle("GET /history/{vehicleId}", routes.History)
	}
	if routes.HistorySession != nil {
		mux.Handle("GET /history/session/{historyId}", routes.HistorySession)
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}
	if routes.WebSocket != nil {
		mux.Handle("GET /ws", routes.WebSocket)
	}
	return cors(mux)
}

// cors lets the dashboard on another origin read the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
