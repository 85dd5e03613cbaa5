// Package httpapi serves synchronous layout requests.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/plan"
)

const maxBodyBytes = 4 << 20

type LayoutHandler struct {
	service *layout.Service
}

func NewLayoutHandler(service *layout.Service) *LayoutHandler {
	return &LayoutHandler{service: service}
}

func (h *LayoutHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/v1/layout", h.Layout).Methods("POST")
	router.HandleFunc("/health", h.Health).Methods("GET")
}

// NewRouter wires the layout routes. metrics, when non-nil, is mounted on
// GET /metrics.
func NewRouter(service *layout.Service, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	NewLayoutHandler(service).RegisterRoutes(r)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}
	return r
}

func (h *LayoutHandler) Layout(w http.ResponseWriter, r *http.Request) {
	req := layout.Request{Source: "http"}
	var err error
	if req.GraphWidthPx, err = widthParam(r, "graphWidth"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BarWidthPx, err = widthParam(r, "barWidth"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var p plan.TripPlan
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trip plan: "+err.Error())
		return
	}

	res, err := h.service.LayoutWith(p, req)
	if errors.Is(err, layout.ErrNoItineraries) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		log.Printf("layout plan %s: %v", p.ID, err)
		writeError(w, http.StatusInternalServerError, "layout failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LayoutHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// widthParam reads an optional positive pixel width from the query string.
func widthParam(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
