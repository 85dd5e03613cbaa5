package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"itinerary-layout/internal/elevation"
	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/timeline"
)

const planBody = `{
  "id": "http-plan",
  "itineraries": [
    {"legs": [
      {"mode": "WALK", "distance": 1000, "startTime": 0, "endTime": 600000,
       "legElevation": "0,10,500,20,1000,NaN",
       "legGeometry": {"points": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}}
    ]},
    {"legs": [
      {"mode": "BUS", "startTime": 300000, "endTime": 1200000, "routeColor": "123456",
       "legGeometry": {"points": "_p~iF"}}
    ]}
  ]
}`

func newTestRouter(metrics http.Handler) http.Handler {
	svc := layout.NewService(
		elevation.Options{GraphWidthPx: 600, GraphHeightPx: 120, LabelWidthPx: 40, IconWidthPx: 20, EndPaddingPx: 10, TopMarginPx: 10, BottomMarginPx: 10},
		timeline.Options{BarWidthPx: 500, ReservedStartPx: 50, ReservedEndPx: 50},
		nil, nil,
	)
	return NewRouter(svc, metrics)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestLayoutEndpoint(t *testing.T) {
	rec := do(newTestRouter(nil), "POST", "/v1/layout", planBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var res layout.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.PlanID != "http-plan" || len(res.Itineraries) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if got := res.Itineraries[1].Timeline.Overall; got != (timeline.Span{LeftPx: 150, WidthPx: 300}) {
		t.Errorf("second timeline = %+v", got)
	}
	if res.Itineraries[1].Legs[0].GeometryError == "" {
		t.Errorf("malformed polyline not reported")
	}
	if !res.Itineraries[0].Profile.HasElevation {
		t.Errorf("profile lost elevation")
	}
}

func TestLayoutEndpointWidthOverride(t *testing.T) {
	rec := do(newTestRouter(nil), "POST", "/v1/layout?graphWidth=1150&barWidth=900", planBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res layout.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := res.Itineraries[0].Profile.PixelsPerMeter; got != 1.1 {
		t.Errorf("PixelsPerMeter = %v, want 1.1", got)
	}
}

func TestLayoutEndpointErrors(t *testing.T) {
	cases := []struct {
		name, target, body string
		status             int
	}{
		{"bad json", "/v1/layout", `{"itineraries": [`, http.StatusBadRequest},
		{"bad width", "/v1/layout?graphWidth=-3", planBody, http.StatusBadRequest},
		{"nan width", "/v1/layout?barWidth=abc", planBody, http.StatusBadRequest},
		{"no itineraries", "/v1/layout", `{"id":"empty","itineraries":[]}`, http.StatusUnprocessableEntity},
	}
	h := newTestRouter(nil)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(h, "POST", c.target, c.body)
			if rec.Code != c.status {
				t.Fatalf("status = %d, want %d", rec.Code, c.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("error body = %s (%v)", rec.Body, err)
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# metrics"))
	})
	h := newTestRouter(metrics)

	if rec := do(h, "GET", "/health", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}
	if rec := do(h, "GET", "/metrics", ""); rec.Body.String() != "# metrics" {
		t.Errorf("metrics = %d %s", rec.Code, rec.Body)
	}
	if rec := do(h, "GET", "/v1/layout", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/layout = %d, want 405", rec.Code)
	}
	if rec := do(newTestRouter(nil), "GET", "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("metrics without collector = %d, want 404", rec.Code)
	}
}
