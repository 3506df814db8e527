package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/export"
	"github.com/civita/urbanaccess/internal/geo"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	city := export.CityMeta{
		Name:      "milano",
		Zoom:      11,
		Center:    [2]float64{45.4642, 9.19},
		JoinField: "IDquartiere",
	}
	records := map[access.ServiceArea][]export.Record{
		access.AreaEducation: {
			{"IDquartiere": int64(1), "school": []any{0.5}},
		},
	}
	surfaces := map[access.ServiceType]*access.Surface{
		access.School: {
			Service: access.School,
			Values: map[access.AgeGroup][]float64{
				access.ChildPrimary: {0.9, 0.1},
			},
		},
	}
	positions := []geo.Position{
		{Lat: 45.46, Lon: 9.19},
		{Lat: 45.47, Lon: 9.20},
	}

	srv := New(Results{
		Menu:      export.Menu(city, []access.ServiceType{access.School}),
		Records:   records,
		Surfaces:  surfaces,
		Positions: positions,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	status := getJSON(t, ts.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_Menu(t *testing.T) {
	ts := newTestServer(t)

	var menu []map[string]any
	status := getJSON(t, ts.URL+"/api/menu", &menu)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, menu, 2)
	assert.Equal(t, "source", menu[0]["type"])
	assert.Equal(t, "milano_istruzione", menu[1]["id"])
}

func TestServer_Zones(t *testing.T) {
	ts := newTestServer(t)

	var records []map[string]any
	status := getJSON(t, ts.URL+"/api/zones/school", &records)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, records, 1)
	assert.Equal(t, float64(1), records[0]["IDquartiere"])

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/zones/casino", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/zones/pharmacy", nil),
		"known service without computed results")
}

func TestServer_Surface(t *testing.T) {
	ts := newTestServer(t)

	var points []SurfacePoint
	status := getJSON(t, ts.URL+"/api/surface/school/child_primary", &points)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, points, 2)
	assert.InDelta(t, 0.9, points[0].Value, 1e-12)
	assert.InDelta(t, 45.46, points[0].Lat, 1e-12)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/surface/school/nonni", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/surface/school/newborn", nil),
		"school surface has no newborn cohort")
}

func TestServer_CORS(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/menu", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
