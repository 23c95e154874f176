// internal/workers/matching/geocode-postcodes/handler_test.go
package geocodepostcodes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentormatch/internal/common/geocode"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
)

func newTestHandler(t *testing.T, nominatim http.HandlerFunc) *Handler {
	t.Helper()

	srv := httptest.NewServer(nominatim)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := geocode.NewNominatimClient(srv.URL, "test-agent", "Sweden", "se", 5*time.Second)
	resolver := geocode.NewResolver(client, cache, 0, logger.NewNoOpLogger())
	return NewHandler(LoadConfig(), resolver, logger.NewNoOpLogger())
}

func TestHandler_Execute_ResolvesBatch(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"lat":"59.3345","lon":"18.0632","address":{"country_code":"se"}}]`)
	})

	out, err := h.Execute(context.Background(), &Input{Postcodes: map[string]string{
		models.StudentKey: "11346",
		"mentor-1":        "11122",
	}})
	require.NoError(t, err)
	require.Len(t, out.Coordinates, 2)
	assert.InDelta(t, 59.3345, out.Coordinates[models.StudentKey].Lat, 0.0001)
	assert.InDelta(t, 18.0632, out.Coordinates["mentor-1"].Lng, 0.0001)
}

func TestHandler_Execute_SkipsUnresolvablePostcodes(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		// Unknown postcode, and no fallback region covers 98xxx.
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})

	out, err := h.Execute(context.Background(), &Input{Postcodes: map[string]string{
		models.StudentKey: "98139",
	}})
	require.NoError(t, err)
	assert.Empty(t, out.Coordinates)
}

func TestHandler_Activity_RoundTrip(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"lat":"57.7089","lon":"11.9746","address":{"country_code":"se"}}]`)
	})

	raw, err := h.Activity()(context.Background(), []byte(`{"postcodes":{"mentor-1":"41000"}}`))
	require.NoError(t, err)

	var out Output
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Contains(t, out.Coordinates, "mentor-1")
	assert.InDelta(t, 57.7089, out.Coordinates["mentor-1"].Lat, 0.0001)
}
