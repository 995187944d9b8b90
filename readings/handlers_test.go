package readings

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestRouter(store Store) *chi.Mux {
	h := NewHandlers(NewService(store))
	r := chi.NewRouter()
	r.Get("/weather-reading", h.HandleList())
	r.Get("/weather-reading/by-device", h.HandleListByDevice())
	r.Post("/weather-reading", h.HandleInsert())
	r.Post("/weather-reading/insert-readings", h.HandleInsertMany())
	r.Patch("/weather-reading/update-precipitation", h.HandleUpdatePrecipitation())
	r.Delete("/weather-reading/delete", h.HandleDelete())
	r.Get("/weather-reading/{id}", h.HandleGetByID())
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHandleListEnvelope(t *testing.T) {
	now := time.Now().UTC()
	router := newTestRouter(newFakeStore(
		reading("Woodford_Sensor", now, 22, 0.1),
	))

	rec, body := doJSON(t, router, http.MethodGet, "/weather-reading", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(200), body["status"])
	assert.Equal(t, "Got list of all weather data readings", body["message"])
	assert.Equal(t, float64(1), body["totalPages"])
	require.Len(t, body["weatherData"], 1)

	doc := body["weatherData"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Woodford_Sensor", doc["Device Name"])
	assert.Equal(t, 0.1, doc["Precipitation mm/h"])
}

func TestHandleGetByID(t *testing.T) {
	now := time.Now().UTC()
	r := reading("Woodford_Sensor", now, 22, 0.1)
	router := newTestRouter(newFakeStore(r))

	t.Run("found", func(t *testing.T) {
		rec, body := doJSON(t, router, http.MethodGet, "/weather-reading/"+r.ID.Hex(), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		doc := body["data"].(map[string]interface{})
		assert.Equal(t, r.ID.Hex(), doc["_id"])
	})

	t.Run("unknown id", func(t *testing.T) {
		rec, body := doJSON(t, router, http.MethodGet, "/weather-reading/"+primitive.NewObjectID().Hex(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "The requested reading does not exist.", body["message"])
	})
}

func TestHandleInsertCoercesStringNumbers(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	rec, body := doJSON(t, router, http.MethodPost, "/weather-reading", `{
		"deviceName": "Noosa_Sensor",
		"time": "2024-03-14T10:30:00Z",
		"precipitation": "0.085",
		"temperature": 23.4
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Added a new weather data reading.", body["message"])

	require.Len(t, store.readings, 1)
	assert.Equal(t, 0.085, store.readings[0].Precipitation)
	assert.Equal(t, 23.4, store.readings[0].Temperature)
}

func TestHandleInsertRejectsMissingFields(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec, body := doJSON(t, router, http.MethodPost, "/weather-reading", `{"temperature": 23.4}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "Device name and time are required.")
}

func TestHandleInsertMany(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	rec, body := doJSON(t, router, http.MethodPost, "/weather-reading/insert-readings", `[
		{"deviceName": "Noosa_Sensor", "time": "2024-03-14T10:00:00Z"},
		{"deviceName": "Noosa_Sensor", "time": "2024-03-14T10:05:00Z"}
	]`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	res := body["readings"].(map[string]interface{})
	assert.Equal(t, true, res["acknowledged"])
	ids := res["insertedIds"].([]interface{})
	assert.Len(t, ids, 2)
	assert.Len(t, store.readings, 2)
}

func TestHandleUpdatePrecipitationZero(t *testing.T) {
	now := time.Now().UTC()
	r := reading("Woodford_Sensor", now, 22, 1.5)
	store := newFakeStore(r)
	router := newTestRouter(store)

	rec, body := doJSON(t, router, http.MethodPatch, "/weather-reading/update-precipitation",
		`{"_id": "`+r.ID.Hex()+`", "newPrecipitation": 0}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 1.5, data["PreviousValue"])
	assert.Equal(t, float64(0), data["UpdatedValue"])
	assert.Equal(t, 0.0, store.readings[0].Precipitation)
}

func TestHandleDelete(t *testing.T) {
	now := time.Now().UTC()
	r := reading("Woodford_Sensor", now, 22, 1.5)
	store := newFakeStore(r)
	router := newTestRouter(store)

	rec, body := doJSON(t, router, http.MethodDelete, "/weather-reading/delete",
		`{"weatherDataId": "`+r.ID.Hex()+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Weather data deleted and logged successfully.", body["message"])
	assert.Equal(t, float64(1), body["deletedCount"])
	assert.Len(t, store.archived, 1)
}
