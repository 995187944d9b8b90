package users

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

	"github.com/user/weather-api-go/auth"
)

func newTestRouter(store *fakeStore) *chi.Mux {
	h := NewHandlers(NewService(store))
	r := chi.NewRouter()
	r.Get("/user", h.HandleListAll())
	r.Post("/user/create-user", h.HandleCreate())
	r.Patch("/user/update-user/{id}", h.HandleUpdateByID())
	r.Patch("/user/update-role", h.HandleUpdateRole())
	r.Delete("/user/delete-user/{id}", h.HandleDeleteByID())
	r.Delete("/user/delete-students", h.HandleDeleteStudents())
	r.Get("/user/{id}", h.HandleGetByID())
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

func TestHandleGetByIDEnvelope(t *testing.T) {
	u := userAt(auth.RoleTeacher, time.Now())
	router := newTestRouter(newFakeStore(u))

	rec, body := doJSON(t, router, http.MethodGet, "/user/"+u.ID.Hex(), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User Found", body["message"])
	data := body["userData"].(map[string]interface{})
	assert.Equal(t, u.Email, data["email"])
	assert.NotContains(t, data, "password")
}

func TestHandleCreateMissingRole(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec, body := doJSON(t, router, http.MethodPost, "/user/create-user",
		`{"username": "alex", "email": "alex@example.com", "password": "s3cret"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "Username, email, password and role are required.")
}

func TestHandleUpdateByIDEnvelope(t *testing.T) {
	u := userAt(auth.RoleStudent, time.Now())
	router := newTestRouter(newFakeStore(u))

	rec, body := doJSON(t, router, http.MethodPatch, "/user/update-user/"+u.ID.Hex(),
		`{"username": "renamed"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully.", body["message"])
	data := body["updatedUserData"].(map[string]interface{})
	assert.Equal(t, "renamed", data["username"])
}

func TestHandleDeleteStudentsMessage(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	student := userAt(auth.RoleStudent, at)
	student.LastLogin = &at
	router := newTestRouter(newFakeStore(student))

	rec, body := doJSON(t, router, http.MethodDelete, "/user/delete-students",
		`{"startDate": "2024-01-01", "endDate": "2024-01-31"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted 1 student(s) who last logged in between 2024-01-01 and 2024-01-31.", body["message"])
}
