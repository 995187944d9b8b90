package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store UserStore) *chi.Mux {
	h := NewHandlers(NewService(store))
	r := chi.NewRouter()
	r.Post("/auth/register", h.HandleRegister())
	r.Post("/auth/login", h.HandleLogin())
	r.Post("/auth/logout", h.HandleLogout())
	return r
}

func doJSON(t *testing.T, router http.Handler, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHandleRegister(t *testing.T) {
	t.Run("success never exposes the password hash", func(t *testing.T) {
		router := newTestRouter(newFakeUserStore())

		rec, body := doJSON(t, router, "/auth/register",
			`{"username": "alex", "email": "alex@example.com", "password": "s3cret"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User registered successfully", body["message"])

		data := body["data"].(map[string]interface{})
		assert.Equal(t, "alex@example.com", data["email"])
		assert.Equal(t, RoleStudent, data["role"])
		assert.NotContains(t, data, "password")
	})

	t.Run("invalid email is rejected before the service runs", func(t *testing.T) {
		store := newFakeUserStore()
		router := newTestRouter(store)

		rec, body := doJSON(t, router, "/auth/register",
			`{"username": "alex", "email": "not-an-email", "password": "s3cret"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["message"], "Username, email and password are required.")

		users, err := store.All(t.Context())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		router := newTestRouter(newFakeUserStore())
		rec, _ := doJSON(t, router, "/auth/register", `{"username": `)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	store := newFakeUserStore(&User{
		Email:    "alex@example.com",
		Password: hashPassword(t, "s3cret"),
		Role:     RoleStudent,
	})
	router := newTestRouter(store)

	t.Run("returns the fresh token", func(t *testing.T) {
		rec, body := doJSON(t, router, "/auth/login",
			`{"email": "alex@example.com", "password": "s3cret"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logged in successfully", body["message"])
		token, ok := body["authToken"].(string)
		require.True(t, ok)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password is a 401", func(t *testing.T) {
		rec, body := doJSON(t, router, "/auth/login",
			`{"email": "alex@example.com", "password": "nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid password", body["message"])
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("acknowledges the cleared session", func(t *testing.T) {
		u := tokenUser(RoleStudent, "session-token")
		store := newFakeUserStore(u)
		router := newTestRouter(store)

		rec, body := doJSON(t, router, "/auth/logout", `{"authToken": "session-token"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User logged out successfully.", body["message"])

		stored, err := store.ByID(t.Context(), u.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.AuthToken)
	})

	t.Run("unknown token is a 404", func(t *testing.T) {
		router := newTestRouter(newFakeUserStore())
		rec, _ := doJSON(t, router, "/auth/logout", `{"authToken": "stale"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
