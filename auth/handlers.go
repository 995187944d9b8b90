package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/respond"
)

// Handlers exposes the auth service over HTTP.
type Handlers struct {
	service  *Service
	validate *validator.Validate
}

// NewHandlers creates the auth handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type registerResponse struct {
	respond.Envelope
	Data *User `json:"data"`
}

type loginResponse struct {
	respond.Envelope
	AuthToken *string `json:"authToken"`
}

type logoutResponse struct {
	respond.Envelope
	UpdatedUser *mongo.UpdateResult `json:"updatedUser"`
}

// HandleRegister handles POST /auth/register.
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(req); err != nil {
			respond.Error(w, apperror.NewValidationError("Username, email and password are required.", err))
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, registerResponse{
			Envelope: respond.OK("User registered successfully"),
			Data:     user,
		})
	}
}

// HandleLogin handles POST /auth/login.
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(req); err != nil {
			respond.Error(w, apperror.NewValidationError("Email and password are required.", err))
			return
		}

		user, err := h.service.Login(r.Context(), req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, loginResponse{
			Envelope:  respond.OK("Logged in successfully"),
			AuthToken: user.AuthToken,
		})
	}
}

// HandleLogout handles POST /auth/logout.
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		res, err := h.service.Logout(r.Context(), req.AuthToken)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, logoutResponse{
			Envelope:    respond.OK("User logged out successfully."),
			UpdatedUser: res,
		})
	}
}
