package users

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/auth"
	"github.com/user/weather-api-go/respond"
)

// Handlers exposes the user directory over HTTP.
type Handlers struct {
	service  *Service
	validate *validator.Validate
}

// NewHandlers creates the user directory handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type listUsersResponse struct {
	respond.Envelope
	Users []auth.User `json:"users"`
}

type userResponse struct {
	respond.Envelope
	UserData *auth.User `json:"userData"`
}

type createUserResponse struct {
	respond.Envelope
	Data struct {
		InsertedID primitive.ObjectID `json:"insertedId"`
	} `json:"data"`
}

type updateUserResponse struct {
	respond.Envelope
	UpdateUser      *mongo.UpdateResult `json:"updateUser"`
	UpdatedUserData *auth.User          `json:"updatedUserData"`
}

type updateRoleResponse struct {
	respond.Envelope
	Result *mongo.UpdateResult `json:"result"`
}

type deleteUserResponse struct {
	respond.Envelope
	DeletedUser *mongo.DeleteResult `json:"deletedUser"`
}

// HandleListAll handles GET /user.
func (h *Handlers) HandleListAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.service.ListAll(r.Context())
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, listUsersResponse{
			Envelope: respond.OK("Got all user data"),
			Users:    users,
		})
	}
}

// HandleGetByID handles GET /user/{id}.
func (h *Handlers) HandleGetByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, userResponse{
			Envelope: respond.OK("User Found"),
			UserData: user,
		})
	}
}

// HandleCreate handles POST /user/create-user.
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		if err := h.validate.Struct(req); err != nil {
			respond.Error(w, apperror.NewValidationError("Username, email, password and role are required.", err))
			return
		}

		id, err := h.service.Create(r.Context(), req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		resp := createUserResponse{Envelope: respond.OK("New user created")}
		resp.Data.InsertedID = id
		respond.JSON(w, http.StatusOK, resp)
	}
}

// HandleUpdateByID handles PATCH /user/update-user/{id}. The body is an
// arbitrary partial patch applied as-is; no field allow-list exists.
func (h *Handlers) HandleUpdateByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		res, updated, err := h.service.UpdateByID(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, updateUserResponse{
			Envelope:        respond.OK("User updated successfully."),
			UpdateUser:      res,
			UpdatedUserData: updated,
		})
	}
}

// HandleUpdateRole handles PATCH /user/update-role.
func (h *Handlers) HandleUpdateRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		res, err := h.service.UpdateRoleInDateRange(r.Context(), req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, updateRoleResponse{
			Envelope: respond.OK("New Role updated successfully."),
			Result:   res,
		})
	}
}

// HandleDeleteByID handles DELETE /user/delete-user/{id}.
func (h *Handlers) HandleDeleteByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.service.DeleteByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, deleteUserResponse{
			Envelope:    respond.OK("User account deleted"),
			DeletedUser: res,
		})
	}
}

// HandleDeleteStudents handles DELETE /user/delete-students.
func (h *Handlers) HandleDeleteStudents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteStudentsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, apperror.NewBadRequestError("Invalid request body.", err))
			return
		}
		defer r.Body.Close()

		res, err := h.service.DeleteStudentsByLastLogin(r.Context(), req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, respond.OK(fmt.Sprintf(
			"Deleted %d student(s) who last logged in between %s and %s.",
			res.DeletedCount, req.StartDate, req.EndDate,
		)))
	}
}
