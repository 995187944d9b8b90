package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/auth"
	"github.com/user/weather-api-go/timeparse"
)

// protectedRoles are never touched by bulk role reassignment, regardless of
// creation date.
var protectedRoles = []string{auth.RoleStation, auth.RoleAdmin}

// Service implements the user directory operations.
type Service struct {
	store auth.UserStore
	now   func() time.Time
}

// NewService creates a directory Service over the given user store.
func NewService(store auth.UserStore) *Service {
	return &Service{store: store, now: time.Now}
}

// ListAll returns every user record.
func (s *Service) ListAll(ctx context.Context) ([]auth.User, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("Error getting user data", err)
	}
	return users, nil
}

// GetByID returns a single user by its hex ObjectID.
func (s *Service) GetByID(ctx context.Context, idHex string) (*auth.User, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, apperror.NewValidationError("Please provide a valid User ID (insert in ObjectId format)", err)
	}

	user, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("Database error finding user", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("No user was found with this ID!", nil)
	}
	return user, nil
}

// Create inserts a new user with the role taken from the request. The email
// existence check and the insert are separate calls; the check-then-act race
// under concurrent creates is an accepted limitation.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (primitive.ObjectID, error) {
	existing, err := s.store.ByEmail(ctx, req.Email)
	if err != nil {
		return primitive.NilObjectID, apperror.NewDatabaseError("Error create new user", err)
	}
	if existing != nil {
		return primitive.NilObjectID, apperror.NewConflictError("The provided email address is already associated with an account.", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return primitive.NilObjectID, apperror.NewInternalError("Error create new user", err)
	}

	user := auth.NewUser(req.Username, req.Email, string(hashed), req.Role, s.now())
	id, err := s.store.Insert(ctx, user)
	if err != nil {
		return primitive.NilObjectID, apperror.NewDatabaseError("Error create new user", err)
	}
	return id, nil
}

// UpdateByID applies an arbitrary partial patch to a user record. The handler
// contract is: unknown id is a 404, but the store-level update itself keeps
// upsert semantics, so a direct store call with an unmatched id inserts
// rather than fails.
func (s *Service) UpdateByID(ctx context.Context, idHex string, patch map[string]interface{}) (*mongo.UpdateResult, *auth.User, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, nil, apperror.NewValidationError("Please provide a valid User ID (insert in ObjectId format)", err)
	}

	existing, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.NewDatabaseError("Failed to update user data.", err)
	}
	if existing == nil {
		return nil, nil, apperror.NewNotFoundError("User not found.", nil)
	}

	res, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, nil, apperror.NewDatabaseError("Failed to update user data.", err)
	}

	updated, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.NewDatabaseError("Failed to update user data.", err)
	}
	return res, updated, nil
}

// UpdateRoleInDateRange reassigns the role of users created inside
// [startDate, endDate] inclusive, skipping the protected station and admin
// roles.
func (s *Service) UpdateRoleInDateRange(ctx context.Context, req UpdateRoleRequest) (*mongo.UpdateResult, error) {
	if req.StartDate == "" || req.EndDate == "" || req.NewRole == "" {
		return nil, apperror.NewValidationError("Please provide valid input data.", nil)
	}

	start, err := timeparse.Parse(req.StartDate)
	if err != nil {
		return nil, apperror.NewValidationError("Please provide valid input data.", err)
	}
	end, err := timeparse.Parse(req.EndDate)
	if err != nil {
		return nil, apperror.NewValidationError("Please provide valid input data.", err)
	}

	res, err := s.store.UpdateRoleCreatedBetween(ctx, start, end, req.NewRole, protectedRoles)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to update new role.", err)
	}
	return res, nil
}

// DeleteByID removes a user record. There is no existence pre-check; deleting
// an unknown id simply reports a zero count.
func (s *Service) DeleteByID(ctx context.Context, idHex string) (*mongo.DeleteResult, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, apperror.NewValidationError("Please provide a valid User ID (insert in ObjectId format)", err)
	}

	res, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to delete user account.", err)
	}
	return res, nil
}

// DeleteStudentsByLastLogin removes every student whose last login falls in
// [startDate, endDate] inclusive.
func (s *Service) DeleteStudentsByLastLogin(ctx context.Context, req DeleteStudentsRequest) (*mongo.DeleteResult, error) {
	if req.StartDate == "" || req.EndDate == "" {
		return nil, apperror.NewValidationError("Start date and end date are required.", nil)
	}

	start, err := timeparse.Parse(req.StartDate)
	if err != nil {
		return nil, apperror.NewValidationError("Start date and end date are required.", err)
	}
	end, err := timeparse.Parse(req.EndDate)
	if err != nil {
		return nil, apperror.NewValidationError("Start date and end date are required.", err)
	}

	res, err := s.store.DeleteByRoleLastLogin(ctx, auth.RoleStudent, start, end)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to delete students by last login date.", err)
	}
	return res, nil
}
