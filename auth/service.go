package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/weather-api-go/apperror"
)

// Service implements registration, login and logout over the user store.
type Service struct {
	users UserStore
	now   func() time.Time
}

// NewService creates an auth Service backed by the given user store.
func NewService(users UserStore) *Service {
	return &Service{users: users, now: time.Now}
}

// Register creates a student account. The email pre-check and the insert are
// two separate store calls, so two concurrent registrations with the same
// email can both pass the check; that race is accepted, not guarded against.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	existing, err := s.users.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to register user.", err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Email already exists", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("Failed to register user.", err)
	}

	user := NewUser(req.Username, req.Email, string(hashed), RoleStudent, s.now())
	id, err := s.users.Insert(ctx, user)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to register user.", err)
	}
	user.ID = id
	return user, nil
}

// Login verifies the credentials, issues a fresh opaque token and stamps the
// login time. The updated user record is read back so the caller sees exactly
// what was stored.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, error) {
	user, err := s.users.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.NewDatabaseError("Error in Login User", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User not found with this email", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("Invalid password", nil)
	}

	token := uuid.NewString()
	if _, err := s.users.UpdateByID(ctx, user.ID, map[string]interface{}{
		"authToken": token,
		"lastLogin": s.now(),
	}); err != nil {
		return nil, apperror.NewDatabaseError("Error in Login User", err)
	}

	updated, err := s.users.ByID(ctx, user.ID)
	if err != nil || updated == nil {
		return nil, apperror.NewDatabaseError("Error in Login User", err)
	}
	return updated, nil
}

// Logout clears the user's session token. The token is the only credential
// here; an unknown token is a 404, matching the lookup-by-token contract.
func (s *Service) Logout(ctx context.Context, token string) (*mongo.UpdateResult, error) {
	if token == "" {
		return nil, apperror.NewBadRequestError("Authentication token is required for logout.", nil)
	}

	user, err := s.users.ByToken(ctx, token)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to logout user.", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User not found. Invalid authentication token.", nil)
	}

	res, err := s.users.UpdateByID(ctx, user.ID, map[string]interface{}{
		"authToken": nil,
	})
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to logout user.", err)
	}
	return res, nil
}
