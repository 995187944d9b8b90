// Package users implements the user directory: CRUD over user records plus
// the two bulk operations (role reassignment by creation window, student
// deletion by last-login window).
package users

// CreateUserRequest is the payload for POST /user/create-user. Unlike
// self-registration, the role comes from the caller.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// UpdateRoleRequest is the payload for PATCH /user/update-role.
type UpdateRoleRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	NewRole   string `json:"newRole"`
}

// DeleteStudentsRequest is the payload for DELETE /user/delete-students.
type DeleteStudentsRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
