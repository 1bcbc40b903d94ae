package user

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Name  string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Email string `json:"email" form:"email" binding:"required,email"`
	Role  string `json:"role" form:"role" binding:"omitempty,oneof=member instructor admin"`
}

// UpdateUserRequest is the body of PUT /api/users/:id. An empty role keeps
// the current one.
type UpdateUserRequest struct {
	Name  string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Email string `json:"email" form:"email" binding:"required,email"`
	Role  string `json:"role" form:"role" binding:"omitempty,oneof=member instructor admin"`
}
