package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// CreateUserResponse echoes the stored record, including the assigned ID.
type CreateUserResponse struct {
	ID    int64
	Name  string
	Email string
}

// UpdateUserRequest represents the request payload for updating an existing user.
type UpdateUserRequest struct {
	ID    int64  `validate:"gt=0"`
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// UpdateUserResponse reports the outcome of an update. Matched is false when
// no row had the requested ID.
type UpdateUserResponse struct {
	ID      int64
	Matched bool
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64 `validate:"gt=0"`
}

// DeleteUserResponse reports the outcome of a delete. Matched is false when
// no row had the requested ID.
type DeleteUserResponse struct {
	ID      int64
	Matched bool
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID    int64
	Name  string
	Email string
}
