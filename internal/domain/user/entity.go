package user

// User represents a row of the users table.
type User struct {
	ID    int64  // ID is assigned by the database and never changes
	Name  string // Name is free-form text, required on create and update
	Email string // Email is free-form text, required on create and update
}
