// Package viewmodel holds the client side state of the user management
// screen: the known users, the add/edit form and the messages shown to the
// operator. Local state only changes after the server confirms a mutation.
package viewmodel

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"users-crud/internal/client"
)

// Messages shown to the operator.
const (
	MsgFillAllFields = "Please fill in all fields"
	MsgAddFailed     = "Failed to add user"
	MsgUpdateFailed  = "Failed to update user"
	MsgDeleteFailed  = "Failed to delete"
	MsgLoadFailed    = "Failed to load users"
)

// ErrMissingFields is returned by Submit when name or email is empty.
var ErrMissingFields = errors.New("name and email are required")

// API is the subset of the users client the view-model needs.
type API interface {
	List(ctx context.Context) ([]client.User, error)
	Create(ctx context.Context, name, email string) (client.User, error)
	Update(ctx context.Context, u client.User) error
	Delete(ctx context.Context, id int64) error
}

// Users is the view-model. It is not safe for concurrent use.
type Users struct {
	api API
	log *zap.Logger

	users   []client.User
	editing *client.User
	name    string
	email   string
	errMsg  string
	alert   string
}

// New creates an empty view-model in the browsing state.
func New(api API, log *zap.Logger) *Users {
	return &Users{api: api, log: log.Named("viewmodel"), users: []client.User{}}
}

// Load replaces the local list with the server's.
func (m *Users) Load(ctx context.Context) error {
	users, err := m.api.List(ctx)
	if err != nil {
		m.log.Warn("load failed", zap.Error(err))
		m.errMsg = MsgLoadFailed
		return err
	}
	m.users = users
	if m.errMsg == MsgLoadFailed {
		m.errMsg = ""
	}
	return nil
}

// Users returns a copy of the known users in server order.
func (m *Users) Users() []client.User {
	return slices.Clone(m.users)
}

// Find looks up a known user by id.
func (m *Users) Find(id int64) (client.User, bool) {
	i := m.indexOf(id)
	if i < 0 {
		return client.User{}, false
	}
	return m.users[i], true
}

// Editing returns the user being edited, if any.
func (m *Users) Editing() (client.User, bool) {
	if m.editing == nil {
		return client.User{}, false
	}
	return *m.editing, true
}

// Name is the form's name field.
func (m *Users) Name() string { return m.name }

// Email is the form's email field.
func (m *Users) Email() string { return m.email }

// SetName updates the form's name field. It does not touch the error line.
func (m *Users) SetName(name string) { m.name = name }

// SetEmail updates the form's email field.
func (m *Users) SetEmail(email string) { m.email = email }

// ErrorMessage is the form error line, empty when there is none.
func (m *Users) ErrorMessage() string { return m.errMsg }

// TakeAlert returns the pending alert and clears it.
func (m *Users) TakeAlert() string {
	a := m.alert
	m.alert = ""
	return a
}

// StartEdit switches to editing u and copies its fields into the form.
func (m *Users) StartEdit(u client.User) {
	m.editing = &u
	m.name = u.Name
	m.email = u.Email
}

// CancelEdit returns to browsing and clears the form.
func (m *Users) CancelEdit() {
	m.editing = nil
	m.name = ""
	m.email = ""
}

// Submit creates a user while browsing or updates the edited one.
func (m *Users) Submit(ctx context.Context) error {
	m.errMsg = ""

	if m.name == "" || m.email == "" {
		m.errMsg = MsgFillAllFields
		return ErrMissingFields
	}

	if m.editing != nil {
		updated := client.User{ID: m.editing.ID, Name: m.name, Email: m.email}
		if err := m.api.Update(ctx, updated); err != nil {
			m.log.Warn("update failed", zap.Int64("id", updated.ID), zap.Error(err))
			m.errMsg = MsgUpdateFailed
			return err
		}
		if i := m.indexOf(updated.ID); i >= 0 {
			m.users[i] = updated
		}
		m.editing = nil
	} else {
		created, err := m.api.Create(ctx, m.name, m.email)
		if err != nil {
			m.log.Warn("create failed", zap.Error(err))
			m.errMsg = MsgAddFailed
			return err
		}
		m.users = append(m.users, created)
	}

	m.name = ""
	m.email = ""
	return nil
}

// DeleteUser removes id on the server, then locally.
func (m *Users) DeleteUser(ctx context.Context, id int64) error {
	if err := m.api.Delete(ctx, id); err != nil {
		m.log.Warn("delete failed", zap.Int64("id", id), zap.Error(err))
		m.alert = MsgDeleteFailed
		return err
	}
	m.users = slices.DeleteFunc(m.users, func(u client.User) bool { return u.ID == id })
	return nil
}

func (m *Users) indexOf(id int64) int {
	return slices.IndexFunc(m.users, func(u client.User) bool { return u.ID == id })
}
