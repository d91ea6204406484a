package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"users-crud/internal/client"
	"users-crud/internal/viewmodel"
)

// memoryAPI is an in-memory stand-in for the users API.
type memoryAPI struct {
	users     []client.User
	nextID    int64
	failWrite bool
	calls     int
}

func (a *memoryAPI) List(context.Context) ([]client.User, error) {
	a.calls++
	return append([]client.User{}, a.users...), nil
}

func (a *memoryAPI) Create(_ context.Context, name, email string) (client.User, error) {
	a.calls++
	if a.failWrite {
		return client.User{}, errors.New("500")
	}
	a.nextID++
	u := client.User{ID: a.nextID, Name: name, Email: email}
	a.users = append(a.users, u)
	return u, nil
}

func (a *memoryAPI) Update(_ context.Context, u client.User) error {
	a.calls++
	if a.failWrite {
		return errors.New("500")
	}
	for i := range a.users {
		if a.users[i].ID == u.ID {
			a.users[i] = u
		}
	}
	return nil
}

func (a *memoryAPI) Delete(_ context.Context, id int64) error {
	a.calls++
	if a.failWrite {
		return errors.New("500")
	}
	for i := range a.users {
		if a.users[i].ID == id {
			a.users = append(a.users[:i], a.users[i+1:]...)
			break
		}
	}
	return nil
}

func run(t *testing.T, api *memoryAPI, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	log := zaptest.NewLogger(t)
	c := New(viewmodel.New(api, log), strings.NewReader(strings.Join(script, "\n")+"\n"), &out, log)
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func lastScreen(out string) string {
	i := strings.LastIndex(out, "User Management")
	if i < 0 {
		return ""
	}
	return out[i:]
}

func TestConsole_AliceScenario(t *testing.T) {
	api := &memoryAPI{}

	out := run(t, api,
		"name Alice",
		"email a@x.io",
		"submit",
		"edit 1",
		"name Alicia",
		"submit",
		"delete 1",
		"quit",
	)

	assert.Regexp(t, `1\s+Alice\s+a@x\.io`, out)
	assert.Contains(t, out, "Edit User (id 1)")
	assert.Contains(t, out, "[submit] Update  [cancel] Cancel")
	assert.Regexp(t, `1\s+Alicia\s+a@x\.io`, out)
	assert.Empty(t, api.users)

	screen := lastScreen(out)
	assert.Contains(t, screen, "Add New User")
	assert.NotContains(t, screen, "Alicia")
}

func TestConsole_EmptyFieldsShowError(t *testing.T) {
	api := &memoryAPI{}

	out := run(t, api, "name Alice", "submit", "quit")

	assert.Contains(t, lastScreen(out), "! Please fill in all fields")
	assert.Equal(t, 1, api.calls, "only the initial load reaches the API")
}

func TestConsole_FailuresAreShown(t *testing.T) {
	api := &memoryAPI{users: []client.User{{ID: 3, Name: "Bob", Email: "b@x.io"}}, failWrite: true}

	out := run(t, api,
		"name Alice",
		"email a@x.io",
		"submit",
		"delete 3",
		"edit 3",
		"submit",
		"quit",
	)

	assert.Contains(t, out, "! Failed to add user")
	assert.Contains(t, out, "*** Failed to delete ***")
	assert.Contains(t, out, "! Failed to update user")
	assert.Equal(t, 1, strings.Count(out, "Failed to delete"), "alert is shown once")
	assert.Regexp(t, `3\s+Bob\s+b@x\.io`, lastScreen(out))
}

func TestConsole_CancelEdit(t *testing.T) {
	api := &memoryAPI{users: []client.User{{ID: 3, Name: "Bob", Email: "b@x.io"}}}

	out := run(t, api, "edit 3", "cancel", "quit")

	screen := lastScreen(out)
	assert.Contains(t, screen, "Add New User")
	assert.Contains(t, screen, "  Name:  \n")
}

func TestConsole_UsageErrors(t *testing.T) {
	out := run(t, &memoryAPI{}, "edit abc", "edit 9", "delete", "frobnicate", "help")

	assert.Contains(t, out, `expected a positive user id, got "abc"`)
	assert.Contains(t, out, "no user with id 9")
	assert.Contains(t, out, `expected a positive user id, got ""`)
	assert.Contains(t, out, `unknown command "frobnicate"`)
	assert.Contains(t, out, "delete <id>")
}

func TestConsole_RunStopsOnCancelWithoutInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	var out bytes.Buffer
	log := zaptest.NewLogger(t)
	c := New(viewmodel.New(&memoryAPI{}, log), pr, &out, log)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRender_TableHeaderAndRows(t *testing.T) {
	api := &memoryAPI{users: []client.User{
		{ID: 1, Name: "Alice", Email: "alice.with.a.rather.long.address@example.com"},
		{ID: 12, Name: "Bob", Email: "b@x.io"},
	}}
	vm := viewmodel.New(api, zaptest.NewLogger(t))
	require.NoError(t, vm.Load(context.Background()))

	var out bytes.Buffer
	Render(&out, vm)

	assert.Regexp(t, `ID\s+Name\s+Email`, out.String())
	assert.Contains(t, out.String(), "alice.with.a.rather.long.address@example.com", "long values are not wrapped")
	assert.Regexp(t, `12\s+Bob\s+b@x\.io`, out.String())
}
