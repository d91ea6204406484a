// Package console is a line-oriented terminal front end for the users API.
// Every command is turned into a view-model action and the screen is
// redrawn from view-model state afterwards.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"users-crud/internal/viewmodel"
)

const help = `Commands:
  list            reload users from the server
  name <text>     set the name field
  email <text>    set the email field
  edit <id>       edit an existing user
  cancel          stop editing
  submit          add or update
  delete <id>     delete a user
  help            show this help
  quit            exit`

// Console drives a view-model from text commands.
type Console struct {
	vm  *viewmodel.Users
	in  io.Reader
	out io.Writer
	log *zap.Logger
}

// New creates a console reading commands from in and drawing to out.
func New(vm *viewmodel.Users, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	return &Console{vm: vm, in: in, out: out, log: log.Named("console")}
}

// Run loads the user list and processes commands until quit, EOF or ctx is done.
// Input is read on a separate goroutine so cancellation does not wait for a
// line; that goroutine stays blocked on in until the next read returns.
func (c *Console) Run(ctx context.Context) error {
	_ = c.vm.Load(ctx)
	Render(c.out, c.vm)

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			c.log.Debug("console stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			quit, err := c.Execute(ctx, line)
			if err != nil {
				fmt.Fprintln(c.out, err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Execute runs one command line. Usage problems are returned as errors;
// failed API calls are reflected in the view-model and redrawn.
func (c *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(c.out, help)
		return false, nil
	case "list":
		_ = c.vm.Load(ctx)
	case "name":
		c.vm.SetName(arg)
	case "email":
		c.vm.SetEmail(arg)
	case "edit":
		id, err := parseID(arg)
		if err != nil {
			return false, err
		}
		u, ok := c.vm.Find(id)
		if !ok {
			return false, fmt.Errorf("no user with id %d", id)
		}
		c.vm.StartEdit(u)
	case "cancel":
		c.vm.CancelEdit()
	case "submit":
		_ = c.vm.Submit(ctx)
	case "delete":
		id, err := parseID(arg)
		if err != nil {
			return false, err
		}
		_ = c.vm.DeleteUser(ctx, id)
	default:
		return false, fmt.Errorf("unknown command %q, type help", cmd)
	}

	c.log.Debug("command executed", zap.String("command", cmd))
	Render(c.out, c.vm)
	return false, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a positive user id, got %q", arg)
	}
	return id, nil
}
