package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"users-crud/internal/client"
	"users-crud/internal/viewmodel"
)

// Render writes the user table and the add/edit form for the current state.
// It only reads the view-model, except for consuming a pending alert.
func Render(w io.Writer, vm *viewmodel.Users) {
	fmt.Fprintln(w, "User Management")
	fmt.Fprintln(w, strings.Repeat("=", len("User Management")))

	renderTable(w, vm.Users())

	fmt.Fprintln(w)
	editing, isEditing := vm.Editing()
	if isEditing {
		fmt.Fprintf(w, "Edit User (id %d)\n", editing.ID)
	} else {
		fmt.Fprintln(w, "Add New User")
	}

	if msg := vm.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "! %s\n", msg)
	}

	fmt.Fprintf(w, "  Name:  %s\n", vm.Name())
	fmt.Fprintf(w, "  Email: %s\n", vm.Email())

	if isEditing {
		fmt.Fprintln(w, "[submit] Update  [cancel] Cancel")
	} else {
		fmt.Fprintln(w, "[submit] Add")
	}

	if alert := vm.TakeAlert(); alert != "" {
		fmt.Fprintf(w, "\n*** %s ***\n", alert)
	}
}

// renderTable draws a borderless, left aligned table with two spaces between columns.
func renderTable(w io.Writer, users []client.User) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Email"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, u := range users {
		table.Append([]string{strconv.FormatInt(u.ID, 10), u.Name, u.Email})
	}
	table.Render()
}
