package students

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/tui"
)

// errNoStudent is returned when no student was named and none can be
// picked interactively.
var errNoStudent = errors.New("student is required (ID or full name)")

// resolveStudent finds the student named by args, or lets the user pick
// one from those matching keep.
func resolveStudent(cmd *cobra.Command, rt *app.Runtime, args []string, title string, keep func(domain.Student) bool) (domain.Student, error) {
	ctx := cmd.Context()

	if len(args) == 0 {
		if !cmdutil.Interactive(cmd) {
			return domain.Student{}, errNoStudent
		}
		if err := rt.Service.Load(ctx); err != nil {
			return domain.Student{}, cmdutil.Friendly(err)
		}
		var candidates []domain.Student
		for _, s := range rt.Service.Students() {
			if keep == nil || keep(s) {
				candidates = append(candidates, s)
			}
		}
		id, err := tui.SelectStudentForm(candidates, title)
		if err != nil {
			return domain.Student{}, err
		}
		args = []string{id}
	}

	st, err := rt.Service.FindStudent(ctx, args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Student{}, fmt.Errorf("ученик %q не найден", args[0])
	}
	if err != nil {
		return domain.Student{}, cmdutil.Friendly(err)
	}
	return st, nil
}
