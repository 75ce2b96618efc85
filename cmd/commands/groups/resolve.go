package groups

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/tui"
)

var errNoGroup = errors.New("group is required (ID or name)")

// resolveGroup finds the group named by ref, or lets the user pick one
// when ref is empty.
func resolveGroup(cmd *cobra.Command, rt *app.Runtime, ref, title string) (domain.Group, error) {
	ctx := cmd.Context()

	if ref == "" {
		if !cmdutil.Interactive(cmd) {
			return domain.Group{}, errNoGroup
		}
		if err := rt.Service.Load(ctx); err != nil {
			return domain.Group{}, cmdutil.Friendly(err)
		}
		id, err := tui.SelectGroupForm(rt.Service.Groups(), title)
		if err != nil {
			return domain.Group{}, err
		}
		ref = id
	}

	g, err := rt.Service.FindGroup(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Group{}, fmt.Errorf("группа %q не найдена", ref)
	}
	if err != nil {
		return domain.Group{}, cmdutil.Friendly(err)
	}
	return g, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
