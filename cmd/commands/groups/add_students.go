package groups

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/tui"
	"stopro/roster/internal/util"
)

func AddStudentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-students <group> [name...]",
		Short: "Create student accounts in a group",
		Long: `Create student accounts in a group and print their generated logins.
Passwords are shown only once.

Names come from the arguments, from --file (one "First Last" per line,
"-" for stdin) or, in a terminal, from an editor form.

Examples:
  roster groups add-students 9А "Иван Петров" "Мария Смирнова"
  roster groups add-students 9А --file class.txt -o json`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runAddStudents,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	cmd.Flags().String("file", "", "Read names from a file (- for stdin)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runAddStudents(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt := env.Roster(app.RuntimeOptions{})
	defer rt.Close()

	g, err := resolveGroup(cmd, rt, args[0], "")
	if err != nil {
		return err
	}

	names, err := readNames(cmd, args[1:], g.Name)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Отменено.")
		return nil
	}
	if err != nil {
		return err
	}
	cmdutil.Audit(cmd, env, auditlog.SubjectGroup, g.ID, g.Name)

	var res *domain.AddStudentsResult
	err = cmdutil.Call(cmd, "Добавление учеников...", func(ctx context.Context) error {
		var err error
		res, err = rt.Service.AddStudents(ctx, g.ID, names)
		return err
	})
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Прервано.")
		return nil
	}
	if err != nil {
		return cmdutil.Friendly(err)
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ В группу «%s» добавлено учеников: %d\n\n", res.GroupName, len(res.Credentials))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUSERNAME\tPASSWORD")
	fmt.Fprintln(w, "----\t--------\t--------")
	for _, c := range res.Credentials {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.FullName, c.Username, c.Password)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nСохраните пароли: повторно они не показываются.")
	return nil
}

// readNames collects student names from args, --file or the form.
func readNames(cmd *cobra.Command, args []string, groupName string) ([]string, error) {
	if len(args) > 0 {
		return util.ParseNames(strings.Join(args, "\n")), nil
	}

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		var scanner *bufio.Scanner
		if path == "-" {
			scanner = bufio.NewScanner(cmd.InOrStdin())
		} else {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("failed to open names file: %w", err)
			}
			defer f.Close()
			scanner = bufio.NewScanner(f)
		}
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read names: %w", err)
		}
		return util.ParseNames(strings.Join(lines, "\n")), nil
	}

	if !cmdutil.Interactive(cmd) {
		return nil, errors.New("no student names given (pass names or --file)")
	}
	return tui.StudentNamesForm(groupName)
}
