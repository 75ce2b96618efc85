package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/services/auth"
	"stopro/roster/internal/util"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent changes",
		Long: `List recent audit entries, newest first.

Examples:
  roster audit list
  roster audit list --limit 50
  roster audit list --command "roster students delete"
  roster audit list --state undone
  roster audit list --profile work -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmd.Flags().String("profile", "", "Filter by session profile")
	cmd.Flags().String("state", "", "Filter by how the undoable action ended (undone, finalized, ...)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	command, _ := cmd.Flags().GetString("command")
	profile, _ := cmd.Flags().GetString("profile")
	state, _ := cmd.Flags().GetString("state")
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	q := auditlog.Query{
		Command:     strings.TrimSpace(command),
		ActionState: strings.TrimSpace(state),
		Limit:       limit,
	}
	if profile = strings.TrimSpace(profile); profile != "" {
		q.Profile = auth.NormalizeProfile(profile)
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.List(q)
	if err != nil {
		return err
	}

	if output == "json" {
		if entries == nil {
			entries = []auditlog.Entry{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "История пуста.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROFILE\tCOMMAND\tOUTCOME\tACTION\tDURATION\tSUBJECT\tDETAIL")
	fmt.Fprintln(w, "----\t-------\t-------\t-------\t------\t--------\t-------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			util.OrDash(e.Profile),
			e.Command,
			e.Outcome,
			formatAction(e),
			formatDuration(e.DurationMs),
			formatSubject(e),
			util.OrDash(e.Detail),
		)
	}
	return w.Flush()
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", ms)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

// formatAction renders "kind → state" for commands that armed an
// undoable action.
func formatAction(e auditlog.Entry) string {
	switch {
	case e.ActionKind == "":
		return "-"
	case e.ActionState == "":
		return e.ActionKind
	}
	return e.ActionKind + " → " + e.ActionState
}

// formatSubject renders "type:id (name)", leaving out the empty parts.
func formatSubject(e auditlog.Entry) string {
	parts := make([]string, 0, 2)
	if e.SubjectType != "" {
		parts = append(parts, e.SubjectType)
	}
	if e.SubjectID != "" {
		parts = append(parts, e.SubjectID)
	}
	subject := strings.Join(parts, ":")
	if e.SubjectName != "" {
		if subject == "" {
			return e.SubjectName
		}
		subject += " (" + e.SubjectName + ")"
	}
	return util.OrDash(subject)
}
