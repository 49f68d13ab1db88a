package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/shiplog/internal/board"
	"github.com/joescharf/shiplog/internal/jira"
	"github.com/joescharf/shiplog/internal/logging"
	"github.com/joescharf/shiplog/internal/models"
	"github.com/joescharf/shiplog/internal/output"
)

var (
	boardDepartment string
	boardView       string
	boardJSON       bool
	issueJSON       bool
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the board for the configured Jira project",
	Long: `Fetch the issues of the configured Jira project and print them, filtered
the same way as the web board. Falls back to stored snapshots or the built-in
dataset according to jira.fallback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardRun(cmd)
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue <key>",
	Short: "Show one issue with its subtasks and comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueRun(cmd, args[0])
	},
}

func init() {
	boardCmd.Flags().StringVarP(&boardDepartment, "department", "d", board.AllDepartments, "Department to show")
	boardCmd.Flags().StringVar(&boardView, "view", string(board.ViewSprint), "Board view: sprint or backlog")
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "Print JSON instead of a table")
	issueCmd.Flags().BoolVar(&issueJSON, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(issueCmd)
}

// cliBoardService builds the board service with logs on stderr.
func cliBoardService() (*jira.Service, int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, 0, err
	}
	level := cfg.LogLevel
	if !verbose && level == "info" {
		level = "warn"
	}
	log := logging.New(ui.ErrOut, level, cfg.LogFormat)
	svc, err := newBoardService(cfg, log)
	if err != nil {
		return nil, 0, err
	}
	return svc, cfg.CutoffYear, nil
}

func boardRun(cmd *cobra.Command) error {
	view, err := board.ParseView(boardView)
	if err != nil {
		return err
	}
	svc, cutoff, err := cliBoardService()
	if err != nil {
		return err
	}

	res, err := svc.Board(cmd.Context())
	if err != nil {
		return err
	}
	issues := board.Filter(res.Issues, board.Options{
		Department: boardDepartment,
		View:       view,
		CutoffYear: cutoff,
	})

	if boardJSON {
		return writeJSONOut(ui.Out, map[string]any{
			"source":      res.Source,
			"project":     res.ProjectKey,
			"department":  boardDepartment,
			"view":        view,
			"departments": board.Departments(res.Issues),
			"issues":      issues,
		})
	}

	project := res.ProjectKey
	if project == "" {
		project = "-"
	}
	ui.Info("Project %s (source: %s, view: %s, department: %s)",
		project, output.SourceColor(string(res.Source)), view, boardDepartment)

	if len(issues) == 0 {
		ui.Info("No issues match")
		return nil
	}
	printIssueTable(issues)
	return nil
}

func printIssueTable(issues []models.Issue) {
	table := ui.Table([]string{"Key", "Summary", "Status", "Department", "Sprint", "Created"})
	for _, i := range issues {
		sprint := "-"
		if i.Sprint != nil {
			sprint = i.Sprint.Name
		}
		table.Append([]string{
			i.Key,
			truncate(i.Summary, 50),
			output.StatusColor(string(i.Status)),
			i.Department,
			sprint,
			i.Created.Format("2006-01-02"),
		})
	}
	table.Render()
}

func issueRun(cmd *cobra.Command, key string) error {
	svc, _, err := cliBoardService()
	if err != nil {
		return err
	}
	issue, err := svc.Issue(cmd.Context(), key)
	if err != nil {
		return err
	}

	if issueJSON {
		return writeJSONOut(ui.Out, issue)
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(issue.Key), issue.Summary)
	fmt.Fprintf(ui.Out, "Status:     %s\n", output.StatusColor(string(issue.Status)))
	fmt.Fprintf(ui.Out, "Department: %s\n", issue.Department)
	if issue.Sprint != nil {
		fmt.Fprintf(ui.Out, "Sprint:     %s\n", issue.Sprint.Name)
	} else {
		fmt.Fprintf(ui.Out, "Sprint:     (backlog)\n")
	}
	fmt.Fprintf(ui.Out, "Created:    %s\n\n", issue.Created.Format("2006-01-02 15:04"))
	fmt.Fprintln(ui.Out, strings.TrimSpace(issue.Description.String()))

	if len(issue.Subtasks) > 0 {
		fmt.Fprintf(ui.Out, "\nSubtasks:\n")
		for _, st := range issue.Subtasks {
			fmt.Fprintf(ui.Out, "  - %s [%s]\n", st.Summary, output.StatusColor(string(st.Status)))
		}
	}
	if len(issue.Comments) > 0 {
		fmt.Fprintf(ui.Out, "\nComments:\n")
		for _, c := range issue.Comments {
			fmt.Fprintf(ui.Out, "  %s: %s\n", output.Yellow(c.Author), strings.TrimSpace(c.Body.String()))
		}
	}
	return nil
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
