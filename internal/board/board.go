// Package board applies the presentation filters of the Kanban view.
package board

import (
	"fmt"
	"sort"

	"github.com/joescharf/shiplog/internal/models"
)

// AllDepartments matches every department.
const AllDepartments = "All"

// DefaultCutoffYear hides issues created before this year.
const DefaultCutoffYear = 2025

// View selects the sprint or backlog tab.
type View string

const (
	ViewSprint  View = "sprint"
	ViewBacklog View = "backlog"
)

// ParseView validates a view name. Empty means sprint.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewSprint:
		return ViewSprint, nil
	case ViewBacklog:
		return ViewBacklog, nil
	}
	return "", fmt.Errorf("unknown view %q (want sprint or backlog)", s)
}

// Statuses are the board columns, in display order.
var Statuses = []models.IssueStatus{
	models.IssueStatusToDo,
	models.IssueStatusInProgress,
	models.IssueStatusDone,
}

// Options controls Filter.
type Options struct {
	Department string
	View       View
	CutoffYear int
}

// Filter returns the issues visible under opts, in input order.
func Filter(issues []models.Issue, opts Options) []models.Issue {
	if opts.Department == "" {
		opts.Department = AllDepartments
	}
	if opts.View == "" {
		opts.View = ViewSprint
	}
	if opts.CutoffYear == 0 {
		opts.CutoffYear = DefaultCutoffYear
	}

	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if opts.Department != AllDepartments && issue.Department != opts.Department {
			continue
		}
		if !inView(issue, opts.View) {
			continue
		}
		if issue.Created.Year() < opts.CutoffYear {
			continue
		}
		out = append(out, issue)
	}
	return out
}

func inView(issue models.Issue, v View) bool {
	switch v {
	case ViewBacklog:
		return issue.ShowInBacklog
	default:
		return issue.Sprint != nil && issue.Sprint.State == models.SprintStateActive
	}
}

// Departments returns "All" followed by the distinct departments sorted
// alphabetically, with "Unassigned" last when present.
func Departments(issues []models.Issue) []string {
	seen := make(map[string]bool)
	var names []string
	unassigned := false
	for _, issue := range issues {
		d := issue.Department
		if d == models.DepartmentUnassigned {
			unassigned = true
			continue
		}
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		names = append(names, d)
	}
	sort.Strings(names)

	out := append([]string{AllDepartments}, names...)
	if unassigned {
		out = append(out, models.DepartmentUnassigned)
	}
	return out
}

// Column is one status lane of the sprint view.
type Column struct {
	Status models.IssueStatus `json:"status"`
	Issues []models.Issue     `json:"issues"`
}

// Columns groups issues into the fixed status lanes. Issues with any other
// status are left out.
func Columns(issues []models.Issue) []Column {
	cols := make([]Column, len(Statuses))
	index := make(map[models.IssueStatus]int, len(Statuses))
	for i, s := range Statuses {
		cols[i] = Column{Status: s, Issues: []models.Issue{}}
		index[s] = i
	}
	for _, issue := range issues {
		if i, ok := index[issue.Status]; ok {
			cols[i].Issues = append(cols[i].Issues, issue)
		}
	}
	return cols
}
