package models

import (
	"time"

	"github.com/joescharf/shiplog/internal/adf"
)

// IssueStatus is the upstream status name of an issue.
type IssueStatus string

const (
	IssueStatusToDo       IssueStatus = "To Do"
	IssueStatusInProgress IssueStatus = "In Progress"
	IssueStatusDone       IssueStatus = "Done"
	IssueStatusCancelled  IssueStatus = "Cancelled"
)

// Terminal reports whether the status closes an issue for backlog purposes.
func (s IssueStatus) Terminal() bool {
	return s == IssueStatusDone || s == IssueStatusCancelled
}

// DepartmentUnassigned is used when an issue carries no department.
const DepartmentUnassigned = "Unassigned"

// SprintStateActive marks the currently open sprint.
const SprintStateActive = "active"

// Sprint is the active sprint an issue belongs to.
type Sprint struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Subtask is a flattened child issue.
type Subtask struct {
	ID      string      `json:"id"`
	Summary string      `json:"summary"`
	Status  IssueStatus `json:"status"`
}

// Comment is a flattened issue comment.
type Comment struct {
	ID      string       `json:"id"`
	Body    adf.RichText `json:"body"`
	Author  string       `json:"author"`
	Created *time.Time   `json:"created,omitempty"`
}

// Issue is the display-ready view of an upstream issue.
type Issue struct {
	ID            string       `json:"id"`
	Key           string       `json:"key"`
	Summary       string       `json:"summary"`
	Description   adf.RichText `json:"description"`
	Status        IssueStatus  `json:"status"`
	Department    string       `json:"department"`
	Subtasks      []Subtask    `json:"subtasks"`
	Comments      []Comment    `json:"comments"`
	Created       time.Time    `json:"created"`
	Sprint        *Sprint      `json:"sprint"`
	IsBacklog     bool         `json:"isBacklog"`
	ShowInBacklog bool         `json:"showInBacklog"`
}

// Classify sets the sprint and derives the backlog flags from it.
// IsBacklog holds exactly when there is no active sprint, and ShowInBacklog
// additionally requires a non-terminal status.
func (i *Issue) Classify(active *Sprint) {
	i.Sprint = active
	i.IsBacklog = active == nil
	i.ShowInBacklog = i.IsBacklog && !i.Status.Terminal()
}
