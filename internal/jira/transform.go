package jira

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/joescharf/shiplog/internal/adf"
	"github.com/joescharf/shiplog/internal/models"
)

// NoDescription replaces a missing issue description.
const NoDescription = "No description provided"

var sensitiveDepartments = map[string]bool{
	"Internal":  true,
	"Sensitive": true,
}

// IsSensitive reports whether issues of dept must never be shown.
func IsSensitive(dept string) bool {
	return sensitiveDepartments[dept]
}

// ResolveDepartment reads the department custom field, which is either a
// plain string or a select option object with a value.
func ResolveDepartment(raw json.RawMessage) string {
	if len(raw) == 0 {
		return models.DepartmentUnassigned
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return models.DepartmentUnassigned
		}
		return s
	}

	var opt struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &opt); err == nil && opt.Value != "" {
		return opt.Value
	}
	return models.DepartmentUnassigned
}

// ActiveSprint returns the first sprint in the field whose state is active.
// Anything other than an array of sprint objects yields nil.
func ActiveSprint(raw json.RawMessage) *models.Sprint {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	for _, e := range entries {
		var s RawSprint
		if err := json.Unmarshal(e, &s); err != nil {
			continue
		}
		if s.State == models.SprintStateActive {
			return &models.Sprint{ID: s.ID, Name: s.Name, State: s.State}
		}
	}
	return nil
}

// Transform reshapes raw issues into board issues, dropping sensitive
// departments. Input order is preserved.
func Transform(raw []RawIssue) []models.Issue {
	issues := make([]models.Issue, 0, len(raw))
	for _, r := range raw {
		dept := ResolveDepartment(r.Fields.Department)
		if IsSensitive(dept) {
			continue
		}

		issue := models.Issue{
			ID:          r.ID,
			Key:         r.Key,
			Summary:     r.Fields.Summary,
			Description: r.Fields.Description,
			Status:      statusName(r.Fields.Status),
			Department:  dept,
			Subtasks:    make([]models.Subtask, 0, len(r.Fields.Subtasks)),
			Comments:    []models.Comment{},
		}
		if issue.Description.Empty() {
			issue.Description = adf.Plain(NoDescription)
		}
		if t, ok := parseTime(r.Fields.Created); ok {
			issue.Created = t
		}
		issue.Classify(ActiveSprint(r.Fields.Sprints))

		for _, st := range r.Fields.Subtasks {
			issue.Subtasks = append(issue.Subtasks, models.Subtask{
				ID:      st.ID,
				Summary: st.Fields.Summary,
				Status:  statusName(st.Fields.Status),
			})
		}

		if r.Fields.Comment != nil {
			for _, c := range r.Fields.Comment.Comments {
				comment := models.Comment{ID: c.ID, Body: c.Body}
				if c.Author != nil {
					comment.Author = c.Author.DisplayName
				}
				if t, ok := parseTime(c.Created); ok {
					comment.Created = &t
				}
				issue.Comments = append(issue.Comments, comment)
			}
		}

		issues = append(issues, issue)
	}
	return issues
}

func statusName(s *RawStatus) models.IssueStatus {
	if s == nil {
		return ""
	}
	return models.IssueStatus(s.Name)
}

// Jira emits offsets without a colon, e.g. 2025-01-15T10:00:00.000+0000.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
