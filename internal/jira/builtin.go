package jira

import (
	"time"

	"github.com/joescharf/shiplog/internal/adf"
	"github.com/joescharf/shiplog/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// BuiltinIssues returns the fixed demo dataset served when the tracker is
// unavailable. Each call returns a fresh copy.
func BuiltinIssues() []models.Issue {
	issues := []models.Issue{
		{
			ID:          "1",
			Key:         "PROJ-1",
			Summary:     "Implement login functionality",
			Description: adf.Plain(NoDescription),
			Status:      models.IssueStatusToDo,
			Department:  "Engineering",
			Subtasks: []models.Subtask{
				{ID: "1.1", Summary: "Design login UI", Status: models.IssueStatusDone},
				{ID: "1.2", Summary: "Implement authentication", Status: models.IssueStatusInProgress},
			},
			Comments: []models.Comment{
				{ID: "1", Body: adf.Plain("Let's use OAuth for authentication"), Author: "John Doe"},
			},
			Created: day(2025, time.January, 15),
		},
		{
			ID:          "2",
			Key:         "PROJ-2",
			Summary:     "Create marketing campaign",
			Description: adf.Plain(NoDescription),
			Status:      models.IssueStatusInProgress,
			Department:  "Marketing",
			Subtasks: []models.Subtask{
				{ID: "2.1", Summary: "Define target audience", Status: models.IssueStatusDone},
				{ID: "2.2", Summary: "Design promotional materials", Status: models.IssueStatusToDo},
			},
			Comments: []models.Comment{
				{ID: "2", Body: adf.Plain("We should focus on social media for this campaign"), Author: "Jane Smith"},
			},
			Created: day(2024, time.December, 1),
		},
		{
			ID:          "3",
			Key:         "PROJ-3",
			Summary:     "Optimize database queries",
			Description: adf.Plain(NoDescription),
			Status:      models.IssueStatusDone,
			Department:  "Engineering",
			Subtasks:    []models.Subtask{},
			Comments: []models.Comment{
				{ID: "3", Body: adf.Plain("All queries have been optimized, resulting in a 30% performance improvement"), Author: "Alice Johnson"},
			},
			Created: day(2025, time.February, 1),
		},
	}
	for i := range issues {
		issues[i].Classify(nil)
	}
	return issues
}
