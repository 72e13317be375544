package model

import "time"

// Project statuses shown on the dashboard tables page.
const (
	ProjectStatusPlanning   = "Planning"
	ProjectStatusInProgress = "In Progress"
	ProjectStatusCompleted  = "Completed"
)

// Project models a row in the `projects` table.  Completion is a 0..100
// percentage driven by the progress bars in the UI.
type Project struct {
	ID         uint64
	Name       string
	Client     string
	Status     string
	Completion uint8
	DueDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidProjectStatus reports whether s is a recognized project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}
