package models

// ProjectStatistics is the flat aggregate returned for an organization,
// optionally narrowed to a single project.
type ProjectStatistics struct {
	TotalProjects  int     `json:"totalProjects"`
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	ActiveTasks    int     `json:"activeTasks"`
	CompletionRate float64 `json:"completionRate"`
}
