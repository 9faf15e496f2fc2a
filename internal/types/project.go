package types

// TaskBudget is one task's budget vs. actuals inside a project.
type TaskBudget struct {
	TaskID          int     `json:"taskId"`
	TaskName        string  `json:"taskName"`
	BudgetHours     float64 `json:"budgetHours"`
	BudgetFees      float64 `json:"budgetFees"`
	HoursLogged     float64 `json:"hoursLogged"`
	HoursBillable   float64 `json:"hoursBillable"`
	FeesActual      float64 `json:"feesActual"`
	PercentComplete float64 `json:"percentComplete"`
}

// ProjectSummary is one active project from the budget source with its task
// budgets rolled up.
type ProjectSummary struct {
	ProjectID      int          `json:"projectId"`
	Name           string       `json:"name"`
	Code           string       `json:"code"`
	StartDate      string       `json:"startDate,omitempty"`
	EndDate        string       `json:"endDate,omitempty"`
	BudgetHours    float64      `json:"budgetHours"`
	HoursLogged    float64      `json:"hoursLogged"`
	HoursRemaining float64      `json:"hoursRemaining"`
	TaskCount      int          `json:"taskCount"`
	Tasks          []TaskBudget `json:"tasks,omitempty"`
}
