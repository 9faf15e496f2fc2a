package source

import (
	"context"
	"time"

	"github.com/staffsight/backend/internal/types"
)

// BudgetSource supplies active projects with rolled-up time budgets.
type BudgetSource interface {
	// FetchProjects returns one ProjectSummary per active project. A
	// returned error means the whole source is unavailable; partial
	// per-project problems are absorbed by the implementation.
	FetchProjects(ctx context.Context) ([]types.ProjectSummary, error)
}

// CalendarSource supplies calendar events per staff member for a date
// range.
type CalendarSource interface {
	// FetchEvents returns one entry per requested staff id. A failure
	// fetching one staff member's events is recorded on that entry's Err
	// field and must not affect any other entry. A returned error means
	// the whole source is unavailable.
	FetchEvents(ctx context.Context, staffIDs []string, start, end time.Time) (map[string]types.StaffEvents, error)
}
