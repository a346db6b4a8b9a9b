package content

import (
	"time"
)

// Defaults used when a program setting is missing. Context assembly tolerates
// partial data because content generation has its own static fallback.
const (
	DefaultWeekNumber  = 1
	DefaultModuleTitle = "Month 1"
)

// ProgramState is where the cohort currently is in the curriculum.
type ProgramState struct {
	WeekNumber  int    `json:"week_number"`
	ModuleID    string `json:"module_id"`
	ModuleTitle string `json:"module_title"`
}

// DiscussionSummary is one recent discussion thread, bounded to the context
// window.
type DiscussionSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	ResponseCount int       `json:"response_count"`
}

// EventSummary is one upcoming event.
type EventSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	Location string    `json:"location,omitempty"`
}

// CommunityContext is the point-in-time aggregate handed to content
// generation. AsOf labels the whole object with a single logical read
// timestamp so downstream consumers can reason about staleness; mixing data
// from different read times into one context is a correctness bug.
type CommunityContext struct {
	AsOf           time.Time           `json:"as_of"`
	Program        ProgramState        `json:"program_state"`
	Discussions    []DiscussionSummary `json:"discussions"`
	ActiveUsers    int                 `json:"active_users"`
	TotalUsers     int                 `json:"total_users"`
	UpcomingEvents []EventSummary      `json:"upcoming_events"`
}
