package domain

import (
	"math"
	"time"
)

// Task sections as stored by the surrounding app.
const (
	SectionToday    = "today"
	SectionTomorrow = "tomorrow"
	SectionSomeday  = "someday"
)

// Task is a to-do item owned by the surrounding app; the engine only reads it.
type Task struct {
	ID        string
	UserID    string
	Title     string
	Section   string
	Completed bool
	CreatedAt time.Time // UTC
}

// Win records a completed task kept for streak/recap counters.
type Win struct {
	ID          string
	UserID      string
	Title       string
	CompletedAt time.Time // UTC
}

// Settings is a user's notification opt-in row. Disabling flips Enabled;
// rows are never deleted.
type Settings struct {
	UserID      string
	Enabled     bool
	Name        string
	Email       string
	TZ          string
	Location    string
	LastAppOpen *time.Time // UTC, nullable
	CreatedAt   time.Time  // UTC
}

// TaskView is a today-task as embedded in generation context.
type TaskView struct {
	Task     string `json:"task"`
	Checked  bool   `json:"checked"`
	AgeHours int    `json:"age_hours"`
}

// UserContext is the per-invocation snapshot the prompt selectors and the
// text generator work from. It is rebuilt for every job evaluation; ages and
// inactivity are relative to the instant it was built and never cached.
type UserContext struct {
	UserName        string     `json:"user_name"`
	UserEmail       string     `json:"user_email"`
	UserID          string     `json:"user_id"`
	CurrentTime     string     `json:"current_time"`
	DayOfWeek       string     `json:"day_of_week"`
	TodayTasks      []TaskView `json:"today_tasks"`
	TomorrowTasks   []string   `json:"tomorrow_tasks"`
	SomedayTasks    []string   `json:"someday_tasks"`
	CompletedToday  int        `json:"completed_today"`
	PendingToday    int        `json:"pending_today"`
	TotalTasksToday int        `json:"total_tasks_today"`
	StaleTasks      []TaskView `json:"stale_tasks"`
	LastAppOpen     string     `json:"last_app_open"`
	DaysInactive    int        `json:"days_inactive"`
	WinsThisWeek    int        `json:"wins_this_week"`
	WinsTotal       int        `json:"wins_total"`
	Timezone        string     `json:"timezone"`
}

// ContextInput carries everything BuildUserContext needs, so the build itself
// stays a pure function over already-fetched rows.
type ContextInput struct {
	Settings     Settings
	Tasks        []Task
	WinsThisWeek int
	WinsTotal    int
	Now          time.Time
}

var weekdayNames = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// StaleAge is the incomplete-task age at which a today-task counts as stale.
const StaleAge = 24 * time.Hour

// BuildUserContext derives a UserContext snapshot from a user's rows.
// A missing last-app-open timestamp yields zero days of inactivity rather
// than an error.
func BuildUserContext(in ContextInput) UserContext {
	now := in.Now.UTC()
	s := in.Settings

	uc := UserContext{
		UserName:      s.Name,
		UserEmail:     s.Email,
		UserID:        s.UserID,
		CurrentTime:   now.Format(time.RFC3339),
		DayOfWeek:     weekdayNames[LocalWeekday(s.TZ, now)],
		TodayTasks:    []TaskView{},
		TomorrowTasks: []string{},
		SomedayTasks:  []string{},
		StaleTasks:    []TaskView{},
		Timezone:      s.TZ,
	}

	for _, t := range in.Tasks {
		switch t.Section {
		case SectionToday:
			view := TaskView{
				Task:     t.Title,
				Checked:  t.Completed,
				AgeHours: int(math.Round(now.Sub(t.CreatedAt).Hours())),
			}
			uc.TodayTasks = append(uc.TodayTasks, view)
			if t.Completed {
				uc.CompletedToday++
			} else {
				uc.PendingToday++
				if float64(view.AgeHours) >= StaleAge.Hours() {
					uc.StaleTasks = append(uc.StaleTasks, view)
				}
			}
		case SectionTomorrow:
			uc.TomorrowTasks = append(uc.TomorrowTasks, t.Title)
		case SectionSomeday:
			uc.SomedayTasks = append(uc.SomedayTasks, t.Title)
		}
	}
	uc.TotalTasksToday = len(uc.TodayTasks)

	lastOpen := now
	if s.LastAppOpen != nil {
		lastOpen = s.LastAppOpen.UTC()
		uc.DaysInactive = int(now.Sub(lastOpen).Hours() / 24)
	}
	uc.LastAppOpen = lastOpen.Format(time.RFC3339)

	uc.WinsThisWeek = in.WinsThisWeek
	uc.WinsTotal = in.WinsTotal
	return uc
}

// PendingTasks returns the incomplete today-tasks in encounter order.
func (uc UserContext) PendingTasks() []TaskView {
	var out []TaskView
	for _, t := range uc.TodayTasks {
		if !t.Checked {
			out = append(out, t)
		}
	}
	return out
}

// CompletedTasks returns the completed today-tasks in encounter order.
func (uc UserContext) CompletedTasks() []TaskView {
	var out []TaskView
	for _, t := range uc.TodayTasks {
		if t.Checked {
			out = append(out, t)
		}
	}
	return out
}
