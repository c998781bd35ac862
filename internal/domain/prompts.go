package domain

import (
	"encoding/json"
	"fmt"
)

// Prompt selectors: one pure function per job type. Each inspects a
// UserContext and returns a generation instruction, or ok=false meaning this
// job must not send anything right now. No I/O happens here.

// PromptFor dispatches to the selector for the given job type.
// JobHourlyCheck has no selector of its own; the dispatcher expands it.
func PromptFor(job JobType, uc UserContext) (string, bool) {
	switch job {
	case JobMorning:
		return MorningPrompt(uc)
	case JobMidday:
		return MiddayPrompt(uc)
	case JobEvening:
		return EveningPrompt(uc)
	case JobCelebration:
		return CelebrationPrompt(uc)
	case JobStaleTask:
		return StaleTaskPrompt(uc)
	case JobInactivity:
		return InactivityPrompt(uc)
	case JobFriday:
		return FridayPrompt(uc)
	case JobSunday:
		return SundayPrompt(uc)
	}
	return "", false
}

// MorningPrompt picks one of three variants, in priority order: empty list,
// heavy day (5+ tasks), standard briefing.
func MorningPrompt(uc UserContext) (string, bool) {
	if uc.TotalTasksToday == 0 {
		return fmt.Sprintf(`Job: Empty Today List

Context:
- Today's tasks: none
- Tomorrow's tasks: %s
- Someday tasks: %s
- Day: %s

Task: User has nothing in their Today list. Write an email that checks in — did they forget to add tasks? Are they intentionally chilling? Mention they could pull something from Someday or plan for Tomorrow. Keep it light, not guilt-trippy. A little roast is okay.`,
			asJSON(uc.TomorrowTasks), asJSON(uc.SomedayTasks), uc.DayOfWeek), true
	}

	if uc.TotalTasksToday >= 5 {
		return fmt.Sprintf(`Job: Planning Assist

Context:
- Today's tasks: %s
- Total: %d
- Day: %s

Task: User has a lot on their plate. Write an email that acknowledges this, then suggest a logical order to tackle the tasks. Look for tasks that can be batched together. Add a witty comment. Don't be preachy about productivity.`,
			asJSON(uc.TodayTasks), uc.TotalTasksToday, uc.DayOfWeek), true
	}

	return fmt.Sprintf(`Job: Morning Briefing

Context:
- Today's tasks: %s
- Total: %d
- Day: %s

Task: Write a short morning email listing today's tasks. Give one quick tip on where to start or how to approach the day. Keep it casual and energizing without being cheesy.`,
		asJSON(uc.TodayTasks), uc.TotalTasksToday, uc.DayOfWeek), true
}

// MiddayPrompt skips when nothing is pending (a fully-done list is the
// celebration job's territory) and otherwise calls out the oldest open task.
func MiddayPrompt(uc UserContext) (string, bool) {
	if uc.PendingToday == 0 {
		return "", false
	}

	pending := uc.PendingTasks()
	oldest := pending[0]
	for _, t := range pending[1:] {
		if t.AgeHours > oldest.AgeHours {
			oldest = t
		}
	}

	return fmt.Sprintf(`Job: Midday Check-in

Context:
- Completed today: %d
- Still pending: %d
- Pending tasks: %s
- Oldest pending task: %q (%d hours old)

Task: It's midday. Write a short check-in email about their progress. Mention what's done and what's left. If a task has been sitting for hours, call it out with a light roast. Nudge them to keep going.`,
		uc.CompletedToday, uc.PendingToday, asJSON(pending), oldest.Task, oldest.AgeHours), true
}

// EveningPrompt recaps the day; skips when the today-list was empty.
func EveningPrompt(uc UserContext) (string, bool) {
	if uc.TotalTasksToday == 0 {
		return "", false
	}

	return fmt.Sprintf(`Job: End of Day Recap

Context:
- Completed: %d tasks
- Missed/Pending: %d tasks
- Completed list: %s
- Pending list: %s
- Day: %s

Task: Write an evening recap email. Summarize what got done and what didn't. If they crushed it, hype them up. If they slacked, call it out gently. Mention any carryover tasks. Keep it short, end on a "rest up" note.`,
		uc.CompletedToday, uc.PendingToday,
		asJSON(titles(uc.CompletedTasks())), asJSON(titles(uc.PendingTasks())), uc.DayOfWeek), true
}

// CelebrationPrompt fires only when the today-list is non-empty and fully
// completed.
func CelebrationPrompt(uc UserContext) (string, bool) {
	if uc.PendingToday != 0 || uc.CompletedToday == 0 {
		return "", false
	}

	return fmt.Sprintf(`Job: All Tasks Done Celebration

Context:
- Tasks completed: %d
- Tasks list: %s
- Wins this week: %d

Task: User completed everything in their Today list. Write a short hype email celebrating this. Keep it cool, not over-the-top. Maybe a light joke about them actually getting stuff done. Encourage them to chill now.`,
		uc.CompletedToday, asJSON(titles(uc.CompletedTasks())), uc.WinsThisWeek), true
}

// StaleTaskPrompt headlines the stalest incomplete today-task (ties go to the
// first encountered) and passes the rest as supporting context.
func StaleTaskPrompt(uc UserContext) (string, bool) {
	if len(uc.StaleTasks) == 0 {
		return "", false
	}

	mainIdx := 0
	for i, t := range uc.StaleTasks {
		if t.AgeHours > uc.StaleTasks[mainIdx].AgeHours {
			mainIdx = i
		}
	}
	main := uc.StaleTasks[mainIdx]
	others := []string{}
	for i, t := range uc.StaleTasks {
		if i != mainIdx {
			others = append(others, t.Task)
		}
	}

	return fmt.Sprintf(`Job: Stale Task Alert

Context:
- Stale task: %q
- Age: %d hours (%d days)
- Other stale tasks: %s

Task: This task has been sitting untouched for over a day. Write an email calling this out. Give options: do it, move it to someday, or delete it. Be real — if they keep avoiding it, maybe they don't actually want to do it. Roast them a little but keep it friendly.`,
		main.Task, main.AgeHours, main.AgeHours/24, asJSON(others)), true
}

// InactivityPrompt skips under two full days away from the app.
func InactivityPrompt(uc UserContext) (string, bool) {
	if uc.DaysInactive < 2 {
		return "", false
	}

	return fmt.Sprintf(`Job: Inactivity Ping

Context:
- Days since last app open: %d
- Pending tasks in Today: %d
- Tasks list: %s

Task: User has gone MIA. Write an email checking if they're alive. Mention their pending tasks are still waiting. Light guilt trip, friendly roast. Don't be aggressive, but nudge them to come back.`,
		uc.DaysInactive, uc.PendingToday, asJSON(uc.TodayTasks)), true
}

// FridayPrompt is unconditional; the weekday/hour gate decides when it runs.
func FridayPrompt(uc UserContext) (string, bool) {
	return fmt.Sprintf(`Job: Friday Wind Down

Context:
- Tasks completed this week: %d
- Tasks still pending: %d
- Pending list: %s

Task: It's Friday evening. Write a week-closing email. Mention how many tasks they completed this week (or roast them if it's low). Tell them to take a break, ask if they have weekend plans or are winging it. Keep it casual and friendly — like a friend texting before the weekend.`,
		uc.WinsThisWeek, uc.PendingToday, asJSON(titles(uc.PendingTasks()))), true
}

// SundayPrompt is unconditional; it is a life check-in, not a task email.
func SundayPrompt(uc UserContext) (string, bool) {
	return fmt.Sprintf(`Job: Weekly Life Check-in

Context:
- Week's wins: %d
- Current pending: %d
- Day: Sunday evening

Task: This is NOT about tasks. Write a life check-in email. Ask reflective questions — how are they actually doing, not just productivity-wise. What went well, what drained them, are they resting or just existing. Keep it thoughtful but casual. No action required. Like a friend checking in on their mental state.`,
		uc.WinsThisWeek, uc.PendingToday), true
}

func titles(tasks []TaskView) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Task)
	}
	return out
}

// asJSON renders context slices the way they are embedded in instructions.
// Marshaling strings and flat structs cannot fail.
func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
