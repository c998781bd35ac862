package domain

import (
	"errors"
	"fmt"
)

// JobType identifies a notification category. Each type is sent at most once
// per user per local day, enforced by the delivery ledger.
type JobType string

const (
	JobMorning     JobType = "morning"
	JobMidday      JobType = "midday"
	JobEvening     JobType = "evening"
	JobCelebration JobType = "celebration"
	JobStaleTask   JobType = "stale_task"
	JobInactivity  JobType = "inactivity"
	JobFriday      JobType = "friday"
	JobSunday      JobType = "sunday"

	// JobHourlyCheck is a meta-type: it evaluates stale_task and inactivity
	// together and never appears in the ledger itself.
	JobHourlyCheck JobType = "hourly_check"
)

var ErrUnknownJobType = errors.New("unknown job type")

// ParseJobType validates a wire-level job type string.
func ParseJobType(s string) (JobType, error) {
	switch JobType(s) {
	case JobMorning, JobMidday, JobEvening, JobCelebration,
		JobStaleTask, JobInactivity, JobFriday, JobSunday, JobHourlyCheck:
		return JobType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJobType, s)
}
