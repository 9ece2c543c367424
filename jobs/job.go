package jobs

import "time"

// Job is one periodic task run by the cron daemon. Tests call Process
// directly instead of waiting on wall-clock ticks.
type Job interface {
	Name() string
	Interval() time.Duration
	Process() error
}
