package daemons

import (
	"github.com/jasonlvhit/gocron"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/jobs"
)

type Worker interface {
	Start()
	Stop()
}

// CronJob schedules the venue's periodic jobs and owns their lifecycle.
type CronJob struct {
	Jobs []jobs.Job

	scheduler *gocron.Scheduler
	stopped   chan bool
}

func NewCronJob(jobList ...jobs.Job) *CronJob {
	return &CronJob{
		Jobs:      jobList,
		scheduler: gocron.NewScheduler(),
	}
}

// Start blocks running the schedule until Stop is called.
func (c *CronJob) Start() {
	for _, job := range c.Jobs {
		job := job
		err := c.scheduler.Every(uint64(job.Interval().Seconds())).Seconds().Do(func() {
			if err := job.Process(); err != nil {
				config.Logger.Errorf("[daemons.cron] job %s failed: %s", job.Name(), err.Error())
			}
		})
		if err != nil {
			config.Logger.Errorf("[daemons.cron] failed to schedule %s: %s", job.Name(), err.Error())
			continue
		}

		config.Logger.Infof("[daemons.cron] scheduled %s every %s", job.Name(), job.Interval())
	}

	c.stopped = c.scheduler.Start()
	<-c.stopped
}

func (c *CronJob) Stop() {
	if c.stopped != nil {
		close(c.stopped)
	}
	c.scheduler.Clear()
}
