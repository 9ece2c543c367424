package cron

import (
	"time"

	"github.com/carbonex/carbonex/settlement"
)

// SettlementSweepJob scans pending batches and processes the ones that
// reached the auto-process threshold.
type SettlementSweepJob struct {
	Pipeline *settlement.Pipeline
}

func NewSettlementSweepJob(pipeline *settlement.Pipeline) *SettlementSweepJob {
	return &SettlementSweepJob{Pipeline: pipeline}
}

func (j *SettlementSweepJob) Name() string {
	return "settlement_sweep"
}

func (j *SettlementSweepJob) Interval() time.Duration {
	return 5 * time.Minute
}

func (j *SettlementSweepJob) Process() error {
	return j.Pipeline.Sweep()
}
