package cron

import (
	"time"

	"github.com/carbonex/carbonex/amm"
)

// PoolStatsJob refreshes the informational liquidity and APY figures of
// every pool.
type PoolStatsJob struct {
	Service *amm.Service
}

func NewPoolStatsJob(service *amm.Service) *PoolStatsJob {
	return &PoolStatsJob{Service: service}
}

func (j *PoolStatsJob) Name() string {
	return "pool_stats"
}

func (j *PoolStatsJob) Interval() time.Duration {
	return 10 * time.Minute
}

func (j *PoolStatsJob) Process() error {
	return j.Service.RecomputeStats(j.Interval())
}
