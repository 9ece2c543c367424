package cron

import (
	"time"

	"github.com/carbonex/carbonex/pricing"
)

// PriceDriftJob keeps displayed prices live between real trades.
type PriceDriftJob struct {
	Tracker *pricing.Tracker
}

func NewPriceDriftJob(tracker *pricing.Tracker) *PriceDriftJob {
	return &PriceDriftJob{Tracker: tracker}
}

func (j *PriceDriftJob) Name() string {
	return "price_drift"
}

func (j *PriceDriftJob) Interval() time.Duration {
	return 60 * time.Second
}

func (j *PriceDriftJob) Process() error {
	return j.Tracker.DriftAll()
}
