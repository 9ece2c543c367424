package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/pricing"
	"github.com/carbonex/carbonex/store"
	"github.com/carbonex/carbonex/types"
)

// fixedSource returns the same relative change on every drift tick.
type fixedSource struct {
	change decimal.Decimal
}

func (s fixedSource) Drift(trend types.Trend, volatility, volume24h decimal.Decimal) decimal.Decimal {
	return s.change
}

type suiteTrackerTester struct {
	suite.Suite
}

func (s *suiteTrackerTester) SetupSuite() {
	config.NewLoggerService()
}

func newTestTracker(change decimal.Decimal) *pricing.Tracker {
	return pricing.NewTracker(store.NewMemoryPriceStore(), fixedSource{change: change}, nil)
}

func (s *suiteTrackerTester) TestSeed() {
	tracker := newTestTracker(decimal.Zero)

	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.NewFromFloat(0.02)))

	mp, err := tracker.Get("forestry")
	s.NoError(err)

	s.True(mp.Last.Equal(decimal.NewFromInt(100)))
	s.True(mp.Bid.Equal(decimal.NewFromFloat(99.5)))
	s.True(mp.Ask.Equal(decimal.NewFromFloat(100.5)))
	s.Equal(types.TrendNeutral, mp.Trend)

	// Seeding twice keeps the original price.
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(500), decimal.Zero))
	mp, err = tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Last.Equal(decimal.NewFromInt(100)))
}

func (s *suiteTrackerTester) TestGetUnknownCreditType() {
	tracker := newTestTracker(decimal.Zero)

	_, err := tracker.Get("missing")
	s.ErrorIs(err, pricing.ErrPriceNotFound)

	s.ErrorIs(tracker.Drift("missing"), pricing.ErrPriceNotFound)
}

func (s *suiteTrackerTester) TestRecordTradeMovesBand() {
	tracker := newTestTracker(decimal.Zero)
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.Zero))

	// Above the previous ask: trend up.
	s.NoError(tracker.RecordTrade("forestry", decimal.NewFromInt(102), decimal.NewFromInt(10)))

	mp, err := tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Last.Equal(decimal.NewFromInt(102)))
	s.Equal(types.TrendUp, mp.Trend)
	s.True(mp.Volume24h.Equal(decimal.NewFromInt(10)))

	// Inside the band: neutral.
	s.NoError(tracker.RecordTrade("forestry", decimal.NewFromFloat(101.9), decimal.NewFromInt(5)))
	mp, _ = tracker.Get("forestry")
	s.Equal(types.TrendNeutral, mp.Trend)
	s.True(mp.Volume24h.Equal(decimal.NewFromInt(15)))

	// Below the previous bid: trend down.
	s.NoError(tracker.RecordTrade("forestry", decimal.NewFromInt(95), decimal.NewFromInt(1)))
	mp, _ = tracker.Get("forestry")
	s.Equal(types.TrendDown, mp.Trend)
}

func (s *suiteTrackerTester) TestRecordTradeUpdatesVolatility() {
	tracker := newTestTracker(decimal.Zero)
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.Zero))

	// A 10% move folds in at the EWMA weight: 0 * 0.9 + 0.1 * 0.1.
	s.NoError(tracker.RecordTrade("forestry", decimal.NewFromInt(110), decimal.NewFromInt(1)))

	mp, err := tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Volatility.Equal(decimal.NewFromFloat(0.01)))
}

func (s *suiteTrackerTester) TestDriftAppliesSourceChange() {
	tracker := newTestTracker(decimal.NewFromFloat(0.01))
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.Zero))

	s.NoError(tracker.Drift("forestry"))

	mp, err := tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Last.Equal(decimal.NewFromInt(101)))
}

func (s *suiteTrackerTester) TestDriftDecaysVolume() {
	tracker := newTestTracker(decimal.Zero)
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.Zero))
	s.NoError(tracker.RecordTrade("forestry", decimal.NewFromInt(100), decimal.NewFromInt(100)))

	s.NoError(tracker.Drift("forestry"))

	mp, err := tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Volume24h.Equal(decimal.NewFromInt(99)))
	s.True(mp.CumulativeVolume.Equal(decimal.NewFromInt(100)))
}

func (s *suiteTrackerTester) TestDriftAll() {
	tracker := newTestTracker(decimal.NewFromFloat(0.05))
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.Zero))
	s.NoError(tracker.Seed("renewable", decimal.NewFromInt(40), decimal.Zero))

	s.NoError(tracker.DriftAll())

	forestry, _ := tracker.Get("forestry")
	renewable, _ := tracker.Get("renewable")
	s.True(forestry.Last.Equal(decimal.NewFromInt(105)))
	s.True(renewable.Last.Equal(decimal.NewFromInt(42)))
}

func (s *suiteTrackerTester) TestDriftNeverGoesNonPositive() {
	tracker := newTestTracker(decimal.NewFromInt(-2))
	s.NoError(tracker.Seed("forestry", decimal.NewFromInt(100), decimal.Zero))

	s.NoError(tracker.Drift("forestry"))

	mp, err := tracker.Get("forestry")
	s.NoError(err)
	s.True(mp.Last.Equal(decimal.NewFromInt(100)))
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(suiteTrackerTester))
}
