package oracle

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/carbonex/carbonex/config"
)

type failingProvider struct{}

func (failingProvider) Fetch() (*Feed, error) {
	return nil, errors.New("feed timeout")
}

type suiteAggregatorTester struct {
	suite.Suite
}

func (s *suiteAggregatorTester) SetupSuite() {
	config.NewLoggerService()
}

func (s *suiteAggregatorTester) TestWeightedMean() {
	aggregator := NewAggregator(nil,
		NewStaticFeedProvider(Feed{
			Source:     "one",
			USDCPrice:  decimal.NewFromInt(1),
			ETHPrice:   decimal.NewFromInt(2000),
			Confidence: decimal.NewFromInt(1),
		}),
		NewStaticFeedProvider(Feed{
			Source:     "two",
			USDCPrice:  decimal.NewFromInt(1),
			ETHPrice:   decimal.NewFromInt(2600),
			Confidence: decimal.NewFromInt(3),
		}),
	)

	reference, err := aggregator.ReferencePrice()
	s.NoError(err)

	// (2000*1 + 2600*3) / 4
	s.True(reference.ETH.Equal(decimal.NewFromInt(2450)))
	s.True(reference.USDC.Equal(decimal.NewFromInt(1)))
	s.Equal(2, reference.Sources)
	s.True(reference.Confidence.Equal(decimal.NewFromInt(2)))
}

func (s *suiteAggregatorTester) TestErroredAndZeroConfidenceFeedsIgnored() {
	aggregator := NewAggregator(nil,
		failingProvider{},
		NewStaticFeedProvider(Feed{
			Source:     "stale",
			ETHPrice:   decimal.NewFromInt(9999),
			Confidence: decimal.Zero,
		}),
		NewStaticFeedProvider(Feed{
			Source:     "live",
			ETHPrice:   decimal.NewFromInt(2400),
			Confidence: decimal.NewFromFloat(0.8),
		}),
	)

	reference, err := aggregator.ReferencePrice()
	s.NoError(err)

	s.Equal(1, reference.Sources)
	s.True(reference.ETH.Equal(decimal.NewFromInt(2400)))
}

func (s *suiteAggregatorTester) TestNoUsableFeeds() {
	aggregator := NewAggregator(nil, failingProvider{})

	_, err := aggregator.ReferencePrice()
	s.ErrorIs(err, ErrNoFeeds)
}

func (s *suiteAggregatorTester) TestSimulatedProviderStaysNearAnchor() {
	provider := NewSimulatedFeedProvider("sim", Feed{
		ETHPrice:   decimal.NewFromInt(2400),
		Confidence: decimal.NewFromFloat(0.9),
	}, 42)

	for i := 0; i < 20; i++ {
		feed, err := provider.Fetch()
		s.NoError(err)

		drift := feed.ETHPrice.Sub(decimal.NewFromInt(2400)).Abs().Div(decimal.NewFromInt(2400))
		s.True(drift.LessThanOrEqual(jitterRate))
		s.True(feed.Confidence.Equal(decimal.NewFromFloat(0.9)))
	}
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(suiteAggregatorTester))
}
