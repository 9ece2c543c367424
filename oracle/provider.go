package oracle

import (
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// StaticFeedProvider reports fixed quotes, useful for pinned sources and
// tests.
type StaticFeedProvider struct {
	Feed Feed
}

func NewStaticFeedProvider(feed Feed) *StaticFeedProvider {
	return &StaticFeedProvider{Feed: feed}
}

func (p *StaticFeedProvider) Fetch() (*Feed, error) {
	feed := p.Feed
	return &feed, nil
}

// jitterRate bounds how far a simulated quote strays from its anchor.
var jitterRate = decimal.NewFromFloat(0.002)

// SimulatedFeedProvider plays the role of an external price source: every
// fetch jitters the anchor quotes a little, the way a live feed would
// move between polls.
type SimulatedFeedProvider struct {
	mu sync.Mutex

	Source     string
	Anchor     Feed
	Confidence decimal.Decimal

	rng *rand.Rand
}

func NewSimulatedFeedProvider(source string, anchor Feed, seed int64) *SimulatedFeedProvider {
	return &SimulatedFeedProvider{
		Source:     source,
		Anchor:     anchor,
		Confidence: anchor.Confidence,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (p *SimulatedFeedProvider) Fetch() (*Feed, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return &Feed{
		Source:     p.Source,
		USDCPrice:  p.jitter(p.Anchor.USDCPrice),
		USDTPrice:  p.jitter(p.Anchor.USDTPrice),
		ETHPrice:   p.jitter(p.Anchor.ETHPrice),
		Confidence: p.Confidence,
	}, nil
}

func (p *SimulatedFeedProvider) jitter(price decimal.Decimal) decimal.Decimal {
	noise := decimal.NewFromFloat(p.rng.Float64()*2 - 1)
	return price.Mul(decimal.NewFromInt(1).Add(noise.Mul(jitterRate)))
}
