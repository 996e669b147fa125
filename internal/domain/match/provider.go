package match

import "context"

// Strategy names the deduplication algorithm a provider's data supports.
type Strategy string

const (
	StrategyScoreDelta Strategy = "score_delta"
	StrategyEventID    Strategy = "event_id"
)

// Provider normalizes one upstream feed. Implementations never return errors:
// a failed fetch is logged and reported as an empty list.
type Provider interface {
	Name() string
	Strategy() Strategy
	FetchLive(ctx context.Context) []Match
	FetchScheduled(ctx context.Context) []Fixture
}
