package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
)

type recipientSet map[subscriber.RecipientID]struct{}

// SubscriberRegistry keeps one membership set per tier.
type SubscriberRegistry struct {
	mu    sync.RWMutex
	tiers map[subscriber.Tier]recipientSet
}

func NewSubscriberRegistry() *SubscriberRegistry {
	tiers := make(map[subscriber.Tier]recipientSet, len(subscriber.AllTiers()))
	for _, tier := range subscriber.AllTiers() {
		tiers[tier] = make(recipientSet)
	}
	return &SubscriberRegistry{tiers: tiers}
}

func (r *SubscriberRegistry) Subscribe(_ context.Context, recipient subscriber.RecipientID, tier subscriber.Tier) error {
	members, ok := r.tiers[tier]
	if !ok {
		return subscriber.ErrUnknownTier
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members[recipient] = struct{}{}
	if other, ok := tier.Exclusive(); ok {
		delete(r.tiers[other], recipient)
	}
	return nil
}

func (r *SubscriberRegistry) UnsubscribeAll(_ context.Context, recipient subscriber.RecipientID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, members := range r.tiers {
		delete(members, recipient)
	}
	return nil
}

// Members returns the tier's recipients sorted, so fan-out order is stable.
func (r *SubscriberRegistry) Members(_ context.Context, tier subscriber.Tier) ([]subscriber.RecipientID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.tiers[tier]
	if !ok {
		return nil, subscriber.ErrUnknownTier
	}

	out := make([]subscriber.RecipientID, 0, len(members))
	for recipient := range members {
		out = append(out, recipient)
	}
	slices.Sort(out)
	return out, nil
}

func (r *SubscriberRegistry) TiersOf(_ context.Context, recipient subscriber.RecipientID) ([]subscriber.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscriber.Tier, 0, len(r.tiers))
	for _, tier := range subscriber.AllTiers() {
		if _, ok := r.tiers[tier][recipient]; ok {
			out = append(out, tier)
		}
	}
	return out, nil
}

// Reset drops all memberships.
func (r *SubscriberRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, members := range r.tiers {
		clear(members)
	}
}
