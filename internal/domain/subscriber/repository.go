package subscriber

import "context"

// Registry stores tier membership per recipient.
type Registry interface {
	Subscribe(ctx context.Context, recipient RecipientID, tier Tier) error
	UnsubscribeAll(ctx context.Context, recipient RecipientID) error
	Members(ctx context.Context, tier Tier) ([]RecipientID, error)
	TiersOf(ctx context.Context, recipient RecipientID) ([]Tier, error)
}
