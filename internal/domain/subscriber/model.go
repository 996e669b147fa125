package subscriber

import (
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// RecipientID is the messaging front-end's identity for a chat or user.
type RecipientID string

// Tier selects which notifications a recipient receives.
type Tier string

const (
	TierReminder    Tier = "reminder"
	TierLive        Tier = "live"
	TierHighlighted Tier = "highlighted"
)

var ErrUnknownTier = crerr.New("unknown subscriber tier")

func AllTiers() []Tier {
	return []Tier{TierReminder, TierLive, TierHighlighted}
}

func ParseTier(raw string) (Tier, error) {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(raw))); tier {
	case TierReminder, TierLive, TierHighlighted:
		return tier, nil
	default:
		return "", crerr.Wrapf(ErrUnknownTier, "%q", raw)
	}
}

// Exclusive reports the goal tier that joining t evicts, if any. A recipient
// holds at most one of live/highlighted; reminder is independent.
func (t Tier) Exclusive() (Tier, bool) {
	switch t {
	case TierLive:
		return TierHighlighted, true
	case TierHighlighted:
		return TierLive, true
	default:
		return "", false
	}
}
