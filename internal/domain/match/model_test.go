package match

import "testing"

func TestDedupKey(t *testing.T) {
	t.Parallel()

	minute := 23
	scorer := int64(55)

	tests := []struct {
		name   string
		minute *int
		scorer *int64
		want   string
	}{
		{name: "full key", minute: &minute, scorer: &scorer, want: "100_23_55"},
		{name: "unknown scorer", minute: &minute, want: "100_23_-"},
		{name: "unknown minute", scorer: &scorer, want: "100_-_55"},
		{name: "nothing known", want: "100_-_-"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DedupKey(100, tc.minute, tc.scorer); got != tc.want {
				t.Fatalf("unexpected key: got=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestStatus_IsLive(t *testing.T) {
	t.Parallel()

	live := []Status{StatusFirstHalf, StatusHalftime, StatusSecondHalf, StatusExtraTime, StatusPenalties, StatusPaused}
	for _, s := range live {
		if !s.IsLive() {
			t.Fatalf("expected %s to be live", s)
		}
	}
	for _, s := range []Status{StatusScheduled, StatusFinished, StatusSuspended, StatusUnknown} {
		if s.IsLive() {
			t.Fatalf("expected %s not to be live", s)
		}
	}
	if StatusHalftime.Label() != "half-time" {
		t.Fatalf("unexpected label: got=%q", StatusHalftime.Label())
	}
}

func TestEventType_IsGoal(t *testing.T) {
	t.Parallel()

	if !EventOwnGoal.IsGoal() || !EventPenaltyGoal.IsGoal() || !EventGoal.IsGoal() {
		t.Fatalf("expected goal variants to count as goals")
	}
	if EventOther.IsGoal() {
		t.Fatalf("expected other events not to count as goals")
	}
}
