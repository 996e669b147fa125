package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/goal-alerts/internal/domain/match"
)

func TestReminderScheduler_DueOncePerFixture(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	fixtures := []match.Fixture{
		{ID: 1, HomeTeam: "A", AwayTeam: "B", Kickoff: now.Add(600 * time.Second)},
		{ID: 2, HomeTeam: "C", AwayTeam: "D", Kickoff: now.Add(30 * time.Minute)},
	}

	s := NewReminderScheduler(DefaultReminderWindow())
	due := s.Due(now, fixtures)
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("unexpected due fixtures: got=%+v", due)
	}

	if again := s.Due(now.Add(5*time.Second), fixtures); len(again) != 0 {
		t.Fatalf("unexpected repeat reminder: got=%d want=0", len(again))
	}
}

func TestReminderScheduler_WindowIsInclusive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	fixtures := []match.Fixture{
		{ID: 1, Kickoff: now.Add(540 * time.Second)},
		{ID: 2, Kickoff: now.Add(660 * time.Second)},
		{ID: 3, Kickoff: now.Add(539 * time.Second)},
		{ID: 4, Kickoff: now.Add(661 * time.Second)},
	}

	due := NewReminderScheduler(DefaultReminderWindow()).Due(now, fixtures)
	if len(due) != 2 {
		t.Fatalf("unexpected due count: got=%d want=2", len(due))
	}
	if due[0].ID != 1 || due[1].ID != 2 {
		t.Fatalf("unexpected due ids: got=%d,%d want=1,2", due[0].ID, due[1].ID)
	}
}

func TestReminderScheduler_PrunesAfterKickoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	fixture := match.Fixture{ID: 9, Kickoff: now.Add(10 * time.Minute)}

	s := NewReminderScheduler(DefaultReminderWindow())
	s.Due(now, []match.Fixture{fixture})
	if s.Notified() != 1 {
		t.Fatalf("unexpected notified count: got=%d want=1", s.Notified())
	}

	s.Due(now.Add(11*time.Minute), nil)
	if s.Notified() != 0 {
		t.Fatalf("unexpected notified count after kickoff: got=%d want=0", s.Notified())
	}
}

func TestReminderScheduler_PostponedFixtureIsNotRemindedTwice(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	s := NewReminderScheduler(DefaultReminderWindow())
	s.Due(now, []match.Fixture{{ID: 3, Kickoff: now.Add(10 * time.Minute)}})

	postponed := match.Fixture{ID: 3, Kickoff: now.Add(2 * time.Hour)}
	later := now.Add(20 * time.Minute)
	if due := s.Due(later, []match.Fixture{postponed}); len(due) != 0 {
		t.Fatalf("unexpected reminder for postponed fixture: got=%d", len(due))
	}
	if due := s.Due(postponed.Kickoff.Add(-10*time.Minute), []match.Fixture{postponed}); len(due) != 0 {
		t.Fatalf("unexpected second reminder: got=%d want=0", len(due))
	}
}
