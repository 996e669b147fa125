package usecase

import (
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/goal-alerts/internal/domain/match"
	"github.com/valyala/bytebufferpool"
)

const (
	// MaxTextRunes is the front-end message size limit.
	MaxTextRunes     = 4000
	truncationMarker = "\n… too many results"

	upcomingTimeLayout = "02.01 15:04 MST"
)

const (
	textNoLiveMatches     = "⚠️ No LIVE matches right now"
	textNoUpcomingMatches = "📅 No upcoming matches"
)

// Acknowledgements shown by the front-ends after a subscription change.
const (
	TextAlertsEnabled     = "👋 Alerts enabled"
	TextAlertsStopped     = "⛔ Alerts stopped"
	TextHighlightsEnabled = "📩 DM enabled"
	TextTestGoalSent      = "🧪 Test goal sent"
)

// RenderGoal formats one goal notification.
func RenderGoal(goal match.GoalEvent) string {
	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)

	_, _ = b.WriteString("⚽ GOAL!\n")
	_, _ = b.WriteString(goal.Match.HomeTeam)
	_, _ = b.WriteString(" ")
	writeScore(b, goal.Match.Score, " : ")
	_, _ = b.WriteString(" ")
	_, _ = b.WriteString(goal.Match.AwayTeam)
	_, _ = b.WriteString("\n⏱ ")
	writeMinute(b, goal.Minute)
	_, _ = b.WriteString(" min")
	return b.String()
}

// RenderReminder lists every fixture that entered the reminder window in the
// same check.
func RenderReminder(fixtures []match.Fixture) string {
	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)

	_, _ = b.WriteString("⏰ Matches start in 10 minutes:\n")
	for _, f := range fixtures {
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(f.HomeTeam)
		_, _ = b.WriteString(" — ")
		_, _ = b.WriteString(f.AwayTeam)
	}
	return truncateText(b.String())
}

// RenderLiveNow composes the list_live_now text block.
func RenderLiveNow(matches []match.Match) string {
	if len(matches) == 0 {
		return textNoLiveMatches
	}

	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)

	_, _ = b.WriteString("🔴 LIVE now:")
	for _, m := range matches {
		_, _ = b.WriteString("\n\n")
		_, _ = b.WriteString(m.HomeTeam)
		_, _ = b.WriteString(" — ")
		_, _ = b.WriteString(m.AwayTeam)
		_, _ = b.WriteString("\n")
		writeScore(b, m.Score, ":")
		_, _ = b.WriteString(" ⏱ ")
		writeMinute(b, m.Minute)
		_, _ = b.WriteString(" min")
		if label := m.Status.Label(); label != "" {
			_, _ = b.WriteString(" · ")
			_, _ = b.WriteString(label)
		}
		if m.League != "" {
			_, _ = b.WriteString(" · ")
			_, _ = b.WriteString(m.League)
			if m.Country != "" {
				_, _ = b.WriteString(" (")
				_, _ = b.WriteString(m.Country)
				_, _ = b.WriteString(")")
			}
		}
	}
	return truncateText(b.String())
}

// RenderUpcoming composes the list_upcoming text block from the earliest
// limit fixtures, shown in loc.
func RenderUpcoming(fixtures []match.Fixture, limit int, loc *time.Location) string {
	if len(fixtures) == 0 {
		return textNoUpcomingMatches
	}
	if loc == nil {
		loc = time.UTC
	}

	sorted := slices.Clone(fixtures)
	slices.SortStableFunc(sorted, func(a, b match.Fixture) int {
		return a.Kickoff.Compare(b.Kickoff)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)

	_, _ = b.WriteString("📅 Upcoming matches:")
	for _, f := range sorted {
		_, _ = b.WriteString("\n\n")
		_, _ = b.WriteString(f.HomeTeam)
		_, _ = b.WriteString(" — ")
		_, _ = b.WriteString(f.AwayTeam)
		_, _ = b.WriteString("\n🕒 ")
		_, _ = b.WriteString(f.Kickoff.In(loc).Format(upcomingTimeLayout))
	}
	return truncateText(b.String())
}

func writeScore(b *bytebufferpool.ByteBuffer, score *match.Score, sep string) {
	if score == nil {
		_, _ = b.WriteString("?")
		_, _ = b.WriteString(sep)
		_, _ = b.WriteString("?")
		return
	}
	_, _ = b.WriteString(strconv.Itoa(score.Home))
	_, _ = b.WriteString(sep)
	_, _ = b.WriteString(strconv.Itoa(score.Away))
}

func writeMinute(b *bytebufferpool.ByteBuffer, minute *int) {
	if minute == nil {
		_, _ = b.WriteString("?")
		return
	}
	_, _ = b.WriteString(strconv.Itoa(*minute))
}

func truncateText(text string) string {
	return TruncateText(text, MaxTextRunes)
}

// TruncateText caps text at limit runes including the "too many results"
// marker. Transports with a smaller limit than MaxTextRunes apply it again.
func TruncateText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	keep := max(limit-utf8.RuneCountInString(truncationMarker), 0)
	runes := []rune(text)
	return string(runes[:keep]) + truncationMarker
}
