package discordbot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
)

// Actions handled only through slash commands; the rest are shared with the
// menu buttons.
const (
	actionStart = "start"
	actionStop  = "stop"
)

type command struct {
	Name        string
	Description string
	Action      string
}

func defaultCommands() []command {
	return []command{
		{Name: "start", Description: "Enable kickoff reminders and show the menu", Action: actionStart},
		{Name: "stop", Description: "Stop all alerts", Action: actionStop},
		{Name: "dm", Description: "Only goals from the opening and closing windows", Action: usecase.ActionHighlights},
		{Name: "now", Description: "Every goal, plus the matches live right now", Action: usecase.ActionLiveNow},
		{Name: "upcoming", Description: "Next scheduled matches", Action: usecase.ActionUpcoming},
		{Name: "testgoal", Description: "Send a test goal (admin only)", Action: usecase.ActionTestGoal},
	}
}

func applicationCommands(commands []command) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
		})
	}
	return out
}
