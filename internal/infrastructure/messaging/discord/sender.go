package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/platform/cache"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
)

// CustomIDPrefix marks menu buttons so the bot can route their interactions.
const CustomIDPrefix = "menu:"

// MaxContentRunes is Discord's limit for message content.
const MaxContentRunes = 2000

const (
	dmChannelTTL      = 6 * time.Hour
	maxButtonsPerRow  = 5
	maxComponentsRows = 5
)

// Session is the subset of *discordgo.Session used to deliver DMs.
type Session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sender delivers notifications as Discord direct messages. Recipient ids are
// Discord user ids.
type Sender struct {
	session  Session
	channels *cache.Store[string]
}

func NewSender(session Session) *Sender {
	return &Sender{
		session:  session,
		channels: cache.NewStore[string](dmChannelTTL),
	}
}

func (s *Sender) Send(ctx context.Context, recipient subscriber.RecipientID, msg notification.Message) error {
	userID := strings.TrimSpace(string(recipient))
	if userID == "" {
		return crerr.New("discord recipient id is empty")
	}

	channelID, err := s.channels.GetOrLoad(ctx, userID, func(ctx context.Context) (string, error) {
		channel, err := s.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
		if err != nil {
			return "", crerr.Wrapf(err, "open dm channel user_id=%s", userID)
		}
		return channel.ID, nil
	})
	if err != nil {
		return err
	}

	payload := &discordgo.MessageSend{
		Content:    Content(msg.Text),
		Components: Components(msg.Keyboard),
	}
	if _, err := s.session.ChannelMessageSendComplex(channelID, payload, discordgo.WithContext(ctx)); err != nil {
		// The channel may be stale; reopen it next time.
		s.channels.Delete(userID)
		return crerr.Wrapf(err, "send dm user_id=%s", userID)
	}
	return nil
}

// Content fits text into a single Discord message.
func Content(text string) string {
	return usecase.TruncateText(text, MaxContentRunes)
}

// Components renders a keyboard as rows of primary buttons.
func Components(kb *notification.Keyboard) []discordgo.MessageComponent {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	rows := make([]discordgo.MessageComponent, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		if len(rows) == maxComponentsRows {
			break
		}
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, b := range row {
			if len(buttons) == maxButtonsPerRow {
				break
			}
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: CustomIDPrefix + b.Action,
			})
		}
		if len(buttons) > 0 {
			rows = append(rows, discordgo.ActionsRow{Components: buttons})
		}
	}
	return rows
}

// ActionFromCustomID extracts the menu action from a button custom id.
func ActionFromCustomID(customID string) (string, bool) {
	action, ok := strings.CutPrefix(customID, CustomIDPrefix)
	return action, ok && action != ""
}
