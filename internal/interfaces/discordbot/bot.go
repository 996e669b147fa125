package discordbot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/domain/notification"
	"github.com/riskibarqy/goal-alerts/internal/domain/subscriber"
	"github.com/riskibarqy/goal-alerts/internal/infrastructure/messaging/discord"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/riskibarqy/goal-alerts/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	textUnknownAction = "🤷 Unknown action"
	textAdminOnly     = "⛔ Admin only"
	textFailed        = "❌ Something went wrong, try again later"
)

var botTracer = otel.Tracer("goal-alerts/internal/interfaces/discordbot")

// Responder is the subset of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot maps slash commands and menu buttons onto AlertService operations. It
// is a thin adapter: every piece of state lives in the service.
type Bot struct {
	session   *discordgo.Session
	responder Responder
	alerts    *usecase.AlertService
	guildID   string
	commands  map[string]command
	logger    *logging.Logger
}

// NewSession opens nothing; it only prepares a bot-authenticated session that
// both the Bot and the DM sender share.
func NewSession(token string) (*discordgo.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, crerr.Wrap(usecase.ErrInvalidInput, "discord bot token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, crerr.Wrap(err, "create discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
	return session, nil
}

func New(session *discordgo.Session, alerts *usecase.AlertService, guildID string, logger *logging.Logger) *Bot {
	bot := newBot(session, alerts, guildID, logger)
	bot.session = session
	return bot
}

func newBot(responder Responder, alerts *usecase.AlertService, guildID string, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Default()
	}
	commands := make(map[string]command)
	for _, cmd := range defaultCommands() {
		commands[cmd.Name] = cmd
	}
	return &Bot{
		responder: responder,
		alerts:    alerts,
		guildID:   strings.TrimSpace(guildID),
		commands:  commands,
		logger:    logger.Named("discordbot"),
	}
}

// Run connects the gateway, registers the slash commands and blocks until ctx
// is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.session == nil {
		return crerr.New("discord session is not configured")
	}

	removeHandler := b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.HandleInteraction(ctx, i)
	})
	defer removeHandler()

	if err := b.session.Open(); err != nil {
		return crerr.Wrap(err, "open discord gateway")
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Warn("close discord gateway failed", "error", err)
		}
	}()

	appID := b.session.State.User.ID
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, applicationCommands(defaultCommands()), discordgo.WithContext(ctx))
	if err != nil {
		return crerr.Wrap(err, "register slash commands")
	}
	b.logger.InfoContext(ctx, "discord bot connected",
		"user", b.session.State.User.Username,
		"guild_id", b.guildID,
		"commands", len(registered),
	)

	<-ctx.Done()
	b.logger.Info("discord bot stopping")
	return nil
}

// HandleInteraction answers one slash command or menu button press. The
// response is deferred first since a live query may outlast Discord's
// acknowledgement deadline.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}

	action, ok := b.actionOf(i)
	if !ok {
		b.respondNow(ctx, i, textUnknownAction)
		return
	}
	recipient := interactionUserID(i)
	if recipient == "" {
		b.respondNow(ctx, i, textUnknownAction)
		return
	}

	ctx, span := botTracer.Start(ctx, "discordbot.Bot.HandleInteraction")
	span.SetAttributes(attribute.String("discord.action", action))
	defer span.End()

	if err := b.responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx)); err != nil {
		b.logger.WarnContext(ctx, "defer interaction failed", "action", action, "error", err)
		return
	}

	text, keyboard := b.dispatch(ctx, recipient, action)
	text = discord.Content(text)
	edit := &discordgo.WebhookEdit{Content: &text}
	if components := discord.Components(keyboard); len(components) > 0 {
		edit.Components = &components
	}
	if _, err := b.responder.InteractionResponseEdit(i.Interaction, edit, discordgo.WithContext(ctx)); err != nil {
		b.logger.WarnContext(ctx, "edit interaction response failed", "action", action, "error", err)
	}
}

func (b *Bot) dispatch(ctx context.Context, recipient subscriber.RecipientID, action string) (string, *notification.Keyboard) {
	switch action {
	case actionStart:
		if err := b.alerts.Subscribe(ctx, recipient, subscriber.TierReminder); err != nil {
			return b.failed(ctx, action, err), nil
		}
		return usecase.TextAlertsEnabled, b.alerts.Menu(recipient)
	case actionStop:
		if err := b.alerts.Unsubscribe(ctx, recipient); err != nil {
			return b.failed(ctx, action, err), nil
		}
		return usecase.TextAlertsStopped, nil
	case usecase.ActionHighlights:
		if err := b.alerts.Subscribe(ctx, recipient, subscriber.TierHighlighted); err != nil {
			return b.failed(ctx, action, err), nil
		}
		return usecase.TextHighlightsEnabled, nil
	case usecase.ActionLiveNow:
		if err := b.alerts.Subscribe(ctx, recipient, subscriber.TierLive); err != nil {
			return b.failed(ctx, action, err), nil
		}
		return b.alerts.ListLiveNow(ctx), nil
	case usecase.ActionUpcoming:
		return b.alerts.ListUpcoming(ctx), nil
	case usecase.ActionTestGoal:
		if _, err := b.alerts.SendTestGoal(ctx, recipient); err != nil {
			if crerr.Is(err, usecase.ErrUnauthorized) {
				return textAdminOnly, nil
			}
			return b.failed(ctx, action, err), nil
		}
		return usecase.TextTestGoalSent, nil
	default:
		return textUnknownAction, nil
	}
}

func (b *Bot) failed(ctx context.Context, action string, err error) string {
	b.logger.ErrorContext(ctx, "discord action failed", "action", action, "error", err)
	return textFailed
}

func (b *Bot) actionOf(i *discordgo.InteractionCreate) (string, bool) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		cmd, ok := b.commands[i.ApplicationCommandData().Name]
		return cmd.Action, ok
	case discordgo.InteractionMessageComponent:
		return discord.ActionFromCustomID(i.MessageComponentData().CustomID)
	default:
		return "", false
	}
}

func (b *Bot) respondNow(ctx context.Context, i *discordgo.InteractionCreate, text string) {
	err := b.responder.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.logger.WarnContext(ctx, "respond to interaction failed", "error", err)
	}
}

// interactionUserID works for both guild and DM interactions.
func interactionUserID(i *discordgo.InteractionCreate) subscriber.RecipientID {
	if i.Member != nil && i.Member.User != nil {
		return subscriber.RecipientID(i.Member.User.ID)
	}
	if i.User != nil {
		return subscriber.RecipientID(i.User.ID)
	}
	return ""
}
