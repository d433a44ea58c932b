package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"queuebot/internal/board"
	"queuebot/internal/confirm"
	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const confirmPrefix = "confirm"

// The parts of a component interaction the handlers use
type clickEvent struct {
	guildId   string
	channelId string
	userId    string
	userName  string
	customId  string
	values    []string
}

type interactionHandler func(ctx context.Context, click clickEvent) Reply

func (bot *Bot) interactionHandlers() map[string]interactionHandler {
	return map[string]interactionHandler{
		board.ActionJoin:           bot.join,
		board.ActionLeave:          bot.leave,
		board.ActionCheck:          bot.checkPlace,
		board.ActionPullNext:       bot.pullNext,
		board.ActionPullSubscriber: bot.pullSubscriber,
		board.ActionPick:           bot.pickPrompt,
		board.ActionPickSelect:     bot.pick,
		board.ActionToggle:         bot.toggle,
		board.ActionClear:          bot.clearPrompt,
		confirmPrefix:              bot.confirmation,
	}
}

// confirm:<action>:<token>:<yes|no>
func confirmId(action confirm.Action, token string, yes bool) string {
	answer := "no"
	if yes {
		answer = "yes"
	}
	return strings.Join([]string{confirmPrefix, string(action), token, answer}, ":")
}

func parseConfirmId(customId string) (confirm.Action, string, bool, error) {
	parts := strings.Split(customId, ":")
	if len(parts) != 4 || parts[0] != confirmPrefix {
		return "", "", false, fmt.Errorf("%s is not a confirmation id", customId)
	}
	switch parts[3] {
	case "yes":
		return confirm.Action(parts[1]), parts[2], true, nil
	case "no":
		return confirm.Action(parts[1]), parts[2], false, nil
	}
	return "", "", false, fmt.Errorf("%s has no valid answer", customId)
}

func (bot *Bot) handlerFor(customId string) (interactionHandler, bool) {
	if handler, ok := bot.handlers[customId]; ok {
		return handler, true
	}
	if strings.HasPrefix(customId, confirmPrefix+":") {
		return bot.handlers[confirmPrefix], true
	}
	return nil, false
}

func (bot *Bot) dispatch(ctx context.Context, click clickEvent) (Reply, bool) {
	handler, ok := bot.handlerFor(click.customId)
	if !ok {
		log.Warn().Msg(fmt.Sprintf("No handler for component %s", click.customId))
		return Reply{}, false
	}
	return handler(ctx, click), true
}

func (bot *Bot) interact(discord *discordgo.Session, interaction *discordgo.InteractionCreate) {

	if interaction.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := interaction.MessageComponentData()
	click := clickEvent{
		guildId:   interaction.GuildID,
		channelId: interaction.ChannelID,
		customId:  data.CustomID,
		values:    data.Values,
	}
	switch {
	case interaction.Member != nil && interaction.Member.User != nil:
		click.userId = interaction.Member.User.ID
		click.userName = displayName(interaction.Member, interaction.Member.User)
	case interaction.User != nil:
		click.userId = interaction.User.ID
		click.userName = displayName(nil, interaction.User)
	default:
		return
	}

	reply, ok := bot.dispatch(bot.ctx, click)
	if !ok {
		return
	}
	if err := discord.InteractionRespond(interaction.Interaction, reply.InteractionResponse()); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not answer %s", click.customId))
	}
}

// Participant board

func (bot *Bot) queueDisabled() bool {
	disabled, err := bot.publisher.Disabled()
	if err != nil {
		log.Error().Err(err).Msg("Could not read disabled marker")
		return false
	}
	return disabled
}

func (bot *Bot) join(ctx context.Context, click clickEvent) Reply {

	if bot.queueDisabled() {
		return QueueDisabledReply()
	}

	// The class is decided once, when joining
	class := queue.Standard
	if roleId := bot.config.SubscriberRoleId; roleId != "" {
		subscriber, err := bot.platform.IsSubscriber(click.guildId, click.userId, roleId)
		if err != nil {
			log.Warn().Err(err).Str("participant", click.userId).Msg("Could not check subscriber role, joining as standard")
		}
		if subscriber {
			class = queue.Subscriber
		}
	}

	_, err := bot.engine.Join(ctx, queue.ParticipantId(click.userId), click.userName, class)
	switch {
	case err == nil:
		return JoinedReply(class)
	case errors.Is(err, queue.ErrAlreadyQueued):
		return AlreadyQueuedReply()
	case errors.Is(err, queue.ErrQueueClosed):
		return QueueClosedReply()
	default:
		log.Error().Err(err).Str("participant", click.userId).Msg("Join failed")
		return FailureReply()
	}
}

// First half of the leave: nothing changes until the prompt is confirmed
func (bot *Bot) leave(ctx context.Context, click clickEvent) Reply {

	if bot.queueDisabled() {
		return QueueDisabledReply()
	}
	queued, err := bot.engine.IsQueued(ctx, queue.ParticipantId(click.userId))
	if err != nil {
		log.Error().Err(err).Str("participant", click.userId).Msg("Could not check the queue")
		return FailureReply()
	}
	if !queued {
		return NotQueuedReply()
	}
	pending := bot.confirms.Request(click.userId, confirm.ActionLeave)
	return LeavePromptReply(pending.Token)
}

func (bot *Bot) checkPlace(ctx context.Context, click clickEvent) Reply {

	if bot.queueDisabled() {
		return QueueDisabledReply()
	}
	position, ok, err := bot.engine.Position(ctx, queue.ParticipantId(click.userId))
	if err != nil {
		log.Error().Err(err).Str("participant", click.userId).Msg("Could not compute position")
		return FailureReply()
	}
	if !ok {
		return NotQueuedReply()
	}
	return PlaceReply(position)
}

// Answers to the confirmation prompts. Expired prompts are acknowledged without a word
func (bot *Bot) confirmation(ctx context.Context, click clickEvent) Reply {

	action, token, yes, err := parseConfirmId(click.customId)
	if err != nil {
		log.Warn().Err(err).Msg("Malformed confirmation")
		return Reply{Silent: true}
	}

	switch {
	case action == confirm.ActionLeave && yes:
		pending, err := bot.confirms.Resolve(token, click.userId)
		if err != nil {
			return bot.unresolved(err)
		}
		if pending.Action != confirm.ActionLeave {
			return Reply{Silent: true}
		}
		_, err = bot.engine.Leave(ctx, queue.ParticipantId(click.userId))
		switch {
		case err == nil:
			return LeftReply()
		case errors.Is(err, queue.ErrNotQueued):
			return Reply{Content: "You are not in the queue anymore.", Update: true}
		default:
			log.Error().Err(err).Str("participant", click.userId).Msg("Leave failed")
			return FailureReply()
		}
	case action == confirm.ActionClear && yes:
		removed, err := bot.admin.ClearConfirmed(ctx, token, click.userId)
		if errors.Is(err, confirm.ErrUnknown) || errors.Is(err, confirm.ErrExpired) || errors.Is(err, confirm.ErrNotOwner) {
			return bot.unresolved(err)
		}
		if err != nil {
			log.Error().Err(err).Msg("Clear failed")
			return FailureReply()
		}
		return ClearedReply(removed)
	case !yes && (action == confirm.ActionLeave || action == confirm.ActionClear):
		if err := bot.confirms.Cancel(token, click.userId); err != nil {
			return bot.unresolved(err)
		}
		if action == confirm.ActionClear {
			return ClearCancelledReply()
		}
		return LeaveCancelledReply()
	default:
		// Unknown actions leave any pending prompt alone
		log.Warn().Str("action", string(action)).Msg("Confirmation for an unknown action")
		return Reply{Silent: true}
	}
}

func (bot *Bot) unresolved(err error) Reply {
	if errors.Is(err, confirm.ErrNotOwner) {
		return NotYourPromptReply()
	}
	log.Debug().Err(err).Msg("Ignoring stale confirmation")
	return Reply{Silent: true}
}

// Control panel

func (bot *Bot) pullNext(ctx context.Context, click clickEvent) Reply {
	entry, ok, err := bot.admin.PullNext(ctx)
	return bot.pulled(entry, ok, err, nil)
}

func (bot *Bot) pullSubscriber(ctx context.Context, click clickEvent) Reply {
	entry, ok, err := bot.admin.PullNextSubscriber(ctx)
	return bot.pulled(entry, ok, err, queue.Only(queue.Subscriber))
}

func (bot *Bot) pulled(entry queue.Entry, ok bool, err error, only *queue.PriorityClass) Reply {
	if err != nil {
		log.Error().Err(err).Msg("Pull failed")
		return FailureReply()
	}
	if !ok {
		return NothingToPullReply(only)
	}
	return PulledReply(entry)
}

func (bot *Bot) pickPrompt(ctx context.Context, click clickEvent) Reply {
	entries, err := bot.engine.Entries(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not list the queue")
		return FailureReply()
	}
	if len(entries) == 0 {
		return EmptyQueueReply()
	}
	return PickPromptReply(entries)
}

func (bot *Bot) pick(ctx context.Context, click clickEvent) Reply {
	if len(click.values) == 0 {
		return Reply{Silent: true}
	}
	entry, err := bot.admin.Pick(ctx, queue.ParticipantId(click.values[0]))
	switch {
	case err == nil:
		return PickedReply(entry)
	case errors.Is(err, queue.ErrNotQueued):
		return PickedMissingReply()
	default:
		log.Error().Err(err).Msg("Pick failed")
		return FailureReply()
	}
}

func (bot *Bot) toggle(ctx context.Context, click clickEvent) Reply {
	accepting, err := bot.admin.ToggleAccepting(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Toggle failed")
		return FailureReply()
	}
	return AcceptingReply(accepting)
}

func (bot *Bot) clearPrompt(ctx context.Context, click clickEvent) Reply {
	entries, err := bot.engine.Entries(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not list the queue")
		return FailureReply()
	}
	if len(entries) == 0 {
		return replyText("The queue is already empty.")
	}
	pending := bot.admin.RequestClear(click.userId)
	return ClearPromptReply(pending.Token, len(entries))
}
