package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var commandNames = map[int]string{
	COMMAND_CREATEQUEUE:     "createqueue",
	COMMAND_QUEUE:           "queue",
	COMMAND_PURGEAFTER:      "purgeafter",
	COMMAND_LOGEVERYMESSAGE: "logeverymessage",
	COMMAND_HELP:            "help",
}

func (bot *Bot) command(ctx context.Context, guildId string, channelId string, userId string, parseResult ParseResult) []Response {

	if parseResult.parseid != PARSEID_OK {
		// The command is invalid input, so it contains an error message
		log.Info().Msg(fmt.Sprintf("Wrong input. Reason: %s", parseResult.errorMessage))
		return InputNotValid(parseResult.errorMessage)
	}

	if parseResult.AdminOnly() {
		admin, err := bot.platform.IsAdministrator(userId, channelId)
		if err != nil {
			log.Error().Err(err).Str("user", userId).Msg("Could not check permissions")
			return SomethingWentWrong()
		}
		if !admin {
			log.Info().Str("user", userId).Msg(fmt.Sprintf("Rejecting %s from a non administrator", commandNames[parseResult.command]))
			return NotAdministrator(bot.config.Prefix, commandNames[parseResult.command])
		}
	}

	switch parseResult.command {
	case COMMAND_CREATEQUEUE:
		return bot.createQueue(ctx)
	case COMMAND_QUEUE:
		switch subcommand := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of queue subcommand %T", subcommand))
		case string:
			return bot.queueCommand(ctx, subcommand)
		}
	case COMMAND_PURGEAFTER:
		switch after := parseResult.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of timestamp %T", after))
		case time.Time:
			return bot.purgeAfter(ctx, channelId, after)
		}
	case COMMAND_LOGEVERYMESSAGE:
		return bot.logEveryMessage(ctx, guildId)
	case COMMAND_HELP:
		return HelpMessage(bot.config.Prefix)
	default:
		panic(fmt.Sprintf("Command %d is not one of the possible ones", parseResult.command))
	}
}

func (bot *Bot) createQueue(ctx context.Context) []Response {
	disabled, err := bot.publisher.Disabled()
	if err != nil {
		log.Error().Err(err).Msg("Could not read disabled marker")
		return SomethingWentWrong()
	}
	if disabled {
		return QueueIsDisabled(bot.config.Prefix)
	}
	if err := bot.publisher.EnsureAll(ctx); err != nil {
		log.Error().Err(err).Msg("Could not create the queue boards")
		return SomethingWentWrong()
	}
	channelIds := []string{}
	for _, published := range bot.publisher.Boards() {
		channelIds = append(channelIds, published.ChannelId)
	}
	return QueueCreated(channelIds...)
}

func (bot *Bot) queueCommand(ctx context.Context, subcommand string) []Response {
	switch subcommand {
	case QUEUE_OPEN, QUEUE_CLOSE:
		accepting := subcommand == QUEUE_OPEN
		if err := bot.engine.SetAccepting(ctx, accepting); err != nil {
			log.Error().Err(err).Msg("Could not change the accepting flag")
			return SomethingWentWrong()
		}
		return AcceptingChanged(accepting)
	case QUEUE_ENABLE:
		if err := bot.publisher.Enable(ctx); err != nil {
			log.Error().Err(err).Msg("Could not enable the queue")
			return SomethingWentWrong()
		}
		return QueueEnabled()
	case QUEUE_DISABLE:
		if err := bot.publisher.Disable(ctx); err != nil {
			log.Error().Err(err).Msg("Could not disable the queue")
			return SomethingWentWrong()
		}
		return QueueDisabled()
	default:
		entries, err := bot.engine.Entries(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Could not list the queue")
			return SomethingWentWrong()
		}
		accepting, err := bot.engine.Accepting()
		if err != nil {
			log.Error().Err(err).Msg("Could not read the accepting flag")
			return SomethingWentWrong()
		}
		disabled, err := bot.publisher.Disabled()
		if err != nil {
			log.Error().Err(err).Msg("Could not read disabled marker")
			return SomethingWentWrong()
		}
		return QueueStatus(entries, accepting, disabled)
	}
}

func (bot *Bot) purgeAfter(ctx context.Context, channelId string, after time.Time) []Response {
	deleted, err := bot.modlog.PurgeAfter(ctx, channelId, after)
	if err != nil {
		log.Error().Err(err).Int("deleted", deleted).Msg(fmt.Sprintf("Purge of channel %s stopped", channelId))
	}
	return MessagesPurged(deleted, after)
}

func (bot *Bot) logEveryMessage(ctx context.Context, guildId string) []Response {
	logged, err := bot.modlog.Backfill(ctx, guildId)
	if err != nil {
		log.Error().Err(err).Int("logged", logged).Msg("Backfill did not complete")
	}
	return MessagesLogged(logged)
}
