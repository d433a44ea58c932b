package bot

import (
	"errors"
	"fmt"

	"queuebot/internal/board"
	"queuebot/internal/modlog"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Handlers of the moderation log, registered only when a logs channel is configured

func (bot *Bot) memberJoined(discord *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil || event.User == nil {
		return
	}
	member := modlog.Member{Id: event.User.ID, Name: event.User.Username, GuildId: event.GuildID}
	if err := bot.modlog.MemberJoined(member); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not log %s joining", member.Name))
	}
}

func (bot *Bot) memberLeft(discord *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.Member == nil || event.User == nil {
		return
	}
	member := modlog.Member{Id: event.User.ID, Name: event.User.Username, GuildId: event.GuildID}
	if err := bot.modlog.MemberLeft(member); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not log %s leaving", member.Name))
	}
}

// Edit events can carry a partial message, so the current one is fetched
func (bot *Bot) messageEdited(discord *discordgo.Session, event *discordgo.MessageUpdate) {
	if event.Message == nil || event.GuildID == "" {
		return
	}
	message, err := bot.platform.FetchMessage(event.ChannelID, event.ID)
	if errors.Is(err, board.ErrNotFound) {
		log.Debug().Msg(fmt.Sprintf("Edited message %s is already gone", event.ID))
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("Could not fetch edited message %s", event.ID))
		return
	}
	if message.GuildId == "" {
		message.GuildId = event.GuildID
	}
	if _, err := bot.modlog.MessageEdited(message); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not log edit of message %s", event.ID))
	}
}

func (bot *Bot) messageDeleted(discord *discordgo.Session, event *discordgo.MessageDelete) {
	if event.Message == nil || event.GuildID == "" {
		return
	}
	if _, err := bot.modlog.MessageDeleted(event.ChannelID, event.ID); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not log deletion of message %s", event.ID))
	}
}
