package bot

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"queuebot/internal/admin"
	"queuebot/internal/board"
	"queuebot/internal/modlog"
	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
)

// Discord messages are fetched in pages of at most this many
const historyPage = 100

// Platform is everything the bot needs from the chat platform
type Platform interface {
	Sender
	board.Messenger
	admin.Notifier
	modlog.Platform
	Announce(channelId string, content string) error
	IsSubscriber(guildId string, userId string, roleId string) (bool, error)
	IsAdministrator(userId string, channelId string) (bool, error)
	FetchMessage(channelId string, messageId string) (modlog.Message, error)
}

// Discord implements Platform on a discordgo session
type Discord struct {
	session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// Translate the REST failures the bot cares about
func mapError(err error) error {
	var restError *discordgo.RESTError
	if !errors.As(err, &restError) || restError.Response == nil {
		return err
	}
	if restError.Message != nil && restError.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
		return fmt.Errorf("%w: %v", admin.ErrUnreachable, err)
	}
	switch restError.Response.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", board.ErrNotFound, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %v", board.ErrForbidden, err)
	}
	return err
}

func (discord *Discord) SendText(channelId string, content string) error {
	_, err := discord.session.ChannelMessageSend(channelId, content)
	return mapError(err)
}

func (discord *Discord) SendEmbed(channelId string, embed *discordgo.MessageEmbed) error {
	_, err := discord.session.ChannelMessageSendEmbed(channelId, embed)
	return mapError(err)
}

func (discord *Discord) Announce(channelId string, content string) error {
	return discord.SendText(channelId, content)
}

func (discord *Discord) SendBoard(channelId string, view board.View) (string, error) {
	message, err := discord.session.ChannelMessageSendComplex(channelId, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{view.Embed},
		Components: view.Components,
	})
	if err != nil {
		return "", mapError(err)
	}
	return message.ID, nil
}

func (discord *Discord) EditBoard(channelId string, messageId string, view board.View) error {
	embeds := []*discordgo.MessageEmbed{view.Embed}
	components := view.Components
	_, err := discord.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageId,
		Channel:    channelId,
		Embeds:     &embeds,
		Components: &components,
	})
	return mapError(err)
}

func (discord *Discord) DeleteMessage(channelId string, messageId string) error {
	return mapError(discord.session.ChannelMessageDelete(channelId, messageId))
}

func (discord *Discord) Notify(participant queue.ParticipantId, message string) error {
	channel, err := discord.session.UserChannelCreate(string(participant))
	if err != nil {
		return mapError(err)
	}
	_, err = discord.session.ChannelMessageSend(channel.ID, message)
	return mapError(err)
}

func (discord *Discord) AddRole(guildId string, userId string, roleId string) error {
	return mapError(discord.session.GuildMemberRoleAdd(guildId, userId, roleId))
}

func (discord *Discord) IsSubscriber(guildId string, userId string, roleId string) (bool, error) {
	member, err := discord.session.GuildMember(guildId, userId)
	if err != nil {
		return false, mapError(err)
	}
	for _, role := range member.Roles {
		if role == roleId {
			return true, nil
		}
	}
	return false, nil
}

func (discord *Discord) IsAdministrator(userId string, channelId string) (bool, error) {
	permissions, err := discord.session.UserChannelPermissions(userId, channelId)
	if err != nil {
		return false, mapError(err)
	}
	return permissions&discordgo.PermissionAdministrator != 0, nil
}

func (discord *Discord) TextChannels(guildId string) ([]modlog.Channel, error) {
	channels, err := discord.session.GuildChannels(guildId)
	if err != nil {
		return nil, mapError(err)
	}
	var text []modlog.Channel
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildText {
			text = append(text, modlog.Channel{Id: channel.ID, Name: channel.Name})
		}
	}
	return text, nil
}

func (discord *Discord) History(channelId string, afterId string) ([]modlog.Message, error) {
	messages, err := discord.session.ChannelMessages(channelId, historyPage, "", afterId, "")
	if err != nil {
		return nil, mapError(err)
	}
	// Ids are snowflakes, their order is the creation order
	sort.Slice(messages, func(i, j int) bool {
		return snowflakeLess(messages[i].ID, messages[j].ID)
	})
	page := make([]modlog.Message, 0, len(messages))
	for _, message := range messages {
		page = append(page, convertMessage(discord.session, message))
	}
	return page, nil
}

func (discord *Discord) FetchMessage(channelId string, messageId string) (modlog.Message, error) {
	message, err := discord.session.ChannelMessage(channelId, messageId)
	if err != nil {
		return modlog.Message{}, mapError(err)
	}
	return convertMessage(discord.session, message), nil
}

func convertMessage(session *discordgo.Session, message *discordgo.Message) modlog.Message {
	converted := modlog.Message{
		Id:        message.ID,
		GuildId:   message.GuildID,
		ChannelId: message.ChannelID,
		Content:   message.Content,
		CreatedAt: message.Timestamp,
	}
	if message.Author != nil {
		converted.AuthorId = message.Author.ID
		converted.AuthorName = message.Author.Username
		converted.Bot = message.Author.Bot
	}
	if message.EditedTimestamp != nil {
		converted.EditedAt = *message.EditedTimestamp
	}
	if converted.CreatedAt.IsZero() {
		if created, err := modlog.SnowflakeTime(message.ID); err == nil {
			converted.CreatedAt = created
		}
	}
	if session == nil || session.State == nil {
		return converted
	}
	if channel, err := session.State.Channel(message.ChannelID); err == nil {
		converted.ChannelName = channel.Name
		if converted.GuildId == "" {
			converted.GuildId = channel.GuildID
		}
	}
	return converted
}

func snowflakeLess(a string, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Name shown in the queue: server nickname, then global name, then username
func displayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil {
		return "unknown"
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

var _ Platform = (*Discord)(nil)
