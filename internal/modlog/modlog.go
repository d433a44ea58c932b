// Package modlog keeps the moderation audit trail: members joining and
// leaving, and every message with its edits and deletions
package modlog

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"queuebot/internal/common"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	colorJoined  int = 0x2ecc71
	colorLeft    int = 0xe74c3c
	colorEdited  int = 0x7289da
	colorDeleted int = 0x5865f2

	fieldLimit = 1024
)

type Platform interface {
	SendEmbed(channelId string, embed *discordgo.MessageEmbed) error
	AddRole(guildId string, userId string, roleId string) error
	TextChannels(guildId string) ([]Channel, error)
	// Messages created after the given id, oldest first, one page at a time
	History(channelId string, afterId string) ([]Message, error)
	DeleteMessage(channelId string, messageId string) error
}

type Options struct {
	LogsChannelId     string
	NewUserJoinRoleId string
	Location          *time.Location
	IgnoredMessageIds []string
	// message id to channel id
	AlternateLogChannels map[string]string
}

type Log struct {
	db       *common.Database
	platform Platform
	options  Options
	ignored  map[string]struct{}
	now      func() time.Time
}

func New(db *common.Database, platform Platform, options Options) *Log {
	if options.Location == nil {
		options.Location = time.UTC
	}
	ignored := make(map[string]struct{}, len(options.IgnoredMessageIds))
	for _, id := range options.IgnoredMessageIds {
		ignored[id] = struct{}{}
	}
	return &Log{db: db, platform: platform, options: options, ignored: ignored, now: time.Now}
}

func recordKey(channelId string, messageId string) string {
	return fmt.Sprintf("modlog/%s/%s", channelId, messageId)
}

func (modlog *Log) format(instant time.Time) string {
	return instant.In(modlog.options.Location).Format(timestampLayout)
}

func (modlog *Log) record(message Message) Record {
	return Record{
		AuthorId:    message.AuthorId,
		AuthorName:  message.AuthorName,
		ChannelId:   message.ChannelId,
		ChannelName: message.ChannelName,
		Content:     message.Content,
		CreatedAt:   modlog.format(message.CreatedAt),
		JumpUrl:     message.JumpUrl(),
	}
}

func (modlog *Log) Record(channelId string, messageId string) (Record, bool, error) {
	var record Record
	ok, err := modlog.db.GetJSON(recordKey(channelId, messageId), &record)
	return record, ok, err
}

func (modlog *Log) MemberJoined(member Member) error {

	if modlog.options.NewUserJoinRoleId != "" {
		// The welcome role is a nicety, the join is still logged without it
		if err := modlog.platform.AddRole(member.GuildId, member.Id, modlog.options.NewUserJoinRoleId); err != nil {
			log.Warn().Err(err).Str("member", member.Id).Msg(fmt.Sprintf("Could not add role %s to %s", modlog.options.NewUserJoinRoleId, member.Name))
		} else {
			log.Info().Msg(fmt.Sprintf("Added role %s to %s", modlog.options.NewUserJoinRoleId, member.Name))
		}
	}

	return modlog.send(modlog.options.LogsChannelId, modlog.memberEmbed("Member Joined", fmt.Sprintf("%s has joined the server.", member.Mention()), colorJoined, member))
}

func (modlog *Log) MemberLeft(member Member) error {
	return modlog.send(modlog.options.LogsChannelId, modlog.memberEmbed("Member Left", fmt.Sprintf("%s has left the server.", member.Mention()), colorLeft, member))
}

func (modlog *Log) memberEmbed(title string, description string, color int, member Member) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   modlog.now().In(modlog.options.Location).Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Username", Value: member.Name, Inline: false},
			{Name: "User ID", Value: member.Id, Inline: false},
		},
	}
}

// Store every message that is not from a bot
func (modlog *Log) MessageCreated(message Message) error {
	if message.Bot {
		return nil
	}
	return modlog.db.SetJSON(recordKey(message.ChannelId, message.Id), modlog.record(message))
}

// Report an edit and keep the new content. Returns false when nothing was reported
func (modlog *Log) MessageEdited(message Message) (bool, error) {

	if _, ok := modlog.ignored[message.Id]; ok {
		log.Debug().Msg(fmt.Sprintf("Message %s was edited but is marked to be ignored", message.Id))
		return false, nil
	}
	if message.Bot {
		return false, nil
	}

	record, ok, err := modlog.Record(message.ChannelId, message.Id)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Debug().Msg(fmt.Sprintf("Message %s not found in the log for channel %s", message.Id, message.ChannelId))
		return false, nil
	}
	if record.Content == message.Content {
		return false, nil
	}

	editedAt := message.EditedAt
	if editedAt.IsZero() {
		editedAt = modlog.now()
	}
	embed := &discordgo.MessageEmbed{
		Title:     "Message Edited",
		Color:     colorEdited,
		Timestamp: editedAt.In(modlog.options.Location).Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: fmt.Sprintf("<@%s>", message.AuthorId), Inline: false},
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", message.ChannelId), Inline: false},
			{Name: "Original Content", Value: fieldValue(record.Content), Inline: false},
			{Name: "Edited Content", Value: fieldValue(message.Content), Inline: false},
			{Name: "Message Link", Value: message.JumpUrl(), Inline: false},
		},
	}

	if err := modlog.sendEdit(message.Id, embed); err != nil {
		return false, err
	}

	record.Content = message.Content
	record.EditedAt = modlog.format(editedAt)
	if err := modlog.db.SetJSON(recordKey(message.ChannelId, message.Id), record); err != nil {
		return true, err
	}
	return true, nil
}

// Edits of some messages go to their own channel, falling back to the logs channel
func (modlog *Log) sendEdit(messageId string, embed *discordgo.MessageEmbed) error {
	alternate, ok := modlog.options.AlternateLogChannels[messageId]
	if !ok {
		return modlog.send(modlog.options.LogsChannelId, embed)
	}
	err := modlog.send(alternate, embed)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msg(fmt.Sprintf("Could not log edit of %s to channel %s, using the logs channel", messageId, alternate))
	return modlog.send(modlog.options.LogsChannelId, embed)
}

// Report a deletion from what the log remembers. Returns false for unknown messages
func (modlog *Log) MessageDeleted(channelId string, messageId string) (bool, error) {

	record, ok, err := modlog.Record(channelId, messageId)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Debug().Msg(fmt.Sprintf("Message %s not found in the log for channel %s", messageId, channelId))
		return false, nil
	}

	embed := &discordgo.MessageEmbed{
		Title:     "Message Deleted",
		Color:     colorDeleted,
		Timestamp: modlog.now().In(modlog.options.Location).Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: fmt.Sprintf("<@%s>", record.AuthorId), Inline: false},
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", record.ChannelId), Inline: false},
			{Name: "Original Timestamp", Value: record.CreatedAt, Inline: false},
			{Name: "Content", Value: fieldValue(record.Content), Inline: false},
		},
	}
	if err := modlog.send(modlog.options.LogsChannelId, embed); err != nil {
		return false, err
	}
	return true, modlog.db.Delete(recordKey(channelId, messageId))
}

// Log the whole history of every text channel of the guild.
// Messages already in the log are left untouched
func (modlog *Log) Backfill(ctx context.Context, guildId string) (int, error) {

	channels, err := modlog.platform.TextChannels(guildId)
	if err != nil {
		return 0, fmt.Errorf("could not list channels of guild %s: %w", guildId, err)
	}

	total := 0
	var errs []error
	for _, channel := range channels {
		logged, err := modlog.backfillChannel(ctx, channel)
		total += logged
		if err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", channel.Name, err))
		}
	}
	log.Info().Int("messages", total).Msg(fmt.Sprintf("Backfilled %d channels", len(channels)))
	return total, errors.Join(errs...)
}

func (modlog *Log) backfillChannel(ctx context.Context, channel Channel) (int, error) {
	logged := 0
	err := modlog.walk(ctx, channel.Id, "0", func(message Message) error {
		if message.Bot {
			return nil
		}
		if _, ok, err := modlog.Record(message.ChannelId, message.Id); err != nil || ok {
			return err
		}
		if message.ChannelName == "" {
			message.ChannelName = channel.Name
		}
		logged++
		return modlog.db.SetJSON(recordKey(message.ChannelId, message.Id), modlog.record(message))
	})
	return logged, err
}

// Delete every message of the channel created after the instant
func (modlog *Log) PurgeAfter(ctx context.Context, channelId string, after time.Time) (int, error) {
	deleted := 0
	err := modlog.walk(ctx, channelId, SnowflakeAt(after), func(message Message) error {
		if err := modlog.platform.DeleteMessage(channelId, message.Id); err != nil {
			return err
		}
		deleted++
		return nil
	})
	log.Info().Int("deleted", deleted).Msg(fmt.Sprintf("Purged channel %s after %s", channelId, after))
	return deleted, err
}

// Call fn for every message after the id, oldest first
func (modlog *Log) walk(ctx context.Context, channelId string, afterId string, fn func(Message) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := modlog.platform.History(channelId, afterId)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, message := range page {
			if err := fn(message); err != nil {
				return err
			}
		}
		afterId = page[len(page)-1].Id
	}
}

func (modlog *Log) send(channelId string, embed *discordgo.MessageEmbed) error {
	if channelId == "" {
		return errors.New("no logs channel configured")
	}
	if err := modlog.platform.SendEmbed(channelId, embed); err != nil {
		return fmt.Errorf("could not send %q to channel %s: %w", embed.Title, channelId, err)
	}
	return nil
}

// Embed fields cannot be empty or longer than the field limit
func fieldValue(content string) string {
	if content == "" {
		return "(empty)"
	}
	if len(content) <= fieldLimit {
		return content
	}
	cut := fieldLimit - 3
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
