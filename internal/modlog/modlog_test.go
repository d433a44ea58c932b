package modlog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"queuebot/internal/common"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	channelId string
	embed     *discordgo.MessageEmbed
}

type fakePlatform struct {
	sent     []sent
	roles    []string
	channels []Channel
	history  map[string][]Message
	deleted  []string
	pageSize int
	failing  map[string]bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{history: map[string][]Message{}, pageSize: 2, failing: map[string]bool{}}
}

func (platform *fakePlatform) SendEmbed(channelId string, embed *discordgo.MessageEmbed) error {
	if platform.failing[channelId] {
		return errors.New("unknown channel")
	}
	platform.sent = append(platform.sent, sent{channelId, embed})
	return nil
}

func (platform *fakePlatform) AddRole(guildId string, userId string, roleId string) error {
	platform.roles = append(platform.roles, userId+":"+roleId)
	return nil
}

func (platform *fakePlatform) TextChannels(guildId string) ([]Channel, error) {
	return platform.channels, nil
}

func (platform *fakePlatform) History(channelId string, afterId string) ([]Message, error) {
	var page []Message
	for _, message := range platform.history[channelId] {
		if idLess(afterId, message.Id) {
			page = append(page, message)
		}
		if len(page) == platform.pageSize {
			break
		}
	}
	return page, nil
}

func (platform *fakePlatform) DeleteMessage(channelId string, messageId string) error {
	platform.deleted = append(platform.deleted, messageId)
	return nil
}

func idLess(a string, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func newTestLog(t *testing.T, options Options) (*Log, *fakePlatform) {
	t.Helper()
	db, err := common.OpenDatabase(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	platform := newFakePlatform()
	if options.LogsChannelId == "" {
		options.LogsChannelId = "logs"
	}
	modlog := New(db, platform, options)
	modlog.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return modlog, platform
}

func testMessage(id string, content string) Message {
	return Message{
		Id:          id,
		GuildId:     "guild",
		ChannelId:   "general",
		ChannelName: "general",
		AuthorId:    "author",
		AuthorName:  "alice",
		Content:     content,
		CreatedAt:   time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC),
	}
}

func TestMemberJoinedAddsRoleAndLogs(t *testing.T) {
	modlog, platform := newTestLog(t, Options{NewUserJoinRoleId: "newbie"})

	require.NoError(t, modlog.MemberJoined(Member{Id: "42", Name: "bob", GuildId: "guild"}))
	assert.Equal(t, []string{"42:newbie"}, platform.roles)
	require.Len(t, platform.sent, 1)
	assert.Equal(t, "logs", platform.sent[0].channelId)
	assert.Equal(t, "Member Joined", platform.sent[0].embed.Title)
	assert.Equal(t, "<@42> has joined the server.", platform.sent[0].embed.Description)

	require.NoError(t, modlog.MemberLeft(Member{Id: "42", Name: "bob", GuildId: "guild"}))
	assert.Equal(t, "Member Left", platform.sent[1].embed.Title)
}

func TestMessageRecordUsesTimezone(t *testing.T) {
	location, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	modlog, _ := newTestLog(t, Options{Location: location})

	require.NoError(t, modlog.MessageCreated(testMessage("100", "hello")))
	record, ok, err := modlog.Record("general", "100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01 12:30:00", record.CreatedAt)
	assert.Equal(t, "https://discord.com/channels/guild/general/100", record.JumpUrl)

	bot := testMessage("101", "beep")
	bot.Bot = true
	require.NoError(t, modlog.MessageCreated(bot))
	_, ok, err = modlog.Record("general", "101")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMessageEdited(t *testing.T) {
	modlog, platform := newTestLog(t, Options{
		IgnoredMessageIds:    []string{"300"},
		AlternateLogChannels: map[string]string{"200": "rules-log"},
	})
	for _, id := range []string{"100", "200", "300"} {
		require.NoError(t, modlog.MessageCreated(testMessage(id, "original")))
	}

	// Unchanged content and unknown messages are not reported
	reported, err := modlog.MessageEdited(testMessage("100", "original"))
	require.NoError(t, err)
	assert.False(t, reported)
	reported, err = modlog.MessageEdited(testMessage("999", "new"))
	require.NoError(t, err)
	assert.False(t, reported)
	reported, err = modlog.MessageEdited(testMessage("300", "new"))
	require.NoError(t, err)
	assert.False(t, reported)
	assert.Empty(t, platform.sent)

	reported, err = modlog.MessageEdited(testMessage("100", "changed"))
	require.NoError(t, err)
	assert.True(t, reported)
	require.Len(t, platform.sent, 1)
	assert.Equal(t, "logs", platform.sent[0].channelId)
	assert.Equal(t, "original", platform.sent[0].embed.Fields[2].Value)
	assert.Equal(t, "changed", platform.sent[0].embed.Fields[3].Value)

	record, _, err := modlog.Record("general", "100")
	require.NoError(t, err)
	assert.Equal(t, "changed", record.Content)
	assert.Equal(t, "2024-03-01 12:00:00", record.EditedAt)

	_, err = modlog.MessageEdited(testMessage("200", "changed"))
	require.NoError(t, err)
	assert.Equal(t, "rules-log", platform.sent[1].channelId)
}

func TestMessageEditedFallsBackToLogsChannel(t *testing.T) {
	modlog, platform := newTestLog(t, Options{AlternateLogChannels: map[string]string{"200": "gone"}})
	platform.failing["gone"] = true
	require.NoError(t, modlog.MessageCreated(testMessage("200", "original")))

	reported, err := modlog.MessageEdited(testMessage("200", "changed"))
	require.NoError(t, err)
	assert.True(t, reported)
	require.Len(t, platform.sent, 1)
	assert.Equal(t, "logs", platform.sent[0].channelId)
}

func TestMessageDeleted(t *testing.T) {
	modlog, platform := newTestLog(t, Options{})
	require.NoError(t, modlog.MessageCreated(testMessage("100", "secret")))

	reported, err := modlog.MessageDeleted("general", "100")
	require.NoError(t, err)
	assert.True(t, reported)
	require.Len(t, platform.sent, 1)
	assert.Equal(t, "Message Deleted", platform.sent[0].embed.Title)
	assert.Equal(t, "secret", platform.sent[0].embed.Fields[3].Value)

	_, ok, err := modlog.Record("general", "100")
	require.NoError(t, err)
	assert.False(t, ok)

	reported, err = modlog.MessageDeleted("general", "100")
	require.NoError(t, err)
	assert.False(t, reported)
}

func TestBackfillLogsOnlyNewMessages(t *testing.T) {
	ctx := context.Background()
	modlog, platform := newTestLog(t, Options{})
	platform.channels = []Channel{{Id: "general", Name: "general"}, {Id: "memes", Name: "memes"}}
	for i := 1; i <= 5; i++ {
		message := testMessage(fmt.Sprint(100+i), "history")
		message.Bot = i == 3
		platform.history["general"] = append(platform.history["general"], message)
	}
	memes := testMessage("200", "lol")
	memes.ChannelId = "memes"
	memes.ChannelName = ""
	platform.history["memes"] = []Message{memes}

	require.NoError(t, modlog.MessageCreated(testMessage("101", "already logged")))

	logged, err := modlog.Backfill(ctx, "guild")
	require.NoError(t, err)
	assert.Equal(t, 4, logged)

	record, ok, err := modlog.Record("general", "101")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "already logged", record.Content)

	record, ok, err = modlog.Record("memes", "200")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "memes", record.ChannelName)
}

func TestPurgeAfter(t *testing.T) {
	ctx := context.Background()
	modlog, platform := newTestLog(t, Options{})
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var expected []string
	for i, offset := range []time.Duration{-2 * time.Hour, -time.Minute, time.Second, time.Hour, 48 * time.Hour} {
		id := SnowflakeAt(cutoff.Add(offset))
		platform.history["general"] = append(platform.history["general"], Message{Id: id, ChannelId: "general", Content: fmt.Sprint(i)})
		if offset > 0 {
			expected = append(expected, id)
		}
	}
	sort.Slice(platform.history["general"], func(i, j int) bool {
		return idLess(platform.history["general"][i].Id, platform.history["general"][j].Id)
	})

	deleted, err := modlog.PurgeAfter(ctx, "general", cutoff)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, expected, platform.deleted)
}

func TestSnowflakeRoundTrip(t *testing.T) {
	instant := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)
	back, err := SnowflakeTime(SnowflakeAt(instant))
	require.NoError(t, err)
	assert.True(t, instant.Equal(back))
	assert.Equal(t, "0", SnowflakeAt(time.Unix(0, 0)))
}

func TestFieldValue(t *testing.T) {
	assert.Equal(t, "(empty)", fieldValue(""))
	long := strings.Repeat("é", fieldLimit)
	value := fieldValue(long)
	assert.LessOrEqual(t, len(value), fieldLimit)
	assert.True(t, strings.HasSuffix(value, "..."))
}
