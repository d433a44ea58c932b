package bot

import (
	"context"
	"testing"

	"queuebot/internal/board"
	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, bot *Bot, userId string, message string) []Response {
	t.Helper()
	return bot.command(context.Background(), "guild", "general", userId, Parse(bot.config.Prefix, bot.config.Prefix+message))
}

func text(t *testing.T, responses []Response) string {
	t.Helper()
	require.Len(t, responses, 1)
	response, ok := responses[0].(ResponseString)
	require.True(t, ok, "expected a text response, got %T", responses[0])
	return response.string
}

func TestCommandsNeedAdministrator(t *testing.T) {
	bot, _ := newTestBot(t)

	assert.Contains(t, text(t, run(t, bot, "1", "queue close")), "You need the Administrator permission")
	accepting, err := bot.engine.Accepting()
	require.NoError(t, err)
	assert.True(t, accepting)

	// Anyone can read the status
	responses := run(t, bot, "1", "queue")
	require.Len(t, responses, 1)
	assert.IsType(t, ResponseEmbed{}, responses[0])
}

func TestOpenAndClose(t *testing.T) {
	ctx := context.Background()
	bot, platform := newTestBot(t)
	platform.admins["admin"] = true
	require.NoError(t, bot.publisher.EnsureAll(ctx))

	assert.Equal(t, "The queue is now closed to new players", text(t, run(t, bot, "admin", "queue close")))
	assert.Equal(t, QueueClosedReply(), press(t, bot, "1", board.ActionJoin))

	messageId, ok, err := bot.database.BoardMessage(board.Board{Kind: board.KindQueue, ChannelId: "queue-channel"})
	require.NoError(t, err)
	require.True(t, ok)
	row := platform.boards[messageId].Components[0].(discordgo.ActionsRow)
	assert.True(t, row.Components[0].(discordgo.Button).Disabled)

	assert.Equal(t, "The queue is now open to new players", text(t, run(t, bot, "admin", "queue open")))
	assert.Equal(t, JoinedReply(queue.Standard), press(t, bot, "1", board.ActionJoin))
}

func TestEnableAndDisable(t *testing.T) {
	ctx := context.Background()
	bot, platform := newTestBot(t)
	platform.admins["admin"] = true
	require.NoError(t, bot.publisher.EnsureAll(ctx))

	assert.Equal(t, "The queue is disabled and the boards were taken down", text(t, run(t, bot, "admin", "queue disable")))
	assert.Equal(t, 0, platform.liveBoards())

	// Boards stay down while disabled
	assert.Equal(t, "The queue is disabled. Use `$queue enable` to turn it back on", text(t, run(t, bot, "admin", "createqueue")))
	bot.publisher.SelfHeal(ctx)
	assert.Equal(t, 0, platform.liveBoards())

	assert.Equal(t, "The queue is enabled and the boards are published", text(t, run(t, bot, "admin", "queue enable")))
	assert.Equal(t, 2, platform.liveBoards())
}

func TestCreateQueueReplacesBoards(t *testing.T) {
	bot, platform := newTestBot(t)
	platform.admins["admin"] = true

	assert.Equal(t, "Queue created in <#queue-channel> and <#master-channel>", text(t, run(t, bot, "admin", "createqueue")))
	first, _, err := bot.database.BoardMessage(board.Board{Kind: board.KindQueue, ChannelId: "queue-channel"})
	require.NoError(t, err)

	run(t, bot, "admin", "createqueue")
	second, _, err := bot.database.BoardMessage(board.Board{Kind: board.KindQueue, ChannelId: "queue-channel"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, platform.liveBoards())
}

func TestQueueStatus(t *testing.T) {
	bot, platform := newTestBot(t)
	platform.subscribers["2"] = true
	press(t, bot, "1", board.ActionJoin)
	press(t, bot, "2", board.ActionJoin)

	responses := run(t, bot, "1", "queue status")
	require.Len(t, responses, 1)
	embed := responses[0].(ResponseEmbed).MessageEmbed
	assert.Equal(t, "Open", embed.Fields[0].Value)
	assert.Equal(t, "2", embed.Fields[1].Value)
	assert.Equal(t, "1", embed.Fields[2].Value)
	assert.Contains(t, embed.Fields[3].Value, "user-1")
}

func TestInvalidInput(t *testing.T) {
	bot, _ := newTestBot(t)
	assert.Equal(t, "Input not valid: \n> Command `dance` not recognised", text(t, run(t, bot, "1", "dance")))
}
