package bot

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"queuebot/internal/board"
	"queuebot/internal/common"
	"queuebot/internal/config"
	"queuebot/internal/modlog"
	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

// fakePlatform keeps in memory what the bot sends to Discord
type fakePlatform struct {
	mutex       sync.Mutex
	next        int
	texts       []string
	embeds      []*discordgo.MessageEmbed
	boards      map[string]board.View
	notified    map[queue.ParticipantId]string
	subscribers map[string]bool
	admins      map[string]bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		boards:      map[string]board.View{},
		notified:    map[queue.ParticipantId]string{},
		subscribers: map[string]bool{},
		admins:      map[string]bool{},
	}
}

func (platform *fakePlatform) SendText(channelId string, content string) error {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	platform.texts = append(platform.texts, content)
	return nil
}

func (platform *fakePlatform) SendEmbed(channelId string, embed *discordgo.MessageEmbed) error {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	platform.embeds = append(platform.embeds, embed)
	return nil
}

func (platform *fakePlatform) Announce(channelId string, content string) error {
	return platform.SendText(channelId, content)
}

func (platform *fakePlatform) SendBoard(channelId string, view board.View) (string, error) {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	platform.next++
	messageId := fmt.Sprintf("%s-%d", channelId, platform.next)
	platform.boards[messageId] = view
	return messageId, nil
}

func (platform *fakePlatform) EditBoard(channelId string, messageId string, view board.View) error {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	if _, ok := platform.boards[messageId]; !ok {
		return board.ErrNotFound
	}
	platform.boards[messageId] = view
	return nil
}

func (platform *fakePlatform) DeleteMessage(channelId string, messageId string) error {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	if _, ok := platform.boards[messageId]; !ok {
		return board.ErrNotFound
	}
	delete(platform.boards, messageId)
	return nil
}

func (platform *fakePlatform) Notify(participant queue.ParticipantId, message string) error {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	platform.notified[participant] = message
	return nil
}

func (platform *fakePlatform) AddRole(guildId string, userId string, roleId string) error {
	return nil
}

func (platform *fakePlatform) TextChannels(guildId string) ([]modlog.Channel, error) {
	return nil, nil
}

func (platform *fakePlatform) History(channelId string, afterId string) ([]modlog.Message, error) {
	return nil, nil
}

func (platform *fakePlatform) IsSubscriber(guildId string, userId string, roleId string) (bool, error) {
	return platform.subscribers[userId], nil
}

func (platform *fakePlatform) IsAdministrator(userId string, channelId string) (bool, error) {
	return platform.admins[userId], nil
}

func (platform *fakePlatform) FetchMessage(channelId string, messageId string) (modlog.Message, error) {
	return modlog.Message{}, board.ErrNotFound
}

func (platform *fakePlatform) liveBoards() int {
	platform.mutex.Lock()
	defer platform.mutex.Unlock()
	return len(platform.boards)
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.DiscordToken = "token"
	cfg.DataDir = t.TempDir()
	cfg.QueueChannelId = "queue-channel"
	cfg.QueueMasterChannelId = "master-channel"
	cfg.SubscriberRoleId = "sub-role"
	cfg.ConfirmTimeout = time.Minute
	return cfg
}

func newTestBot(t *testing.T) (*Bot, *fakePlatform) {
	t.Helper()
	cfg := testConfig(t)
	kv, err := common.OpenDatabase(cfg.StateDir())
	require.NoError(t, err)
	store, err := queue.OpenStore("sqlite", filepath.Join(cfg.DataDir, "queue.db"))
	require.NoError(t, err)

	platform := newFakePlatform()
	bot := assemble(cfg, kv, store, platform)
	t.Cleanup(func() { _ = bot.Close() })
	return bot, platform
}
