// Package bot connects the queue, its boards, the moderation log and the
// stream notifier to Discord
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"queuebot/internal/admin"
	"queuebot/internal/board"
	"queuebot/internal/common"
	"queuebot/internal/config"
	"queuebot/internal/confirm"
	"queuebot/internal/modlog"
	"queuebot/internal/queue"
	"queuebot/internal/server"
	"queuebot/internal/twitch"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const helixTimeout = 10 * time.Second

// Bot is created once at startup and owns every component until Close
type Bot struct {
	config    config.Config
	session   *discordgo.Session
	platform  Platform
	kv        *common.Database
	database  DatabaseBot
	store     *queue.Store
	engine    *queue.Engine
	publisher *board.Publisher
	admin     *admin.Surface
	confirms  *confirm.Registry
	modlog    *modlog.Log
	stream    *twitch.Notifier
	scheduler *cron.Cron
	server    *server.Server
	handlers  map[string]interactionHandler
	ctx       context.Context
}

func CreateBot(cfg config.Config) (*Bot, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create data directory %s: %w", cfg.DataDir, err)
	}

	// Databases
	kv, err := common.OpenDatabase(cfg.StateDir())
	if err != nil {
		return nil, err
	}
	store, err := queue.OpenStore(cfg.QueueDbDriver, cfg.QueueDsn())
	if err != nil {
		kv.Close()
		return nil, err
	}

	// Discord session, not opened until Run
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		store.Close()
		kv.Close()
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	bot := assemble(cfg, kv, store, NewDiscord(session))
	bot.session = session

	// Optional features
	if cfg.StreamNotifierEnabled() {
		helix := twitch.NewHelix(cfg.Twitch.ClientId, cfg.Twitch.ClientSecret, helixTimeout)
		bot.stream = twitch.NewNotifier(cfg.Twitch.StreamerName, cfg.Twitch.GoingLiveChannelId, helix, bot.platform)
		log.Info().Msg(fmt.Sprintf("Watching the stream of %s", cfg.Twitch.StreamerName))
	}
	if cfg.HttpAddr != "" {
		bot.server = server.New(cfg.HttpAddr, server.NewRouter(bot.engine, bot.publisher))
	}

	return bot, nil
}

// Wire the components together on top of the databases and the platform
func assemble(cfg config.Config, kv *common.Database, store *queue.Store, platform Platform) *Bot {

	bot := &Bot{config: cfg, platform: platform, kv: kv, store: store, ctx: context.Background()}
	bot.database = CreateDatabaseBot(kv)

	boards := []board.Board{
		{Kind: board.KindQueue, ChannelId: cfg.QueueChannelId},
		{Kind: board.KindControl, ChannelId: cfg.QueueMasterChannelId},
	}
	bot.publisher = board.NewPublisher(boards, platform, bot.database, store)
	bot.engine = queue.NewEngine(store, bot.publisher)
	bot.engine.OnChange(bot.publisher.Refresh)
	bot.confirms = confirm.NewRegistry(cfg.ConfirmTimeout)
	bot.admin = admin.NewSurface(bot.engine, bot.publisher, platform, bot.confirms)

	location, err := time.LoadLocation(cfg.Moderation.Timezone)
	if err != nil {
		log.Warn().Err(err).Msg("Using UTC for the moderation log")
		location = time.UTC
	}
	bot.modlog = modlog.New(kv, platform, modlog.Options{
		LogsChannelId:        cfg.Moderation.LogsChannelId,
		NewUserJoinRoleId:    cfg.Moderation.NewUserJoinRoleId,
		Location:             location,
		IgnoredMessageIds:    cfg.Moderation.IgnoredMessageIds,
		AlternateLogChannels: cfg.Moderation.AlternateLogChannels,
	})

	bot.scheduler = cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})))
	bot.handlers = bot.interactionHandlers()
	return bot
}

// Run blocks until the context is cancelled
func (bot *Bot) Run(ctx context.Context) error {

	bot.ctx = ctx

	// Event handlers
	bot.session.AddHandler(bot.ready)
	bot.session.AddHandler(bot.Receive)
	bot.session.AddHandler(bot.interact)
	if bot.config.ModerationEnabled() {
		bot.session.AddHandler(bot.memberJoined)
		bot.session.AddHandler(bot.memberLeft)
		bot.session.AddHandler(bot.messageEdited)
		bot.session.AddHandler(bot.messageDeleted)
	}

	// Open session
	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer bot.session.Close()

	// Periodic tasks
	if err := bot.schedule(ctx); err != nil {
		return err
	}
	bot.scheduler.Start()
	defer func() { <-bot.scheduler.Stop().Done() }()

	if bot.server != nil {
		bot.server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := bot.server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Could not shut down the ops API")
			}
		}()
	}

	log.Info().Msg("Bot is running")
	<-ctx.Done()
	log.Info().Msg("Shutting down")
	return nil
}

func (bot *Bot) Close() error {
	var errs []error
	if bot.store != nil {
		errs = append(errs, bot.store.Close())
	}
	if bot.kv != nil {
		errs = append(errs, bot.kv.Close())
	}
	return errors.Join(errs...)
}

// Publish the boards once connected, replacing the ones from the previous run
func (bot *Bot) ready(discord *discordgo.Session, ready *discordgo.Ready) {
	log.Info().Msg(fmt.Sprintf("Logged in as %s", ready.User.Username))
	if err := bot.publisher.EnsureAll(bot.ctx); err != nil {
		log.Error().Err(err).Msg("Could not publish the queue boards, self-heal will retry")
	}
	if bot.stream != nil {
		bot.checkStream(bot.ctx)
	}
}

func (bot *Bot) checkStream(ctx context.Context) {
	if _, err := bot.stream.Check(ctx); err != nil {
		log.Warn().Err(err).Msg("Stream check failed")
	}
}

func (bot *Bot) Receive(discord *discordgo.Session, message *discordgo.MessageCreate) {

	// Reject my own messages
	if message.Author == nil || (discord.State.User != nil && message.Author.ID == discord.State.User.ID) {
		return
	}

	// Ignore messages from private channels
	if message.GuildID == "" {
		log.Debug().Msg("Ignoring private message")
		return
	}

	if bot.config.ModerationEnabled() && !message.Author.Bot {
		if err := bot.modlog.MessageCreated(convertMessage(discord, message.Message)); err != nil {
			log.Error().Err(err).Str("message_id", message.ID).Msg("Could not log message")
		}
	}
	if message.Author.Bot {
		return
	}

	// Parse the input provided and call the appropriate function
	parseResult := Parse(bot.config.Prefix, message.Content)
	if parseResult.parseid == PARSEID_NO_BOT_PREFIX {
		return
	}
	log.Debug().Msg(fmt.Sprintf("Received command: %s", message.Content))
	responses := bot.command(bot.ctx, message.GuildID, message.ChannelID, message.Author.ID, parseResult)
	bot.sendResponses(message.ChannelID, responses)
}

func (bot *Bot) sendResponses(channelId string, responses []Response) {
	for _, response := range responses {
		response.Send(channelId, bot.platform)
	}
}
