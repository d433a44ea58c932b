package twitch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type StreamSource interface {
	GetStream(ctx context.Context, login string) (Stream, bool, error)
}

type Announcer interface {
	Announce(channelId string, content string) error
}

// Notifier posts one announcement each time the streamer goes live
type Notifier struct {
	mutex       sync.Mutex
	streamer    string
	channelId   string
	source      StreamSource
	announcer   Announcer
	alreadyLive bool
}

// The notifier starts as if the stream was live, so a restart
// in the middle of a stream does not announce it again
func NewNotifier(streamer string, channelId string, source StreamSource, announcer Announcer) *Notifier {
	return &Notifier{
		streamer:    streamer,
		channelId:   channelId,
		source:      source,
		announcer:   announcer,
		alreadyLive: true,
	}
}

func (notifier *Notifier) Announcement() string {
	return fmt.Sprintf("%s is now live! https://www.twitch.tv/%s @everyone", notifier.streamer, notifier.streamer)
}

// Poll the stream once. Returns true when an announcement was sent
func (notifier *Notifier) Check(ctx context.Context) (bool, error) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()

	stream, live, err := notifier.source.GetStream(ctx, notifier.streamer)
	if err != nil {
		return false, err
	}

	switch {
	case !live:
		if notifier.alreadyLive {
			log.Info().Msg(fmt.Sprintf("%s is offline", notifier.streamer))
		}
		notifier.alreadyLive = false
		return false, nil
	case notifier.alreadyLive:
		return false, nil
	}

	if err := notifier.announcer.Announce(notifier.channelId, notifier.Announcement()); err != nil {
		// Still offline for us, the next check tries again
		return false, fmt.Errorf("could not announce stream in channel %s: %w", notifier.channelId, err)
	}
	notifier.alreadyLive = true
	log.Info().Str("title", stream.Title).Msg(fmt.Sprintf("%s went live", notifier.streamer))
	return true, nil
}
