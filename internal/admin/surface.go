// Package admin implements the actions of the queue control panel
package admin

import (
	"context"
	"errors"
	"fmt"

	"queuebot/internal/confirm"
	"queuebot/internal/queue"

	"github.com/rs/zerolog/log"
)

const (
	pulledMessage = "You've been pulled from the queue! It's your turn to play!"
	pickedMessage = "You've been pulled from the queue! You're now in the game."
)

// Returned by notifiers when the participant cannot be messaged privately
var ErrUnreachable = errors.New("participant cannot be reached")

type Refresher interface {
	Refresh(ctx context.Context)
}

// Direct, private message to a participant
type Notifier interface {
	Notify(participant queue.ParticipantId, message string) error
}

// Surface orchestrates the admin actions over the engine. Every action
// ends with one board refresh: the engine refreshes after a commit, the
// surface refreshes itself when nothing was committed
type Surface struct {
	engine   *queue.Engine
	board    Refresher
	notifier Notifier
	confirms *confirm.Registry
}

func NewSurface(engine *queue.Engine, board Refresher, notifier Notifier, confirms *confirm.Registry) *Surface {
	return &Surface{engine: engine, board: board, notifier: notifier, confirms: confirms}
}

func (surface *Surface) PullNext(ctx context.Context) (queue.Entry, bool, error) {
	return surface.pull(ctx, nil)
}

// Only subscribers are eligible, an empty subscriber list pulls nobody
func (surface *Surface) PullNextSubscriber(ctx context.Context) (queue.Entry, bool, error) {
	return surface.pull(ctx, queue.Only(queue.Subscriber))
}

func (surface *Surface) pull(ctx context.Context, only *queue.PriorityClass) (queue.Entry, bool, error) {
	entry, ok, err := surface.engine.PullNext(ctx, only)
	if err != nil || !ok {
		surface.board.Refresh(ctx)
		return queue.Entry{}, false, err
	}
	surface.notify(entry, pulledMessage)
	return entry, true, nil
}

func (surface *Surface) Pick(ctx context.Context, participant queue.ParticipantId) (queue.Entry, error) {
	entry, err := surface.engine.PullSpecific(ctx, participant)
	if err != nil {
		surface.board.Refresh(ctx)
		return queue.Entry{}, err
	}
	surface.notify(entry, pickedMessage)
	return entry, nil
}

// Returns the new value of the flag
func (surface *Surface) ToggleAccepting(ctx context.Context) (bool, error) {
	accepting, err := surface.engine.Accepting()
	if err != nil {
		surface.board.Refresh(ctx)
		return false, err
	}
	if err := surface.engine.SetAccepting(ctx, !accepting); err != nil {
		surface.board.Refresh(ctx)
		return accepting, err
	}
	return !accepting, nil
}

// First half of the clear, nothing changes until the prompt is confirmed
func (surface *Surface) RequestClear(admin string) confirm.Pending {
	return surface.confirms.Request(admin, confirm.ActionClear)
}

func (surface *Surface) ClearConfirmed(ctx context.Context, token string, admin string) (int, error) {
	pending, err := surface.confirms.Resolve(token, admin)
	if err != nil {
		return 0, err
	}
	if pending.Action != confirm.ActionClear {
		return 0, fmt.Errorf("prompt %s is a %s prompt: %w", token, pending.Action, confirm.ErrUnknown)
	}
	removed, err := surface.engine.ClearAll(ctx)
	if err != nil {
		surface.board.Refresh(ctx)
		return 0, err
	}
	return removed, nil
}

// Notification is advisory, the removal already committed
func (surface *Surface) notify(entry queue.Entry, message string) {
	err := surface.notifier.Notify(entry.ParticipantId, message)
	switch {
	case err == nil:
		log.Debug().Str("participant", string(entry.ParticipantId)).Msg(fmt.Sprintf("Notified %s", entry.DisplayName))
	case errors.Is(err, ErrUnreachable):
		log.Info().Str("participant", string(entry.ParticipantId)).Msg(fmt.Sprintf("%s does not accept direct messages", entry.DisplayName))
	default:
		log.Warn().Err(err).Str("participant", string(entry.ParticipantId)).Msg(fmt.Sprintf("Could not notify %s", entry.DisplayName))
	}
}
