package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Flags holds the accepting flag of the queue. It is owned by whoever
// publishes the queue, the engine only reads and flips it
type Flags interface {
	Accepting() (bool, error)
	SetAccepting(accepting bool) error
}

// Engine applies the queue rules on top of the store.
// It keeps no state of its own
type Engine struct {
	store    *Store
	flags    Flags
	onChange func(ctx context.Context)
}

func NewEngine(store *Store, flags Flags) *Engine {
	return &Engine{store: store, flags: flags, onChange: func(context.Context) {}}
}

// Register the function called after every committed change
func (engine *Engine) OnChange(fn func(ctx context.Context)) {
	engine.onChange = fn
}

func (engine *Engine) changed(ctx context.Context) {
	engine.onChange(ctx)
}

func (engine *Engine) Join(ctx context.Context, participant ParticipantId, displayName string, class PriorityClass) (Entry, error) {

	// The flag is read under the store lock, so a join never lands after a close committed
	admit := func() error {
		accepting, err := engine.flags.Accepting()
		if err != nil {
			return fmt.Errorf("could not read accepting flag: %w", err)
		}
		if !accepting {
			log.Debug().Str("participant", string(participant)).Msg("Rejecting join, queue is closed")
			return ErrQueueClosed
		}
		return nil
	}

	entry, err := engine.store.insert(ctx, admit, participant, displayName, class)
	if err != nil {
		return Entry{}, err
	}
	log.Info().Str("participant", string(participant)).Str("class", class.String()).Msg(fmt.Sprintf("%s joined the queue", displayName))
	engine.changed(ctx)
	return entry, nil
}

// Leave is the committing half of the two-step leave, called once the participant confirmed
func (engine *Engine) Leave(ctx context.Context, participant ParticipantId) (Entry, error) {
	entry, err := engine.store.Remove(ctx, participant)
	if err != nil {
		return Entry{}, err
	}
	log.Info().Str("participant", string(participant)).Msg(fmt.Sprintf("%s left the queue", entry.DisplayName))
	engine.changed(ctx)
	return entry, nil
}

func (engine *Engine) Position(ctx context.Context, participant ParticipantId) (Position, bool, error) {
	return engine.store.Position(ctx, participant)
}

func (engine *Engine) IsQueued(ctx context.Context, participant ParticipantId) (bool, error) {
	_, ok, err := engine.store.Position(ctx, participant)
	return ok, err
}

// Remove and return the earliest entry. With a class, only entries of that class
// are eligible: a subscriber pull never falls back to standard entries
func (engine *Engine) PullNext(ctx context.Context, only *PriorityClass) (Entry, bool, error) {
	entry, ok, err := engine.store.PopEarliest(ctx, only)
	if err != nil || !ok {
		return Entry{}, ok, err
	}
	log.Info().Str("participant", string(entry.ParticipantId)).Msg(fmt.Sprintf("Pulled %s from the queue", entry.DisplayName))
	engine.changed(ctx)
	return entry, true, nil
}

func (engine *Engine) PullSpecific(ctx context.Context, participant ParticipantId) (Entry, error) {
	entry, err := engine.store.Remove(ctx, participant)
	if err != nil {
		return Entry{}, err
	}
	log.Info().Str("participant", string(participant)).Msg(fmt.Sprintf("Picked %s from the queue", entry.DisplayName))
	engine.changed(ctx)
	return entry, nil
}

// ClearAll is the committing half of the two-step clear
func (engine *Engine) ClearAll(ctx context.Context) (int, error) {
	removed, err := engine.store.RemoveAll(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int("removed", removed).Msg("Cleared the queue")
	engine.changed(ctx)
	return removed, nil
}

func (engine *Engine) Accepting() (bool, error) {
	return engine.flags.Accepting()
}

// Flip the accepting flag. Entries already queued are not affected
func (engine *Engine) SetAccepting(ctx context.Context, accepting bool) error {
	err := engine.store.exclusive(func() error {
		return engine.flags.SetAccepting(accepting)
	})
	if err != nil {
		return err
	}
	log.Info().Bool("accepting", accepting).Msg("Queue accepting flag changed")
	engine.changed(ctx)
	return nil
}

func (engine *Engine) Entries(ctx context.Context) ([]Entry, error) {
	return engine.store.List(ctx)
}
