package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Publisher owns the boards: their persisted message ids, the accepting flag
// and the disabled marker. Ensure, refresh and self-heal are serialized
type Publisher struct {
	mutex     sync.Mutex
	boards    []Board
	messenger Messenger
	state     State
	source    Source
}

func NewPublisher(boards []Board, messenger Messenger, state State, source Source) *Publisher {
	return &Publisher{boards: boards, messenger: messenger, state: state, source: source}
}

func (publisher *Publisher) Boards() []Board {
	return append([]Board(nil), publisher.boards...)
}

// Replace whatever board was published before with a fresh one
func (publisher *Publisher) EnsureSession(ctx context.Context, board Board) error {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	return publisher.ensure(ctx, board)
}

// Ensure every board, unless the queue has been disabled
func (publisher *Publisher) EnsureAll(ctx context.Context) error {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	if publisher.isDisabled() {
		log.Info().Msg("Queue is disabled, no boards to publish")
		return nil
	}
	var errs []error
	for _, board := range publisher.boards {
		if err := publisher.ensure(ctx, board); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (publisher *Publisher) ensure(ctx context.Context, board Board) error {

	// Delete the previous board first, so there is never more than one
	if err := publisher.deleteBoard(board); err != nil {
		return err
	}

	view, err := publisher.render(ctx, board)
	if err != nil {
		return err
	}
	messageId, err := publisher.messenger.SendBoard(board.ChannelId, view)
	if err != nil {
		return fmt.Errorf("could not send %s: %w", board, err)
	}
	if err := publisher.state.SetBoardMessage(board, messageId); err != nil {
		return fmt.Errorf("could not persist message id %s for %s: %w", messageId, board, err)
	}
	log.Info().Str("message_id", messageId).Msg(fmt.Sprintf("New %s created", board))
	return nil
}

// Best-effort removal of the published message, the persisted id is always cleared
func (publisher *Publisher) deleteBoard(board Board) error {

	messageId, ok, err := publisher.state.BoardMessage(board)
	if err != nil {
		return fmt.Errorf("could not read message id for %s: %w", board, err)
	}
	if !ok {
		return nil
	}

	err = publisher.messenger.DeleteMessage(board.ChannelId, messageId)
	switch {
	case err == nil:
		log.Info().Str("message_id", messageId).Msg(fmt.Sprintf("Deleted old %s", board))
	case errors.Is(err, ErrNotFound):
		log.Debug().Str("message_id", messageId).Msg(fmt.Sprintf("Old %s was already gone", board))
	case errors.Is(err, ErrForbidden):
		log.Warn().Str("message_id", messageId).Msg(fmt.Sprintf("No permission to delete old %s", board))
	default:
		log.Warn().Err(err).Str("message_id", messageId).Msg(fmt.Sprintf("Could not delete old %s", board))
	}

	if err := publisher.state.ClearBoardMessage(board); err != nil {
		return fmt.Errorf("could not clear message id for %s: %w", board, err)
	}
	return nil
}

func (publisher *Publisher) render(ctx context.Context, board Board) (View, error) {
	entries, err := publisher.source.List(ctx)
	if err != nil {
		return View{}, fmt.Errorf("could not list queue entries: %w", err)
	}
	accepting, err := publisher.state.Accepting()
	if err != nil {
		return View{}, fmt.Errorf("could not read accepting flag: %w", err)
	}
	return Render(board, entries, accepting), nil
}

// Re-render every board. Failures are logged, the next self-heal repairs them
func (publisher *Publisher) Refresh(ctx context.Context) {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	if publisher.isDisabled() {
		return
	}
	for _, board := range publisher.boards {
		if err := publisher.refresh(ctx, board); err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("Could not refresh %s", board))
		}
	}
}

func (publisher *Publisher) RefreshBoard(ctx context.Context, board Board) error {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	return publisher.refresh(ctx, board)
}

func (publisher *Publisher) refresh(ctx context.Context, board Board) error {

	messageId, ok, err := publisher.state.BoardMessage(board)
	if err != nil {
		return fmt.Errorf("could not read message id: %w", err)
	}
	if !ok {
		log.Debug().Msg(fmt.Sprintf("No %s published yet", board))
		return fmt.Errorf("%s: %w", board, ErrNotFound)
	}

	view, err := publisher.render(ctx, board)
	if err != nil {
		return err
	}

	err = publisher.messenger.EditBoard(board.ChannelId, messageId, view)
	if errors.Is(err, ErrNotFound) {
		// Deleted from outside, forget it so it gets recreated
		if clearErr := publisher.state.ClearBoardMessage(board); clearErr != nil {
			log.Error().Err(clearErr).Msg(fmt.Sprintf("Could not clear message id for %s", board))
		}
		return fmt.Errorf("%s was deleted: %w", board, err)
	}
	return err
}

// Refresh every board and recreate the ones that are missing
func (publisher *Publisher) SelfHeal(ctx context.Context) {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	if publisher.isDisabled() {
		return
	}
	for _, board := range publisher.boards {
		err := publisher.refresh(ctx, board)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Msg(fmt.Sprintf("Self-heal could not refresh %s", board))
			continue
		}
		log.Info().Msg(fmt.Sprintf("Self-heal is recreating %s", board))
		if err := publisher.ensure(ctx, board); err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("Self-heal could not recreate %s", board))
		}
	}
}

func (publisher *Publisher) isDisabled() bool {
	disabled, err := publisher.state.Disabled()
	if err != nil {
		log.Error().Err(err).Msg("Could not read disabled marker")
		return false
	}
	return disabled
}

func (publisher *Publisher) Accepting() (bool, error) {
	return publisher.state.Accepting()
}

func (publisher *Publisher) SetAccepting(accepting bool) error {
	return publisher.state.SetAccepting(accepting)
}

func (publisher *Publisher) Disabled() (bool, error) {
	return publisher.state.Disabled()
}

// Take the boards down and keep self-heal from bringing them back
func (publisher *Publisher) Disable(ctx context.Context) error {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	if err := publisher.state.SetDisabled(true); err != nil {
		return err
	}
	var errs []error
	for _, board := range publisher.boards {
		if err := publisher.deleteBoard(board); err != nil {
			errs = append(errs, err)
		}
	}
	log.Info().Msg("Queue boards disabled")
	return errors.Join(errs...)
}

func (publisher *Publisher) Enable(ctx context.Context) error {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()

	if err := publisher.state.SetDisabled(false); err != nil {
		return err
	}
	var errs []error
	for _, board := range publisher.boards {
		if err := publisher.ensure(ctx, board); err != nil {
			errs = append(errs, err)
		}
	}
	log.Info().Msg("Queue boards enabled")
	return errors.Join(errs...)
}
