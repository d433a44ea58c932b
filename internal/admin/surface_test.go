package admin

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"queuebot/internal/confirm"
	"queuebot/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBoard struct {
	refreshes int
}

func (board *countingBoard) Refresh(ctx context.Context) { board.refreshes++ }

type flagState struct {
	accepting bool
}

func (flags *flagState) Accepting() (bool, error)          { return flags.accepting, nil }
func (flags *flagState) SetAccepting(accepting bool) error { flags.accepting = accepting; return nil }

type recordingNotifier struct {
	messages map[queue.ParticipantId]string
	err      error
}

func (notifier *recordingNotifier) Notify(participant queue.ParticipantId, message string) error {
	if notifier.err != nil {
		return notifier.err
	}
	notifier.messages[participant] = message
	return nil
}

type fixture struct {
	surface  *Surface
	engine   *queue.Engine
	board    *countingBoard
	flags    *flagState
	notifier *recordingNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := queue.OpenStore("sqlite", filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	flags := &flagState{accepting: true}
	board := &countingBoard{}
	engine := queue.NewEngine(store, flags)
	engine.OnChange(board.Refresh)
	notifier := &recordingNotifier{messages: map[queue.ParticipantId]string{}}
	surface := NewSurface(engine, board, notifier, confirm.NewRegistry(time.Minute))
	return fixture{surface: surface, engine: engine, board: board, flags: flags, notifier: notifier}
}

func (f fixture) join(t *testing.T, id queue.ParticipantId, class queue.PriorityClass) {
	t.Helper()
	_, err := f.engine.Join(context.Background(), id, string(id), class)
	require.NoError(t, err)
}

func TestPullNextNotifiesAndRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "a", queue.Standard)
	f.join(t, "b", queue.Subscriber)
	f.board.refreshes = 0

	entry, ok, err := f.surface.PullNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, queue.ParticipantId("a"), entry.ParticipantId)
	assert.Equal(t, pulledMessage, f.notifier.messages["a"])
	assert.Equal(t, 1, f.board.refreshes)
}

func TestPullNextSubscriberDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "a", queue.Standard)
	f.board.refreshes = 0

	_, ok, err := f.surface.PullNextSubscriber(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, f.board.refreshes)
	assert.Empty(t, f.notifier.messages)

	entries, err := f.engine.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPickSurvivesNotificationFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "a", queue.Standard)
	f.join(t, "b", queue.Standard)
	f.notifier.err = errors.New("cannot send messages to this user")
	f.board.refreshes = 0

	entry, err := f.surface.Pick(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, queue.ParticipantId("b"), entry.ParticipantId)
	assert.Equal(t, 1, f.board.refreshes)

	queued, err := f.engine.IsQueued(ctx, "b")
	require.NoError(t, err)
	assert.False(t, queued)

	_, err = f.surface.Pick(ctx, "b")
	assert.ErrorIs(t, err, queue.ErrNotQueued)
	assert.Equal(t, 2, f.board.refreshes)
}

func TestPickNotifiesWithPickMessage(t *testing.T) {
	f := newFixture(t)
	f.join(t, "a", queue.Standard)

	_, err := f.surface.Pick(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, pickedMessage, f.notifier.messages["a"])
}

func TestToggleAccepting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	accepting, err := f.surface.ToggleAccepting(ctx)
	require.NoError(t, err)
	assert.False(t, accepting)
	assert.False(t, f.flags.accepting)
	assert.Equal(t, 1, f.board.refreshes)

	accepting, err = f.surface.ToggleAccepting(ctx)
	require.NoError(t, err)
	assert.True(t, accepting)
	assert.Equal(t, 2, f.board.refreshes)
}

func TestClearNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.join(t, "a", queue.Standard)
	f.join(t, "b", queue.Subscriber)

	pending := f.surface.RequestClear("admin")
	entries, err := f.engine.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.surface.ClearConfirmed(ctx, pending.Token, "someone-else")
	assert.ErrorIs(t, err, confirm.ErrNotOwner)

	removed, err := f.surface.ClearConfirmed(ctx, pending.Token, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, id := range []queue.ParticipantId{"a", "b"} {
		_, ok, err := f.engine.Position(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, err = f.surface.ClearConfirmed(ctx, pending.Token, "admin")
	assert.ErrorIs(t, err, confirm.ErrUnknown)
}
