package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRegistry() (*Registry, *clock) {
	c := &clock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	registry := NewRegistry(30 * time.Second)
	registry.now = func() time.Time { return c.now }
	return registry, c
}

func TestResolveConsumesThePrompt(t *testing.T) {
	registry, _ := newTestRegistry()

	pending := registry.Request("alice", ActionLeave)
	assert.NotEmpty(t, pending.Token)

	resolved, err := registry.Resolve(pending.Token, "alice")
	require.NoError(t, err)
	assert.Equal(t, ActionLeave, resolved.Action)
	assert.Equal(t, "alice", resolved.Participant)

	_, err = registry.Resolve(pending.Token, "alice")
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, 0, registry.Len())
}

func TestOnlyTheOwnerCanResolve(t *testing.T) {
	registry, _ := newTestRegistry()

	pending := registry.Request("alice", ActionLeave)
	_, err := registry.Resolve(pending.Token, "mallory")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = registry.Resolve(pending.Token, "alice")
	assert.NoError(t, err, "a foreign attempt does not consume the prompt")
}

func TestExpiredPromptsAreRejected(t *testing.T) {
	registry, c := newTestRegistry()

	pending := registry.Request("alice", ActionClear)
	c.advance(31 * time.Second)

	_, err := registry.Resolve(pending.Token, "alice")
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 0, registry.Len())
}

func TestNewRequestReplacesPendingOne(t *testing.T) {
	registry, _ := newTestRegistry()

	first := registry.Request("alice", ActionLeave)
	other := registry.Request("alice", ActionClear)
	second := registry.Request("alice", ActionLeave)
	assert.NotEqual(t, first.Token, second.Token)

	_, err := registry.Resolve(first.Token, "alice")
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = registry.Resolve(second.Token, "alice")
	assert.NoError(t, err)
	_, err = registry.Resolve(other.Token, "alice")
	assert.NoError(t, err, "different actions do not replace each other")
}

func TestCancelAndSweep(t *testing.T) {
	registry, c := newTestRegistry()

	cancelled := registry.Request("alice", ActionLeave)
	require.NoError(t, registry.Cancel(cancelled.Token, "alice"))
	assert.ErrorIs(t, registry.Cancel(cancelled.Token, "alice"), ErrUnknown)

	registry.Request("bob", ActionLeave)
	c.advance(20 * time.Second)
	fresh := registry.Request("carol", ActionLeave)
	c.advance(15 * time.Second)

	assert.Equal(t, 1, registry.Sweep())
	assert.Equal(t, 1, registry.Len())
	_, err := registry.Resolve(fresh.Token, "carol")
	assert.NoError(t, err)
}
