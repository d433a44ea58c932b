// Package confirm keeps the short-lived two-choice prompts guarding
// destructive actions. A prompt is confirmed, cancelled or silently expires.
package confirm

import (
	"errors"
	"sync"
	"time"

	"queuebot/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Action string

const (
	ActionLeave Action = "leave"
	ActionClear Action = "clear"
)

var (
	ErrUnknown  = errors.New("confirmation not found")
	ErrExpired  = errors.New("confirmation expired")
	ErrNotOwner = errors.New("confirmation belongs to someone else")
)

type Pending struct {
	Token       string
	Participant string
	Action      Action
	stopwatch   common.Stopwatch
}

type key struct {
	participant string
	action      Action
}

type Registry struct {
	mutex   sync.Mutex
	timeout time.Duration
	pending map[string]*Pending // by token
	current map[key]string      // latest token per participant and action
	now     func() time.Time
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		timeout: timeout,
		pending: map[string]*Pending{},
		current: map[key]string{},
		now:     time.Now,
	}
}

// Open a prompt. A prompt already pending for the same participant and action is replaced
func (registry *Registry) Request(participant string, action Action) Pending {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	k := key{participant, action}
	if previous, ok := registry.current[k]; ok {
		delete(registry.pending, previous)
		log.Debug().Str("participant", participant).Str("action", string(action)).Msg("Replacing pending confirmation")
	}

	pending := &Pending{
		Token:       uuid.NewString(),
		Participant: participant,
		Action:      action,
		stopwatch:   common.NewStopwatch(registry.timeout),
	}
	pending.stopwatch.StartAt(registry.now())
	registry.pending[pending.Token] = pending
	registry.current[k] = pending.Token
	return *pending
}

// Consume a prompt so its action can be applied
func (registry *Registry) Resolve(token string, participant string) (Pending, error) {
	return registry.take(token, participant)
}

// Consume a prompt without applying anything
func (registry *Registry) Cancel(token string, participant string) error {
	_, err := registry.take(token, participant)
	return err
}

func (registry *Registry) take(token string, participant string) (Pending, error) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	pending, ok := registry.pending[token]
	if !ok {
		return Pending{}, ErrUnknown
	}
	if pending.Participant != participant {
		return Pending{}, ErrNotOwner
	}
	registry.drop(pending)
	if pending.stopwatch.ExpiredAt(registry.now()) {
		return Pending{}, ErrExpired
	}
	return *pending, nil
}

func (registry *Registry) drop(pending *Pending) {
	delete(registry.pending, pending.Token)
	k := key{pending.Participant, pending.Action}
	if registry.current[k] == pending.Token {
		delete(registry.current, k)
	}
}

// Drop every expired prompt and return how many were dropped
func (registry *Registry) Sweep() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	now := registry.now()
	dropped := 0
	for _, pending := range registry.pending {
		if pending.stopwatch.ExpiredAt(now) {
			registry.drop(pending)
			dropped++
		}
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("Swept expired confirmations")
	}
	return dropped
}

func (registry *Registry) Len() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return len(registry.pending)
}
