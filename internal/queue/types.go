package queue

import (
	"errors"
	"fmt"
	"time"
)

type ParticipantId string

type PriorityClass int

const (
	Standard PriorityClass = iota
	Subscriber
)

func (class PriorityClass) String() string {
	switch class {
	case Standard:
		return "standard"
	case Subscriber:
		return "subscriber"
	default:
		return fmt.Sprintf("class(%d)", int(class))
	}
}

// Only restricts a pull to entries of the provided class
func Only(class PriorityClass) *PriorityClass {
	return &class
}

// A participant waiting in the queue
type Entry struct {
	ParticipantId ParticipantId
	DisplayName   string
	Priority      PriorityClass
	JoinedAt      time.Time
}

// Rank is 1-based, Total is the size of the queue when the rank was computed
type Position struct {
	Rank  int
	Total int
}

var (
	ErrAlreadyQueued = errors.New("participant is already in the queue")
	ErrNotQueued     = errors.New("participant is not in the queue")
	ErrQueueClosed   = errors.New("queue is not accepting new entries")
)
