// Package board publishes the queue status boards: one participant board
// and one control panel, each a single message whose identity survives restarts.
package board

import (
	"context"
	"errors"
	"fmt"

	"queuebot/internal/queue"

	"github.com/bwmarrin/discordgo"
)

type Kind string

const (
	KindQueue   Kind = "queue"
	KindControl Kind = "control"
)

type Board struct {
	Kind      Kind
	ChannelId string
}

func (board Board) String() string {
	return fmt.Sprintf("%s board in channel %s", board.Kind, board.ChannelId)
}

// Custom ids of the components rendered on the boards
const (
	ActionJoin           = "queue:join"
	ActionLeave          = "queue:leave"
	ActionCheck          = "queue:check"
	ActionPullNext       = "control:pull"
	ActionPullSubscriber = "control:pull-subscriber"
	ActionPick           = "control:pick"
	ActionPickSelect     = "control:pick-select"
	ActionToggle         = "control:toggle"
	ActionClear          = "control:clear"
)

// Failures of the messaging surface that are never fatal
var (
	ErrNotFound  = errors.New("message not found")
	ErrForbidden = errors.New("missing permission")
)

// A rendered board
type View struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

type Messenger interface {
	SendBoard(channelId string, view View) (string, error)
	EditBoard(channelId string, messageId string, view View) error
	DeleteMessage(channelId string, messageId string) error
}

// State persists what the publisher owns
type State interface {
	BoardMessage(board Board) (string, bool, error)
	SetBoardMessage(board Board, messageId string) error
	ClearBoardMessage(board Board) error
	Accepting() (bool, error)
	SetAccepting(accepting bool) error
	Disabled() (bool, error)
	SetDisabled(disabled bool) error
}

type Source interface {
	List(ctx context.Context) ([]queue.Entry, error)
}
