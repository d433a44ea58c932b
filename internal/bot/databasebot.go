package bot

import (
	"fmt"

	"queuebot/internal/board"
	"queuebot/internal/common"
)

const (
	keyAccepting = "queue/accepting"
	keyDisabled  = "queue/disabled"
)

// DatabaseBot is the state the bot persists in the key-value database:
// the message id of every board, the accepting flag and the disabled marker
type DatabaseBot struct {
	*common.Database
}

func CreateDatabaseBot(db *common.Database) DatabaseBot {
	return DatabaseBot{db}
}

func boardKey(b board.Board) string {
	return fmt.Sprintf("board/%s/%s", b.Kind, b.ChannelId)
}

func (db DatabaseBot) BoardMessage(b board.Board) (string, bool, error) {
	value, ok, err := db.Get(boardKey(b))
	if err != nil || !ok {
		return "", false, err
	}
	return string(value), true, nil
}

func (db DatabaseBot) SetBoardMessage(b board.Board, messageId string) error {
	return db.Set(boardKey(b), []byte(messageId))
}

func (db DatabaseBot) ClearBoardMessage(b board.Board) error {
	return db.Delete(boardKey(b))
}

// The queue accepts new entries until told otherwise
func (db DatabaseBot) Accepting() (bool, error) {
	return db.flag(keyAccepting, true)
}

func (db DatabaseBot) SetAccepting(accepting bool) error {
	return db.setFlag(keyAccepting, accepting)
}

func (db DatabaseBot) Disabled() (bool, error) {
	return db.flag(keyDisabled, false)
}

func (db DatabaseBot) SetDisabled(disabled bool) error {
	if !disabled {
		return db.Delete(keyDisabled)
	}
	return db.setFlag(keyDisabled, true)
}

func (db DatabaseBot) flag(key string, fallback bool) (bool, error) {
	value, ok, err := db.Get(key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return string(value) == "1", nil
}

func (db DatabaseBot) setFlag(key string, value bool) error {
	if value {
		return db.Set(key, []byte("1"))
	}
	return db.Set(key, []byte("0"))
}
