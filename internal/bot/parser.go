package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const timestampFormat = "2006-01-02 15:04:05"

const (
	COMMAND_CREATEQUEUE     = iota
	COMMAND_QUEUE           = iota
	COMMAND_PURGEAFTER      = iota
	COMMAND_LOGEVERYMESSAGE = iota
	COMMAND_HELP            = iota
)

const (
	PARSEID_OK                        = iota
	PARSEID_NO_BOT_PREFIX             = iota
	PARSEID_NO_COMMAND                = iota
	PARSEID_COMMAND_NOT_RECOGNISED    = iota
	PARSEID_NO_INPUT                  = iota
	PARSEID_NOT_A_TIMESTAMP           = iota
	PARSEID_SUBCOMMAND_NOT_RECOGNISED = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_NO_COMMAND:                "No command provided",
	PARSEID_COMMAND_NOT_RECOGNISED:    "Command `%s` not recognised",
	PARSEID_NO_INPUT:                  "Command `%s` requires an argument",
	PARSEID_NOT_A_TIMESTAMP:           "Invalid timestamp format `%s`. Please use 'YYYY-MM-DD HH:MM:SS'",
	PARSEID_SUBCOMMAND_NOT_RECOGNISED: "`%s` is not one of status, open, close, enable, disable",
}

// Subcommands of the queue command
const (
	QUEUE_STATUS  = "status"
	QUEUE_OPEN    = "open"
	QUEUE_CLOSE   = "close"
	QUEUE_ENABLE  = "enable"
	QUEUE_DISABLE = "disable"
)

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

// Commands that change the server need the Administrator permission
func (result ParseResult) AdminOnly() bool {
	switch result.command {
	case COMMAND_HELP:
		return false
	case COMMAND_QUEUE:
		return result.arguments != QUEUE_STATUS
	default:
		return true
	}
}

func Parse(prefix string, message string) ParseResult {

	noInput := func(command int, commandString string) ParseResult {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}

	// The message has to start with the bot prefix
	if prefix == "" || !strings.HasPrefix(message, prefix) {
		log.Debug().Msg("Reject message not intended for the bot")
		return ParseResult{parseid: PARSEID_NO_BOT_PREFIX}
	}

	// Get the command if valid
	words := strings.Fields(message[len(prefix):])
	if len(words) == 0 {
		parseid := PARSEID_NO_COMMAND
		return ParseResult{parseid: parseid, errorMessage: errorMessages[parseid]}
	}
	commandString := strings.ToLower(words[0])
	words = words[1:]

	// Match the command

	switch commandString {
	case "createqueue":
		// $createqueue
		return ParseResult{command: COMMAND_CREATEQUEUE, parseid: PARSEID_OK}
	case "queue":
		// $queue [status|open|close|enable|disable]
		command := COMMAND_QUEUE
		if len(words) == 0 {
			return ParseResult{command: command, parseid: PARSEID_OK, arguments: QUEUE_STATUS}
		}
		subcommand := strings.ToLower(words[0])
		switch subcommand {
		case QUEUE_STATUS, QUEUE_OPEN, QUEUE_CLOSE, QUEUE_ENABLE, QUEUE_DISABLE:
			return ParseResult{command: command, parseid: PARSEID_OK, arguments: subcommand}
		default:
			parseid := PARSEID_SUBCOMMAND_NOT_RECOGNISED
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], words[0])}
		}
	case "purgeafter":
		// $purgeafter <YYYY-MM-DD HH:MM:SS>
		command := COMMAND_PURGEAFTER
		if len(words) == 0 {
			return noInput(command, commandString)
		} else {
			return parseTimestamp(command, words)
		}
	case "logeverymessage":
		// $logeverymessage
		return ParseResult{command: COMMAND_LOGEVERYMESSAGE, parseid: PARSEID_OK}
	case "help":
		// $help
		return ParseResult{command: COMMAND_HELP, parseid: PARSEID_OK}
	default:
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}

	}

}

// Timestamps are given in UTC
func parseTimestamp(command int, words []string) ParseResult {

	input := strings.Trim(strings.Join(words, " "), "'\"")
	timestamp, err := time.ParseInLocation(timestampFormat, input, time.UTC)
	if err != nil {
		parseid := PARSEID_NOT_A_TIMESTAMP
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], input)}
	}
	return ParseResult{parseid: PARSEID_OK, command: command, arguments: timestamp}
}
